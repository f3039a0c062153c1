package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
	inputWidth     int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 10,
		inputWidth:     70,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	l.inputWidth = innerWidth - 6
	// hero, steps, models, document card, composer and status bar
	const chrome = 24
	history := height - chrome
	if history < 6 {
		history = 6
	}
	l.viewportHeight = history
}

func (m *model) buildHistoryContent() string {
	cb := &strings.Builder{}
	if len(m.history) == 0 {
		cb.WriteString(helperStyle.Render("Questions and answers will appear here once you upload a PDF."))
		cb.WriteRune('\n')
		return cb.String()
	}
	wrap := m.wrapWidth(4)
	for idx, entry := range m.history {
		if idx > 0 {
			cb.WriteRune('\n')
		}
		label := fmt.Sprintf("Q%d · %s · %s", idx+1, entry.Model, entry.AskedAt.Format("15:04:05"))
		cb.WriteString(helperStyle.Render(label))
		cb.WriteRune('\n')
		cb.WriteString(questionStyle.Render(indentMultiline(wordwrap.String(entry.Question, wrap), "  ")))
		cb.WriteRune('\n')
		switch {
		case entry.Pending:
			cb.WriteString(helperStyle.Render(fmt.Sprintf("  %s Waiting for answer…", m.spinner.View())))
		case entry.Error != "":
			cb.WriteString(errorStyle.Render(indentMultiline(wordwrap.String(entry.Error, wrap), "  ")))
		case entry.Answer == "":
			cb.WriteString(helperStyle.Render("  No answer recorded."))
		default:
			cb.WriteString(answerStyle.Render(indentMultiline(wordwrap.String(entry.Answer, wrap), "  ")))
		}
		cb.WriteRune('\n')
	}
	return cb.String()
}

func (m *model) refreshHistoryIfDirty() {
	if !m.historyDirty && !m.historyHasPending() {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.buildHistoryContent())
	if atBottom || m.historyDirty {
		m.viewport.GotoBottom()
	}
	m.historyDirty = false
}

func (m *model) historyHasPending() bool {
	for _, entry := range m.history {
		if entry.Pending {
			return true
		}
	}
	return false
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func previewText(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

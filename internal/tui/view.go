package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/scenescanner/internal/document"
	"github.com/csheth/scenescanner/internal/session"
)

func (m *model) View() string {
	snap := m.state.Snapshot()
	m.refreshHistoryIfDirty()
	parts := []string{
		m.heroView(),
		m.stepsView(snap),
		m.modelSelectorView(snap),
		m.documentView(snap),
	}
	if msg := m.errorView(snap); msg != "" {
		parts = append(parts, msg)
	}
	parts = append(parts, m.composerPanel(snap))
	if answer := m.answerView(snap); answer != "" {
		parts = append(parts, answer)
	}
	parts = append(parts, joinNonEmpty([]string{
		sectionHeaderStyle.Render("Session History"),
		m.viewport.View(),
	}))
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.busy() {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView(), m.helpView())
	}
	parts = append(parts, m.statusBarView(snap))
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderLogo(),
		taglineStyle.Render(heroTagline),
	)
}

// stepsView renders the File Selected → Ready to Ask indicator.
func (m *model) stepsView(snap session.Snapshot) string {
	fileStep := stepIdleStyle.Render("1 File Selected")
	switch {
	case snap.File != nil && snap.UploadStatus == session.UploadDone:
		fileStep = stepDoneStyle.Render("1 File Selected")
	case snap.File != nil:
		fileStep = stepActiveStyle.Render("1 File Selected")
	}
	askStep := stepIdleStyle.Render("2 Ready to Ask")
	if snap.ReadyToAsk() {
		askStep = stepActiveStyle.Render("2 Ready to Ask")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, fileStep, helperStyle.Render(" → "), askStep)
}

func (m *model) modelSelectorView(snap session.Snapshot) string {
	cells := []string{helperStyle.Render("Model ")}
	for _, candidate := range session.Models() {
		label := candidate.DisplayName()
		if candidate == snap.Model {
			cells = append(cells, selectedModelStyle.Render("● "+label))
			continue
		}
		cells = append(cells, otherModelStyle.Render("○ "+label))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Center, cells...)
	return joinNonEmpty([]string{line, helperStyle.Render(snap.Model.Description())})
}

func (m *model) documentView(snap session.Snapshot) string {
	if snap.File == nil {
		return joinNonEmpty([]string{
			sectionHeaderStyle.Render("Document"),
			helperStyle.Render("No PDF selected. Press o to choose one."),
		})
	}
	lines := []string{
		heroTitleStyle.Render(snap.File.Name),
		helperStyle.Render(fmt.Sprintf("%s · %s", document.HumanSize(snap.File.Size()), uploadLabel(snap.UploadStatus))),
	}
	if m.preview.Pages > 0 {
		lines = append(lines, helperStyle.Render(fmt.Sprintf("%d pages", m.preview.Pages)))
	}
	if snippet := previewText(m.preview.Snippet, snippetPreviewLimit); snippet != "" {
		lines = append(lines, taglineStyle.Render(wordwrap.String(snippet, m.wrapWidth(8))))
	}
	if m.previewErr != "" {
		lines = append(lines, helperStyle.Render("Preview unavailable: "+m.previewErr))
	}
	if snap.SessionID != "" {
		lines = append(lines, helperStyle.Render("Session "+snap.SessionID))
	}
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Document"),
		heroBoxStyle.Render(strings.Join(lines, "\n")),
	})
}

func uploadLabel(status session.UploadStatus) string {
	switch status {
	case session.UploadInProgress:
		return "uploading…"
	case session.UploadDone:
		return "uploaded"
	case session.UploadFailed:
		return "upload failed"
	default:
		return "not uploaded"
	}
}

func (m *model) errorView(snap session.Snapshot) string {
	var lines []string
	if snap.Error != "" {
		lines = append(lines, errorStyle.Render("✖ "+snap.Error))
	}
	if m.notice != "" {
		lines = append(lines, errorStyle.Render(m.notice))
	}
	return strings.Join(lines, "\n")
}

func (m *model) composerPanel(snap session.Snapshot) string {
	if m.focus == focusPath || snap.File == nil {
		return joinNonEmpty([]string{
			sectionHeaderStyle.Render("Open PDF"),
			m.pathInput.View(),
			helperStyle.Render("Enter: open • Esc: cancel"),
		})
	}
	hint := "Enter: ask • Esc: cancel"
	switch {
	case snap.AskStatus == session.AskInProgress:
		hint = "Waiting for the current answer…"
	case !snap.ReadyToAsk():
		hint = "Upload the PDF with u before asking."
	}
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Ask"),
		m.questionInput.View(),
		helperStyle.Render(hint),
	})
}

func (m *model) answerView(snap session.Snapshot) string {
	if snap.AskStatus != session.AskDone || snap.Answer == "" {
		return ""
	}
	body := wordwrap.String(snap.Answer, m.wrapWidth(6))
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Answer"),
		answerBoxStyle.Render(answerStyle.Render(body)),
	})
}

func (m *model) statusBarView(snap session.Snapshot) string {
	stats := []string{
		fmt.Sprintf("Model %s", snap.Model.DisplayName()),
		fmt.Sprintf("Upload %s", snap.UploadStatus),
		fmt.Sprintf("Ask %s", snap.AskStatus),
		fmt.Sprintf("Q&A %d", len(m.history)),
		m.backendLabel(),
	}
	stats = append(stats, m.jobStatusBadges()...)
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) backendLabel() string {
	switch m.backend {
	case backendReachable:
		if m.backendMessage == "" {
			return "Backend online"
		}
		return "Backend online: " + previewText(m.backendMessage, backendMessageLimit)
	case backendUnreachable:
		if m.backendMessage == "" {
			return "Backend offline"
		}
		return "Backend offline: " + previewText(m.backendMessage, backendMessageLimit)
	default:
		return "Backend ?"
	}
}

func (m *model) jobStatusBadges() []string {
	running := runningJobs(m.jobStatus)
	badges := make([]string, 0, len(running))
	for _, job := range running {
		badges = append(badges, fmt.Sprintf("%s…", job.Kind))
	}
	return badges
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"o", "Open PDF"},
		{"u", "Upload"},
		{"q", "Ask question"},
		{"Tab", "Switch model"},
		{"p", "Ping backend"},
		{"↑/↓", "Scroll history"},
		{"g/G", "Top or bottom"},
		{"?", "Toggle cheatsheet"},
		{"Esc", "Quit"},
	}
	rows := []string{sectionHeaderStyle.Render("Key Cheatsheet")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) helpView() string {
	lines := []string{
		sectionHeaderStyle.Render("How it works"),
		helperStyle.Render("• press o, type the path of a .pdf file and hit Enter to select it."),
		helperStyle.Render("• press Tab to switch between GPT-4 and Qwen2.5 before uploading."),
		helperStyle.Render("• press u to upload; once it succeeds press q, type a question and hit Enter."),
		helperStyle.Render("• choosing a new file resets the upload, so upload again before asking."),
		helperStyle.Render("• Esc leaves an input; Esc again or Ctrl+C quits."),
	}
	return helpBoxStyle.Render(strings.Join(lines, "\n"))
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	rows := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		rows[i] = []rune(line)
		if len(rows[i]) > width {
			width = len(rows[i])
		}
	}
	width++
	height := len(rows) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}
	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}
	// Shadow first, face on top.
	for pass, style := range []lipgloss.Style{logoShadowStyle, logoFaceStyle} {
		offset := 1 - pass
		for y, runes := range rows {
			for x, r := range runes {
				if r == ' ' {
					continue
				}
				grid[y+offset][x+offset] = cell{r: r, style: style}
			}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}

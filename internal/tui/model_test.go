package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/scenescanner/internal/api"
	"github.com/csheth/scenescanner/internal/session"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModelStartsWithPathInputFocused(t *testing.T) {
	m := newTestModel(t, Config{})
	if m.focus != focusPath || !m.pathInput.Focused() {
		t.Fatalf("path input should start focused (focus=%v)", m.focus)
	}
	if m.questionInput.Focused() {
		t.Fatal("question input should start blurred")
	}
}

func TestFileOpenedSelectsPDF(t *testing.T) {
	m := newTestModel(t, Config{Client: &fakeClient{}})
	m.Update(fileOpenedMsg{path: "paper.pdf", doc: samplePDF()})

	snap := m.state.Snapshot()
	if snap.File == nil || snap.File.Name != "paper.pdf" {
		t.Fatalf("file not selected: %+v", snap.File)
	}
	if snap.UploadStatus != session.UploadNone {
		t.Fatalf("selection must not upload, got %v", snap.UploadStatus)
	}
	if !strings.Contains(m.infoMessage, "Press u") {
		t.Fatalf("unexpected info message %q", m.infoMessage)
	}
}

func TestFileOpenedRejectsNonPDF(t *testing.T) {
	m := newTestModel(t, Config{Client: &fakeClient{}})
	m.Update(fileOpenedMsg{path: "paper.pdf", doc: samplePDF()})
	m.Update(fileOpenedMsg{path: "notes.txt", doc: textDocument()})

	snap := m.state.Snapshot()
	if snap.File != nil {
		t.Fatal("non-PDF should clear the selection")
	}
	if snap.Error != session.MsgOnlyPDF {
		t.Fatalf("unexpected error %q", snap.Error)
	}
	if m.focus != focusPath {
		t.Fatalf("path input should regain focus, got %v", m.focus)
	}
	if !strings.Contains(m.View(), session.MsgOnlyPDF) {
		t.Fatal("view should surface the validation error")
	}
}

func TestTabCyclesModel(t *testing.T) {
	m := newTestModel(t, Config{})
	m.blurInputs()

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.state.Snapshot().Model; got != session.ModelOllama {
		t.Fatalf("expected ollama, got %s", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.state.Snapshot().Model; got != session.ModelOpenAI {
		t.Fatalf("expected openai, got %s", got)
	}
}

func TestUploadKeyWithoutFileIsNoop(t *testing.T) {
	m := newTestModel(t, Config{Client: &fakeClient{}})
	m.blurInputs()

	if _, cmd := m.Update(runeKey('u')); cmd != nil {
		t.Fatalf("upload without a file should not start a job, got %T", cmd)
	}
	if m.state.Snapshot().UploadStatus != session.UploadNone {
		t.Fatal("upload status should stay none")
	}
}

func TestAskBeforeUploadShowsMessage(t *testing.T) {
	m := newTestModel(t, Config{Client: &fakeClient{answer: "unused"}})
	m.Update(fileOpenedMsg{path: "paper.pdf", doc: samplePDF()})
	m.focusInput(focusQuestion)
	m.questionInput.SetValue("What is the main result?")

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd == nil {
		t.Fatal("submitting a question should start a job")
	}
	if len(m.history) != 1 || !m.history[0].Pending {
		t.Fatalf("expected one pending exchange, got %+v", m.history)
	}

	msg, _ := askJob(m.history[0].ID, m.state)(context.Background())
	m.Update(msg)

	if m.history[0].Error != session.MsgUploadFirst {
		t.Fatalf("unexpected history error %q", m.history[0].Error)
	}
	if got := m.state.Snapshot().Error; got != session.MsgUploadFirst {
		t.Fatalf("unexpected session error %q", got)
	}
}

func TestAskResultFillsHistoryAndQueuesTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	m := newTestModel(t, Config{Client: &fakeClient{answer: "The answer is 42."}, TranscriptPath: path})
	m.Update(fileOpenedMsg{path: "paper.pdf", doc: samplePDF()})
	if err := m.state.Upload(context.Background()); err != nil {
		t.Fatalf("upload: %v", err)
	}
	m.focusInput(focusQuestion)
	m.questionInput.SetValue("What is the answer?")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	msg, err := askJob(m.history[0].ID, m.state)(context.Background())
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("completed exchange should be written to the transcript")
	}
	entry := m.history[0]
	if entry.Pending || entry.Answer != "The answer is 42." {
		t.Fatalf("history not updated: %+v", entry)
	}
	if !strings.Contains(m.View(), "The answer is 42.") {
		t.Fatal("answer should be rendered")
	}
}

func TestAskTransportFailureIsVisible(t *testing.T) {
	client := &fakeClient{askErr: &api.TransportError{Op: "ask", Err: errors.New("connection refused")}}
	m := newTestModel(t, Config{Client: client})
	m.Update(fileOpenedMsg{path: "paper.pdf", doc: samplePDF()})
	if err := m.state.Upload(context.Background()); err != nil {
		t.Fatalf("upload: %v", err)
	}
	m.focusInput(focusQuestion)
	m.questionInput.SetValue("hi")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	msg, _ := askJob(m.history[0].ID, m.state)(context.Background())
	m.Update(msg)

	want := "Backend unreachable: connection refused"
	if got := m.history[0].Error; got != want {
		t.Fatalf("history error mismatch: got %q want %q", got, want)
	}
	if m.backend != backendUnreachable {
		t.Fatalf("backend should be marked unreachable, got %v", m.backend)
	}
	if history := m.buildHistoryContent(); strings.Contains(history, "No answer recorded.") || !strings.Contains(history, "connection refused") {
		t.Fatalf("history should show the failure, got %q", history)
	}
	if !strings.Contains(m.View(), want) {
		t.Fatal("view should surface the transport failure")
	}
}

func TestStaleAskResultIsIgnoredAfterFileChange(t *testing.T) {
	m := newTestModel(t, Config{Client: &fakeClient{}, TranscriptPath: filepath.Join(t.TempDir(), "t.json")})
	m.Update(fileOpenedMsg{path: "first.pdf", doc: samplePDF()})
	m.focusInput(focusQuestion)
	m.questionInput.SetValue("old question")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	staleID := m.history[0].ID

	m.Update(fileOpenedMsg{path: "second.pdf", doc: samplePDF()})
	m.focusInput(focusQuestion)
	m.questionInput.SetValue("new question")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.history) != 1 || m.history[0].ID == staleID {
		t.Fatalf("expected a fresh exchange, got %+v", m.history)
	}

	if _, cmd := m.Update(askResultMsg{id: staleID}); cmd != nil {
		t.Fatalf("stale result should not queue work, got %T", cmd)
	}
	entry := m.history[0]
	if !entry.Pending || entry.Answer != "" || entry.Error != "" {
		t.Fatalf("stale result leaked into the new exchange: %+v", entry)
	}
	if strings.Contains(m.infoMessage, "Answer ready") {
		t.Fatalf("stale result should not report an answer: %q", m.infoMessage)
	}
}

func TestJobResultEnvelopeDispatchesPayload(t *testing.T) {
	m := newTestModel(t, Config{Client: &fakeClient{}})
	snapshot := jobSnapshot{ID: "ping-1", Kind: jobKindPing, Status: jobStatusSucceeded}
	m.Update(jobResultEnvelope{Snapshot: snapshot, Payload: pingResultMsg{message: "pong"}})

	if m.backend != backendReachable {
		t.Fatalf("backend should be reachable, got %v", m.backend)
	}
	if got := m.jobStatus["ping-1"].Status; got != jobStatusSucceeded {
		t.Fatalf("job status not recorded: %v", got)
	}
}

func TestEscLeavesPathInput(t *testing.T) {
	m := newTestModel(t, Config{})
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd != nil {
		t.Fatalf("esc inside an input should not quit, got %T", cmd)
	}
	if m.focus != focusNone || m.pathInput.Focused() {
		t.Fatal("path input should blur on esc")
	}
}

func TestNavigationCheatsheetToggle(t *testing.T) {
	m := newTestModel(t, Config{})
	m.blurInputs()

	m.Update(runeKey('?'))
	if !m.helpVisible {
		t.Fatal("help should be visible after ?")
	}
	if !strings.Contains(m.View(), "Key Cheatsheet") {
		t.Fatal("cheatsheet should render when help is visible")
	}
	m.Update(runeKey('?'))
	if m.helpVisible {
		t.Fatal("help should hide on second ?")
	}
}

func TestViewRendersModelSelector(t *testing.T) {
	m := newTestModel(t, Config{})
	view := m.View()
	for _, want := range []string{"File Selected", "Ready to Ask", "GPT-4", "Qwen2.5"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/scenescanner/internal/api"
	"github.com/csheth/scenescanner/internal/document"
	"github.com/csheth/scenescanner/internal/session"
	"github.com/csheth/scenescanner/internal/transcript"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Session        *session.State
	Client         api.Client
	TranscriptPath string
	InitialPath    string
	Context        context.Context
	Logger         *zap.Logger
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Session == nil {
		config.Session = session.New(config.Client, config.Logger)
	}

	pathInput := textinput.New()
	pathInput.Placeholder = pathPlaceholder
	pathInput.CharLimit = 1024
	pathInput.Width = 70
	pathInput.Focus()
	if config.InitialPath != "" {
		pathInput.SetValue(config.InitialPath)
	}

	questionInput := textinput.New()
	questionInput.Placeholder = questionPlaceholder
	questionInput.CharLimit = 500
	questionInput.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	layout := newPageLayout()
	vp := viewport.New(layout.viewportWidth, layout.viewportHeight)
	vp.MouseWheelEnabled = true

	return &model{
		config:        config,
		state:         config.Session,
		jobs:          newJobBus(config.Context, config.Logger),
		focus:         focusPath,
		pathInput:     pathInput,
		questionInput: questionInput,
		spinner:       spin,
		viewport:      vp,
		layout:        layout,
		jobStatus:     map[string]jobSnapshot{},
		historyDirty:  true,
		infoMessage:   "Enter the path of a PDF document to begin.",
	}
}

type model struct {
	config Config
	state  *session.State
	jobs   *jobBus

	focus         focusArea
	pathInput     textinput.Model
	questionInput textinput.Model
	spinner       spinner.Model
	viewport      viewport.Model
	layout        pageLayout

	preview        document.Preview
	previewErr     string
	history        []qaExchange
	nextExchange   int
	historyDirty   bool
	jobStatus      map[string]jobSnapshot
	backend        backendState
	backendMessage string
	infoMessage    string
	notice         string
	helpVisible    bool
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.config.Client != nil {
		cmds = append(cmds, m.jobs.Start(jobKindPing, pingJob(m.config.Client)))
	}
	if path := strings.TrimSpace(m.config.InitialPath); path != "" {
		cmds = append(cmds, m.openFile(path))
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.pathInput.Width = m.layout.inputWidth
		m.questionInput.Width = m.layout.inputWidth
		m.markHistoryDirty()
		return m, nil
	case jobSignalMsg:
		m.jobStatus[msg.Snapshot.ID] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		m.jobStatus[msg.Snapshot.ID] = msg.Snapshot
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case pingResultMsg:
		if msg.err != nil {
			m.backend = backendUnreachable
			m.backendMessage = msg.err.Error()
		} else {
			m.backend = backendReachable
			m.backendMessage = msg.message
		}
		return m, nil
	case fileOpenedMsg:
		return m, m.handleFileOpened(msg)
	case uploadResultMsg:
		return m, m.handleUploadResult(msg)
	case askResultMsg:
		return m, m.handleAskResult(msg)
	case transcriptSavedMsg:
		if msg.err != nil {
			m.infoMessage = fmt.Sprintf("Transcript not saved: %v", msg.err)
		}
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusPath:
		return m.handlePathKey(key)
	case focusQuestion:
		return m.handleQuestionKey(key)
	default:
		return m.handleNavigationKey(key)
	}
}

func (m *model) handlePathKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.blurInputs()
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			m.notice = "Enter the path of a PDF document."
			return m, nil
		}
		m.blurInputs()
		return m, m.openFile(path)
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(key)
	return m, cmd
}

func (m *model) handleQuestionKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.blurInputs()
		return m, nil
	case tea.KeyEnter:
		return m, m.submitQuestion()
	}
	var cmd tea.Cmd
	m.questionInput, cmd = m.questionInput.Update(key)
	return m, cmd
}

func (m *model) handleNavigationKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		return m, tea.Quit
	case "o", "f":
		m.focusInput(focusPath)
		return m, textinput.Blink
	case "q", "enter":
		m.focusInput(focusQuestion)
		return m, textinput.Blink
	case "u":
		return m, m.startUpload()
	case "tab":
		m.cycleModel()
		return m, nil
	case "p":
		if m.config.Client == nil {
			return m, nil
		}
		m.backend = backendUnknown
		return m, m.jobs.Start(jobKindPing, pingJob(m.config.Client))
	case "?":
		m.helpVisible = !m.helpVisible
		return m, nil
	case "g":
		m.viewport.GotoTop()
		return m, nil
	case "G":
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) focusInput(area focusArea) {
	m.focus = area
	switch area {
	case focusPath:
		m.questionInput.Blur()
		m.pathInput.Focus()
	case focusQuestion:
		m.pathInput.Blur()
		m.questionInput.Focus()
	}
}

func (m *model) blurInputs() {
	m.focus = focusNone
	m.pathInput.Blur()
	m.questionInput.Blur()
}

func (m *model) openFile(path string) tea.Cmd {
	m.notice = ""
	m.infoMessage = fmt.Sprintf("Opening %s…", path)
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindOpen, openFileJob(path)))
}

func (m *model) handleFileOpened(msg fileOpenedMsg) tea.Cmd {
	if msg.err != nil {
		m.notice = msg.err.Error()
		m.infoMessage = "Press o to choose another file."
		return nil
	}
	m.notice = ""
	m.preview = document.Preview{}
	m.previewErr = ""
	if err := m.state.SelectFile(msg.doc); err != nil {
		m.infoMessage = "Press o to choose a .pdf file."
		m.focusInput(focusPath)
		return nil
	}
	m.preview = msg.preview
	if msg.previewErr != nil {
		m.previewErr = msg.previewErr.Error()
	}
	m.history = nil
	m.markHistoryDirty()
	m.blurInputs()
	m.pathInput.SetValue("")
	m.questionInput.SetValue("")
	m.infoMessage = fmt.Sprintf("Selected %s. Press u to upload.", msg.doc.Name)
	return nil
}

func (m *model) startUpload() tea.Cmd {
	snap := m.state.Snapshot()
	if snap.File == nil {
		m.infoMessage = "Select a PDF first (press o)."
		return nil
	}
	if snap.UploadStatus == session.UploadInProgress {
		m.infoMessage = "Upload already running."
		return nil
	}
	m.notice = ""
	m.infoMessage = fmt.Sprintf("Uploading %s with %s…", snap.File.Name, snap.Model.DisplayName())
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindUpload, uploadJob(m.state, snap.File.Name)))
}

func (m *model) handleUploadResult(msg uploadResultMsg) tea.Cmd {
	switch {
	case msg.err == nil:
		if m.state.Snapshot().UploadStatus == session.UploadDone {
			m.infoMessage = fmt.Sprintf("Uploaded %s. Press q to ask a question.", msg.name)
		}
	case errors.Is(msg.err, session.ErrUploadInFlight):
		m.infoMessage = "Upload already running."
	case errors.Is(msg.err, session.ErrFileReplaced):
		// Superseded by a newer selection.
	case api.IsTransport(msg.err):
		m.markBackendDown(msg.err)
		m.infoMessage = "Upload failed. Press u to retry."
	default:
		m.infoMessage = "Upload failed. Press u to retry."
	}
	return nil
}

func (m *model) submitQuestion() tea.Cmd {
	value := strings.TrimSpace(m.questionInput.Value())
	if value == "" {
		m.infoMessage = "Type a question or press Esc to cancel."
		return nil
	}
	snap := m.state.Snapshot()
	if snap.AskStatus == session.AskInProgress {
		m.infoMessage = "A question is already running."
		return nil
	}
	m.state.SetQuestion(value)
	m.questionInput.SetValue("")
	m.blurInputs()
	m.notice = ""
	m.nextExchange++
	id := m.nextExchange
	m.history = append(m.history, qaExchange{
		ID:       id,
		Question: value,
		Model:    snap.Model.DisplayName(),
		Pending:  true,
		AskedAt:  time.Now(),
	})
	m.markHistoryDirty()
	m.infoMessage = fmt.Sprintf("Asking %s…", snap.Model.DisplayName())
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindAsk, askJob(id, m.state)))
}

func (m *model) exchangeByID(id int) *qaExchange {
	for i := range m.history {
		if m.history[i].ID == id {
			return &m.history[i]
		}
	}
	return nil
}

func (m *model) handleAskResult(msg askResultMsg) tea.Cmd {
	entry := m.exchangeByID(msg.id)
	if entry == nil {
		// The exchange belonged to a file that has since been replaced.
		return nil
	}
	snap := m.state.Snapshot()
	entry.Pending = false
	m.markHistoryDirty()

	switch {
	case msg.err == nil:
		entry.Answer = snap.Answer
		m.infoMessage = "Answer ready. Press q to ask another question."
	case errors.Is(msg.err, session.ErrNotUploaded):
		entry.Error = session.MsgUploadFirst
		m.infoMessage = "Press u to upload the selected PDF."
		return nil
	case errors.Is(msg.err, session.ErrAskInFlight):
		entry.Error = "Another question was still running."
		return nil
	case errors.Is(msg.err, session.ErrFileReplaced):
		entry.Error = "Dropped: a different file was selected."
		return nil
	default:
		entry.Error = askFailureText(snap.Error, msg.err)
		if snap.Error == "" {
			m.notice = entry.Error
		}
		if api.IsTransport(msg.err) {
			m.markBackendDown(msg.err)
		}
		m.infoMessage = "Question failed. Press q to retry."
	}

	if m.config.TranscriptPath == "" {
		return nil
	}
	exchange := transcript.Exchange{
		Model:     string(snap.Model),
		SessionID: snap.SessionID,
		Question:  entry.Question,
		Answer:    entry.Answer,
		Error:     entry.Error,
		AskedAt:   entry.AskedAt,
	}
	if snap.File != nil {
		exchange.Document = snap.File.Name
	}
	return m.jobs.Start(jobKindTranscript, saveTranscriptJob(m.config.TranscriptPath, exchange))
}

// askFailureText prefers the server message and falls back to the Go error,
// so every failed question shows some text.
func askFailureText(serverMessage string, err error) string {
	if serverMessage != "" {
		return serverMessage
	}
	var transportErr *api.TransportError
	if errors.As(err, &transportErr) {
		return fmt.Sprintf("Backend unreachable: %v", transportErr.Err)
	}
	return err.Error()
}

func (m *model) markBackendDown(err error) {
	m.backend = backendUnreachable
	m.backendMessage = err.Error()
}

func (m *model) cycleModel() {
	next := m.state.Snapshot().Model.Next()
	if err := m.state.SetModel(next); err != nil {
		m.notice = err.Error()
		return
	}
	m.infoMessage = fmt.Sprintf("Model set to %s.", next.DisplayName())
}

func (m *model) busy() bool {
	return m.state.Snapshot().Busy() || len(runningJobs(m.jobStatus)) > 0
}

func (m *model) markHistoryDirty() {
	m.historyDirty = true
}

package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/csheth/scenescanner/internal/api"
	"github.com/csheth/scenescanner/internal/document"
)

// User-visible messages for the locally detected failure kinds.
const (
	MsgOnlyPDF      = "Only PDF files are allowed."
	MsgUploadFailed = "Error uploading file. Please try again."
	MsgUploadFirst  = "Please upload a PDF file first."
)

var (
	// ErrInvalidFile is returned when the selected file is not a PDF.
	ErrInvalidFile = errors.New("only PDF files are allowed")
	// ErrNotUploaded is returned by Ask before a successful upload.
	ErrNotUploaded = errors.New("no uploaded document")
	// ErrUploadInFlight rejects an upload while another one is running.
	ErrUploadInFlight = errors.New("upload already in progress")
	// ErrAskInFlight rejects a question while another one is running.
	ErrAskInFlight = errors.New("question already in progress")
	// ErrFileReplaced reports a result dropped because another file was
	// selected while the request was running.
	ErrFileReplaced = errors.New("file replaced while the request was running")
)

// State owns the client-side session record. It is safe for concurrent use;
// network calls run outside the lock.
type State struct {
	client api.Client
	log    *zap.Logger

	mu           sync.Mutex
	file         *document.Document
	fileGen      uint64
	model        Model
	uploadStatus UploadStatus
	askStatus    AskStatus
	uploading    bool
	asking       bool
	question     string
	answer       string
	errMsg       string
	sessionID    string
}

// New returns a session with every field at its default.
func New(client api.Client, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{
		client: client,
		log:    logger.Named("session"),
		model:  DefaultModel,
	}
}

// Snapshot returns a copy of the record.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Model:        s.model,
		UploadStatus: s.uploadStatus,
		AskStatus:    s.askStatus,
		Question:     s.question,
		Answer:       s.answer,
		Error:        s.errMsg,
		SessionID:    s.sessionID,
	}
	if s.file != nil {
		file := *s.file
		snap.File = &file
	}
	return snap
}

// SelectFile validates doc and, when it is a PDF, makes it the current file.
// Selection never touches the network.
func (s *State) SelectFile(doc document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fileGen++
	s.uploadStatus = UploadNone
	if !document.IsPDF(doc) {
		s.file = nil
		s.errMsg = MsgOnlyPDF
		s.log.Debug("rejected file", zap.String("name", doc.Name), zap.String("content_type", doc.ContentType))
		return ErrInvalidFile
	}
	s.file = &doc
	s.askStatus = AskIdle
	s.answer = ""
	s.question = ""
	s.errMsg = ""
	s.log.Debug("selected file", zap.String("name", doc.Name), zap.Int("bytes", doc.Size()))
	return nil
}

// SetModel changes the engine used by subsequent calls.
func (s *State) SetModel(model Model) error {
	if model.DisplayName() == "" {
		return ErrUnknownModel
	}
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
	return nil
}

// SetQuestion stores the pending question text.
func (s *State) SetQuestion(text string) {
	s.mu.Lock()
	s.question = text
	s.mu.Unlock()
}

// Upload sends the selected file to the backend. It is a no-op when no file
// is selected. Failures are recorded on the session and also returned.
func (s *State) Upload(ctx context.Context) error {
	s.mu.Lock()
	if s.file == nil {
		s.mu.Unlock()
		return nil
	}
	if s.uploading {
		s.mu.Unlock()
		return ErrUploadInFlight
	}
	s.uploadStatus = UploadInProgress
	s.errMsg = ""
	doc := *s.file
	if !document.IsPDF(doc) {
		s.file = nil
		s.errMsg = MsgOnlyPDF
		s.uploadStatus = UploadNone
		s.mu.Unlock()
		return ErrInvalidFile
	}
	s.uploading = true
	gen := s.fileGen
	model := s.model
	s.mu.Unlock()

	s.log.Debug("upload started", zap.String("name", doc.Name), zap.String("model", model.String()))
	result, err := s.client.Upload(ctx, doc, model.String())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploading = false
	if gen != s.fileGen {
		s.log.Debug("discarding upload result for replaced file", zap.String("name", doc.Name), zap.Error(err))
		return ErrFileReplaced
	}
	if err != nil {
		s.uploadStatus = UploadFailed
		s.errMsg = api.MessageOf(err)
		if s.errMsg == "" {
			s.errMsg = MsgUploadFailed
		}
		s.log.Debug("upload failed", zap.Error(err))
		return err
	}
	s.uploadStatus = UploadDone
	if result.SessionID != "" {
		s.sessionID = result.SessionID
	}
	s.log.Debug("upload finished", zap.String("session_id", result.SessionID))
	return nil
}

// Ask submits the pending question. It is a no-op when the question is empty
// and is rejected locally until an upload has succeeded.
func (s *State) Ask(ctx context.Context) error {
	s.mu.Lock()
	if s.question == "" {
		s.mu.Unlock()
		return nil
	}
	if s.asking {
		s.mu.Unlock()
		return ErrAskInFlight
	}
	s.askStatus = AskInProgress
	s.errMsg = ""
	s.answer = ""
	if s.uploadStatus != UploadDone {
		s.errMsg = MsgUploadFirst
		s.askStatus = AskIdle
		s.mu.Unlock()
		return ErrNotUploaded
	}
	s.asking = true
	gen := s.fileGen
	question := s.question
	model := s.model
	s.mu.Unlock()

	s.log.Debug("ask started", zap.String("model", model.String()))
	result, err := s.client.Ask(ctx, question, model.String())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.asking = false
	if gen != s.fileGen {
		if s.askStatus == AskInProgress {
			s.askStatus = AskIdle
		}
		s.log.Debug("discarding answer for replaced file", zap.Error(err))
		return ErrFileReplaced
	}
	if err != nil {
		s.askStatus = AskFailed
		// Left empty when the backend supplied no message.
		s.errMsg = api.MessageOf(err)
		s.log.Debug("ask failed", zap.Error(err))
		return err
	}
	s.answer = result.Answer
	s.askStatus = AskDone
	if result.SessionID != "" {
		s.sessionID = result.SessionID
	}
	return nil
}

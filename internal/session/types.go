package session

import "github.com/csheth/scenescanner/internal/document"

// UploadStatus tracks the lifecycle of one file's upload.
type UploadStatus int

const (
	UploadNone UploadStatus = iota
	UploadInProgress
	UploadDone
	UploadFailed
)

func (s UploadStatus) String() string {
	switch s {
	case UploadInProgress:
		return "in-progress"
	case UploadDone:
		return "done"
	case UploadFailed:
		return "failed"
	default:
		return "none"
	}
}

// AskStatus tracks the lifecycle of the latest question.
type AskStatus int

const (
	AskIdle AskStatus = iota
	AskInProgress
	AskDone
	AskFailed
)

func (s AskStatus) String() string {
	switch s {
	case AskInProgress:
		return "in-progress"
	case AskDone:
		return "done"
	case AskFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is an immutable copy of the session record.
type Snapshot struct {
	File         *document.Document
	Model        Model
	UploadStatus UploadStatus
	AskStatus    AskStatus
	Question     string
	Answer       string
	Error        string
	SessionID    string
}

// ReadyToAsk reports whether a question would reach the backend.
func (s Snapshot) ReadyToAsk() bool {
	return s.UploadStatus == UploadDone
}

// Busy reports whether either network operation is running.
func (s Snapshot) Busy() bool {
	return s.UploadStatus == UploadInProgress || s.AskStatus == AskInProgress
}

package tui

import "time"

type focusArea int

const (
	focusNone focusArea = iota
	focusPath
	focusQuestion
)

const heroTagline = "Upload a PDF and ask it anything."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	snippetPreviewLimit       = 160
	backendMessageLimit       = 40
)

const (
	pathPlaceholder     = "Path to a PDF document…"
	questionPlaceholder = "Ask a question about the uploaded PDF…"
)

type qaExchange struct {
	ID       int
	Question string
	Answer   string
	Error    string
	Model    string
	Pending  bool
	AskedAt  time.Time
}

type backendState int

const (
	backendUnknown backendState = iota
	backendReachable
	backendUnreachable
)

package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/scenescanner/internal/api"
	"github.com/csheth/scenescanner/internal/document"
	"github.com/csheth/scenescanner/internal/session"
	"github.com/csheth/scenescanner/internal/transcript"
)

type pingResultMsg struct {
	message string
	err     error
}

type fileOpenedMsg struct {
	path       string
	doc        document.Document
	preview    document.Preview
	previewErr error
	err        error
}

type uploadResultMsg struct {
	name string
	err  error
}

type askResultMsg struct {
	id  int
	err error
}

type transcriptSavedMsg struct {
	err error
}

func pingJob(client api.Client) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		message, err := client.Ping(ctx)
		return pingResultMsg{message: message, err: err}, err
	}
}

func openFileJob(path string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		doc, err := document.Load(path)
		if err != nil {
			return fileOpenedMsg{path: path, err: err}, err
		}
		msg := fileOpenedMsg{path: path, doc: doc}
		if document.IsPDF(doc) {
			msg.preview, msg.previewErr = document.Inspect(doc)
		}
		return msg, nil
	}
}

func uploadJob(state *session.State, name string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		err := state.Upload(ctx)
		if errors.Is(err, session.ErrFileReplaced) {
			return uploadResultMsg{name: name, err: err}, nil
		}
		return uploadResultMsg{name: name, err: err}, err
	}
}

func askJob(id int, state *session.State) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		err := state.Ask(ctx)
		if errors.Is(err, session.ErrNotUploaded) || errors.Is(err, session.ErrFileReplaced) {
			// Rejected locally or superseded; not a job failure.
			return askResultMsg{id: id, err: err}, nil
		}
		return askResultMsg{id: id, err: err}, err
	}
}

func saveTranscriptJob(path string, exchange transcript.Exchange) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		err := transcript.Append(path, exchange)
		return transcriptSavedMsg{err: err}, err
	}
}

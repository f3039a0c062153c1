package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "transcript.json")
	first := Exchange{Document: "report.pdf", Model: "openai", Question: "What is it?", Answer: "A report.", AskedAt: time.Now().UTC()}
	second := Exchange{Document: "other.pdf", Model: "ollama", Question: "Why?", Error: "No uploaded file for this session", AskedAt: time.Now().UTC()}

	if err := Append(path, first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := Append(path, second); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(got))
	}
	if got[0].Answer != first.Answer || got[1].Error != second.Error {
		t.Fatalf("unexpected exchanges: %#v", got)
	}
}

func TestAppendWithoutPathIsNoop(t *testing.T) {
	t.Parallel()

	if err := Append("", Exchange{Question: "q"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty transcript, got %#v (%v)", got, err)
	}
}

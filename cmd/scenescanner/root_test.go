package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/scenescanner/internal/transcript"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, key := range []string{"API_URL", "MODEL", "LOG_FILE", "LOG_LEVEL", "TRANSCRIPT", "NO_ALT_SCREEN"} {
		t.Setenv("SCENESCANNER_"+key, "")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func qaBackend(t *testing.T, uploadStatus int, uploadBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "ollama" {
			t.Errorf("unexpected model %q", got)
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(uploadStatus)
		_, _ = w.Write([]byte(uploadBody))
	})
	mux.HandleFunc("/ask", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("session"); err != nil {
			t.Errorf("ask should carry the upload cookie: %v", err)
		}
		var payload struct {
			Prompt string `json:"prompt"`
			Model  string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode ask: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"It studies ` + payload.Prompt + `","session_id":"sess-9"}`))
	})
	mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Backend is running"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAskCommandPrintsAnswer(t *testing.T) {
	dir := isolate(t)
	srv := qaBackend(t, http.StatusOK, `{"message":"File uploaded successfully","session_id":"sess-9"}`)
	pdf := writeFixture(t, dir, "paper.pdf", []byte("%PDF-1.4\n%fixture\n"))
	log := filepath.Join(dir, "transcript.json")

	out, err := execute(t, "ask",
		"--api-url", srv.URL,
		"--model", "ollama",
		"--transcript", log,
		"--file", pdf,
		"--question", "attention",
	)
	require.NoError(t, err)
	assert.Equal(t, "It studies attention\n", out)

	exchanges, err := transcript.Load(log)
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, "paper.pdf", exchanges[0].Document)
	assert.Equal(t, "ollama", exchanges[0].Model)
	assert.Equal(t, "sess-9", exchanges[0].SessionID)
}

func TestAskCommandReportsUploadError(t *testing.T) {
	dir := isolate(t)
	srv := qaBackend(t, http.StatusInternalServerError, `{"error":"Vector store unavailable"}`)
	pdf := writeFixture(t, dir, "paper.pdf", []byte("%PDF-1.4\n"))

	_, err := execute(t, "ask", "--api-url", srv.URL, "--model", "ollama", "-f", pdf, "-q", "why?")
	require.Error(t, err)
	assert.Equal(t, "Vector store unavailable", err.Error())
}

func TestAskCommandRejectsNonPDF(t *testing.T) {
	dir := isolate(t)
	notes := writeFixture(t, dir, "notes.txt", []byte("plain text"))

	_, err := execute(t, "ask", "--api-url", "http://127.0.0.1:1", "-f", notes, "-q", "why?")
	require.Error(t, err)
	assert.Equal(t, "Only PDF files are allowed.", err.Error())
}

func TestModelsCommandMarksSelection(t *testing.T) {
	isolate(t)

	out, err := execute(t, "models", "--model", "ollama")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "openai")
	assert.Contains(t, lines[0], "GPT-4")
	assert.True(t, strings.HasPrefix(lines[1], "* ollama"), "selected model should be marked: %q", lines[1])
	assert.Contains(t, lines[1], "Qwen2.5")
}

func TestPingCommand(t *testing.T) {
	isolate(t)
	srv := qaBackend(t, http.StatusOK, `{}`)

	out, err := execute(t, "ping", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+": Backend is running\n", out)
}

func TestRootRejectsUnknownModel(t *testing.T) {
	isolate(t)

	_, err := execute(t, "models", "--model", "gpt-5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

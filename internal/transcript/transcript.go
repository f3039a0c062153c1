package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Exchange records one question and what came back for it.
type Exchange struct {
	Document  string    `json:"document"`
	Model     string    `json:"model"`
	SessionID string    `json:"sessionId,omitempty"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer,omitempty"`
	Error     string    `json:"error,omitempty"`
	AskedAt   time.Time `json:"askedAt"`
}

// Append adds exchanges to the transcript file, creating it if necessary.
func Append(path string, exchanges ...Exchange) error {
	if path == "" || len(exchanges) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	existing, err := Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	existing = append(existing, exchanges...)
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// Load returns every stored exchange.
func Load(path string) ([]Exchange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var exchanges []Exchange
	if err := json.Unmarshal(data, &exchanges); err != nil {
		return nil, err
	}
	return exchanges, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

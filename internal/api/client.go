package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/csheth/scenescanner/internal/document"
)

// DefaultBaseURL matches the development backend's listen address.
const DefaultBaseURL = "http://localhost:5001"

// Config describes how to build a backend client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// UploadResult is the decoded success payload of POST /upload.
type UploadResult struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// AskResult is the decoded success payload of POST /ask.
type AskResult struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

// Client exposes the two document Q&A calls plus a reachability probe.
type Client interface {
	Upload(ctx context.Context, doc document.Document, model string) (UploadResult, error)
	Ask(ctx context.Context, question, model string) (AskResult, error)
	Ping(ctx context.Context) (string, error)
	BaseURL() string
}

// New builds an HTTP client whose calls share one cookie jar, so the backend
// can bind uploads and questions to the same session.
func New(cfg Config) (Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", base)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: missing host", base)
	}
	client, err := pickHTTPClient(cfg.HTTPClient)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &httpClient{
		base:   base,
		client: client,
		log:    logger.Named("api"),
	}, nil
}

func pickHTTPClient(custom *http.Client) (*http.Client, error) {
	var client http.Client
	if custom != nil {
		client = *custom
	}
	if client.Jar != nil {
		return &client, nil
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	// No Timeout: calls are bounded only by the caller's context.
	client.Jar = jar
	return &client, nil
}

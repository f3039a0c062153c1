package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/csheth/scenescanner/internal/document"
)

const (
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type httpClient struct {
	base   string
	client *http.Client
	log    *zap.Logger
}

func (c *httpClient) BaseURL() string {
	return c.base
}

func (c *httpClient) Upload(ctx context.Context, doc document.Document, model string) (UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(doc.Name)))
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := part.Write(doc.Data); err != nil {
		return UploadResult{}, err
	}
	if err := writer.WriteField("model", model); err != nil {
		return UploadResult{}, err
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, err
	}

	var result UploadResult
	if err := c.do(ctx, "upload", http.MethodPost, "/upload", writer.FormDataContentType(), &body, &result); err != nil {
		return UploadResult{}, err
	}
	return result, nil
}

func (c *httpClient) Ask(ctx context.Context, question, model string) (AskResult, error) {
	payload := map[string]string{
		"prompt": question,
		"model":  model,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return AskResult{}, err
	}

	var result AskResult
	if err := c.do(ctx, "ask", http.MethodPost, "/ask", "application/json", bytes.NewReader(buf), &result); err != nil {
		return AskResult{}, err
	}
	return result, nil
}

func (c *httpClient) Ping(ctx context.Context) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, "ping", http.MethodGet, "/test", "", nil, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

func (c *httpClient) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	log := c.log.With(zap.String("op", op), zap.String("request_id", requestID))
	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Duration("duration", time.Since(started)), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	log.Info("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ServerError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    errorMessage(raw),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage reads the backend error payload. The backend reports failures
// under "error"; "message" is accepted as a fallback.
func errorMessage(raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Message)
}

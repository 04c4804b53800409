// Package uploader implements the upload-service contract over HTTP
// multipart/form-data.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"satchel/internal/composer"
	"satchel/internal/observability"
)

// defaultBodyLimit caps upload response bodies. Upload results are small
// JSON records; anything larger is a misbehaving server.
const defaultBodyLimit int64 = 1 << 20

// Client posts files to the upload endpoint and decodes the result record.
// It implements composer.Uploader.
type Client struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
	bodyLimit  int64
	logger     *observability.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests, custom timeouts).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthToken sets a bearer token sent with every upload.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithBodyLimit overrides the response body cap; 0 means unlimited.
func WithBodyLimit(limit int64) Option {
	return func(c *Client) { c.bodyLimit = limit }
}

func New(endpoint string, logger *observability.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		bodyLimit:  defaultBodyLimit,
		logger:     logger.With("component", "Uploader"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload posts one file with its metadata fields. An empty or null response
// body yields (nil, nil): the server accepted the request but returned
// nothing usable, which the caller treats as a failed upload.
func (c *Client) Upload(ctx context.Context, file composer.RawFile, meta composer.Metadata) (*composer.UploadResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if file.Content != nil {
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, fmt.Errorf("read file content: %w", err)
		}
	}
	for key, value := range meta {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write metadata field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", file.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := readAllWithLimit(resp.Body, c.bodyLimit)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upload %s: server returned %d: %s", file.Name, resp.StatusCode, truncateForError(data))
	}

	c.logger.Debug("upload response received", "file", file.Name,
		"status", resp.StatusCode, "bytes", len(data), "elapsed", time.Since(start))

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return nil, nil
	}

	var result composer.UploadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &result, nil
}

// readAllWithLimit reads the body up to limit bytes; limit <= 0 reads all.
func readAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response body exceeded limit of %d bytes", limit)
	}
	return data, nil
}

func truncateForError(data []byte) string {
	const max = 256
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

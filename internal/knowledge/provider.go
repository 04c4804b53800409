// Package knowledge fetches the list of server-side knowledge bases the user
// may reference from their selection.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"satchel/internal/observability"
)

// KnowledgeBase is one previously indexed, server-side document collection.
type KnowledgeBase struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	DocumentCount int       `json:"document_count,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Provider lists the knowledge bases available to the current user.
type Provider interface {
	ListKnowledgeBases(ctx context.Context) ([]KnowledgeBase, error)
}

// HTTPProvider fetches the list from a JSON endpoint.
type HTTPProvider struct {
	endpoint   string
	httpClient *http.Client
	logger     *observability.Logger
}

func NewHTTPProvider(endpoint string, logger *observability.Logger) *HTTPProvider {
	return &HTTPProvider{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "KnowledgeProvider"),
	}
}

func (p *HTTPProvider) ListKnowledgeBases(ctx context.Context) ([]KnowledgeBase, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build knowledge list request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list knowledge bases: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list knowledge bases: server returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read knowledge list: %w", err)
	}

	var bases []KnowledgeBase
	if err := json.Unmarshal(data, &bases); err != nil {
		return nil, fmt.Errorf("decode knowledge list: %w", err)
	}
	p.logger.Debug("knowledge bases fetched", "count", len(bases))
	return bases, nil
}

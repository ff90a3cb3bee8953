package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxDocumentBytes = 1 << 20

// HTTPSource fetches documents relative to a base URL, the way the static
// site fetched data/ from its own origin.
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTPSource builds a source for baseURL. A nil client gets a 5 second timeout.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{base: strings.TrimRight(strings.TrimSpace(baseURL), "/"), client: client}
}

// Open implements Source.
func (s *HTTPSource) Open(ctx context.Context, name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	endpoint, err := url.JoinPath(s.base, strings.Split(clean, "/")...)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: endpoint, Code: resp.StatusCode}
	}
	return readDocument(resp.Body, endpoint)
}

// readDocument reads at most maxDocumentBytes and fails instead of truncating.
func readDocument(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("%w: %s is over %d bytes", ErrDocumentTooLarge, name, maxDocumentBytes)
	}
	return data, nil
}

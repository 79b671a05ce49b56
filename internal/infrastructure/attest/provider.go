// Package attest fetches the optional app-integrity token attached to
// outbound push requests. The source never fails: any problem yields an
// empty token and the header is simply omitted.
package attest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Source yields an attestation token or "" when none is available.
type Source interface {
	TokenOrEmpty(ctx context.Context) string
}

// None is the Source used when no attestation endpoint is configured.
type None struct{}

func (None) TokenOrEmpty(context.Context) string { return "" }

// HTTPSource fetches the token from an integrity endpoint over HTTP.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPSource) TokenOrEmpty(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return ""
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

// Package dispatch sends best-effort push requests to the external push
// gateway. Durable notification records are the source of truth; everything
// here may fail without affecting them, so failures are logged and swallowed.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matchday-app/notify-api/internal/domain"
	"github.com/matchday-app/notify-api/internal/pkg/chunk"
)

// targetLimit caps recipients per push-gateway request.
const targetLimit = 200

// BearerSource mints the service bearer token for outbound requests.
type BearerSource interface {
	BearerToken() (string, error)
}

// AttestSource yields an optional integrity token, "" when unavailable.
type AttestSource interface {
	TokenOrEmpty(ctx context.Context) string
}

// request is the push-gateway wire body.
type request struct {
	GroupID       string   `json:"groupId"`
	EventID       *string  `json:"eventId,omitempty"`
	Type          string   `json:"type"`
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Link          *string  `json:"link,omitempty"`
	TargetUserIDs []string `json:"targetUserIds,omitempty"`
	Tokens        []string `json:"tokens,omitempty"`
}

type Dispatcher struct {
	endpointURL string
	client      *http.Client
	bearer      BearerSource
	attest      AttestSource
	logger      *slog.Logger
}

func New(endpointURL string, timeout time.Duration, bearer BearerSource, attest AttestSource, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		endpointURL: endpointURL,
		client:      &http.Client{Timeout: timeout},
		bearer:      bearer,
		attest:      attest,
		logger:      logger,
	}
}

// endpointConfigured is the deployment-configuration gate: the URL must be
// present, use HTTPS, and not be a template placeholder. When it fails,
// dispatch is skipped without error.
func (d *Dispatcher) endpointConfigured() bool {
	if d.endpointURL == "" {
		return false
	}
	u, err := url.Parse(d.endpointURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return false
	}
	return !strings.Contains(u.Host, "your-")
}

// send posts payload to the gateway for one recipient chunk. targets carries
// user ids or raw tokens depending on the strategy; both empty means
// "resolve recipients server-side". Non-2xx responses and network errors are
// logged, never returned.
func (d *Dispatcher) send(ctx context.Context, payload domain.Payload, userIDs, tokens []string) {
	body := request{
		GroupID:       payload.GroupID,
		EventID:       payload.EventID,
		Type:          payload.Type,
		Title:         payload.Title,
		Body:          payload.Body,
		Link:          payload.Link,
		TargetUserIDs: userIDs,
		Tokens:        tokens,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		d.logger.Warn("push request encode failed", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpointURL, bytes.NewReader(encoded))
	if err != nil {
		d.logger.Warn("push request build failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	// Unauthenticated dispatch is still worth attempting: the gateway falls
	// back to its own auth when the header is missing.
	if d.bearer != nil {
		if token, err := d.bearer.BearerToken(); err != nil {
			d.logger.Warn("bearer token unavailable, dispatching unauthenticated", "error", err)
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if d.attest != nil {
		if token := d.attest.TokenOrEmpty(ctx); token != "" {
			req.Header.Set("X-Attestation", token)
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("push dispatch failed", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		d.logger.Warn("push gateway rejected request",
			"status", resp.StatusCode, "body", string(respBody))
	}
}

// sendChunked splits targets into gateway-sized requests. An empty target
// list still produces exactly one request with no recipient field, which the
// gateway reads as "resolve from stored tokens and group membership".
func (d *Dispatcher) sendChunked(ctx context.Context, payload domain.Payload, targets []string, asTokens bool) {
	if !d.endpointConfigured() {
		d.logger.Debug("push endpoint not configured, dispatch skipped")
		return
	}
	if len(targets) == 0 {
		d.send(ctx, payload, nil, nil)
		return
	}
	for _, part := range chunk.Split(targets, targetLimit) {
		if asTokens {
			d.send(ctx, payload, nil, part)
		} else {
			d.send(ctx, payload, part, nil)
		}
	}
}

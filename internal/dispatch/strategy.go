package dispatch

import (
	"context"

	"github.com/matchday-app/notify-api/internal/domain"
)

// Strategy decides how a recipient list reaches the push gateway. Selected
// once at construction; the writer only ever sees this interface.
type Strategy interface {
	ResolveAndSend(ctx context.Context, payload domain.Payload, recipients []string) error
}

// IdentityStrategy forwards user ids directly and lets the gateway resolve
// tokens server-side. This is the current production mode.
type IdentityStrategy struct {
	d *Dispatcher
}

func NewIdentityStrategy(d *Dispatcher) *IdentityStrategy {
	return &IdentityStrategy{d: d}
}

func (s *IdentityStrategy) ResolveAndSend(ctx context.Context, payload domain.Payload, recipients []string) error {
	s.d.sendChunked(ctx, payload, recipients, false)
	return nil
}

// TokenResolver is the token lookup the token-centric strategy needs.
type TokenResolver interface {
	UserTokens(ctx context.Context, userIDs []string) ([]string, error)
}

// TokenStrategy resolves concrete device tokens client-side and posts those.
// Kept as the selectable previous-generation mode; a token resolution
// failure is the only error this path can return.
type TokenStrategy struct {
	d        *Dispatcher
	resolver TokenResolver
}

func NewTokenStrategy(d *Dispatcher, resolver TokenResolver) *TokenStrategy {
	return &TokenStrategy{d: d, resolver: resolver}
}

func (s *TokenStrategy) ResolveAndSend(ctx context.Context, payload domain.Payload, recipients []string) error {
	if len(recipients) == 0 {
		s.d.sendChunked(ctx, payload, nil, true)
		return nil
	}
	tokens, err := s.resolver.UserTokens(ctx, recipients)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	s.d.sendChunked(ctx, payload, tokens, true)
	return nil
}

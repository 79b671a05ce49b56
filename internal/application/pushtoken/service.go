// Package pushtoken owns the device push-registration lifecycle: acquiring,
// persisting, rotating, and revoking a device's token. It feeds the stores
// the dispatcher and resolver later read.
package pushtoken

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/matchday-app/notify-api/internal/cache"
	"github.com/matchday-app/notify-api/internal/domain"
	"github.com/matchday-app/notify-api/internal/pkg/besteffort"
)

// Local storage keys. Kept flat and prefix-free: these are singletons per
// device, not pool entries.
const (
	localTokenKey        = "pushToken"
	localRegistrationKey = "pushRegistration"
	localPermissionKey   = "pushPermission"

	permissionGranted = "granted"
)

type Service interface {
	// Enable walks Unregistered → Requesting Permission → Token Acquired →
	// Persisted. deviceToken is the raw platform token presented by the
	// client; permissionGranted reflects the user's answer to the prompt.
	Enable(ctx context.Context, userID, deviceToken string, permissionGranted bool) error
	// Disable revokes the device's registration: provider state, server-side
	// set entry, and local storage. No-op when push is unsupported or no
	// token is stored locally.
	Disable(ctx context.Context, userID string) error
	// SyncOnSignIn heals server/local divergence without ever prompting:
	// re-asserts a locally stored token, or silently re-registers
	// deviceToken when permission was already granted before.
	SyncOnSignIn(ctx context.Context, userID, deviceToken string) error
}

type tokenStore interface {
	AddToken(ctx context.Context, userID, token string) error
	RemoveToken(ctx context.Context, userID, token string) error
	RemoveLegacyField(ctx context.Context, userID string) error
}

type provider interface {
	Ready(ctx context.Context) error
	Register(ctx context.Context, deviceToken string) (string, error)
	Deregister(ctx context.Context, registrationID string) error
}

type service struct {
	tokens   tokenStore
	provider provider // nil when the platform lacks push capability
	local    cache.Store
	logger   *slog.Logger
}

type ServiceDeps struct {
	Tokens   tokenStore
	Provider provider
	Local    cache.Store
	Logger   *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		tokens:   deps.Tokens,
		provider: deps.Provider,
		local:    deps.Local,
		logger:   deps.Logger,
	}
}

func (s *service) Enable(ctx context.Context, userID, deviceToken string, granted bool) error {
	if userID == "" {
		return fmt.Errorf("enable push: %w", domain.ErrUnauthorized)
	}
	if s.provider == nil {
		return translate(domain.ErrUnsupported)
	}
	if !granted {
		return translate(domain.ErrPermissionDenied)
	}
	if err := s.provider.Ready(ctx); err != nil {
		return translate(err)
	}

	registrationID, err := s.acquire(ctx, deviceToken)
	if err != nil {
		return translate(err)
	}

	// Set-union into the user's server-side token set; other devices of the
	// same user keep their entries.
	if err := s.tokens.AddToken(ctx, userID, deviceToken); err != nil {
		return translate(err)
	}
	s.persistLocal(deviceToken, registrationID)
	besteffort.Log(s.logger, "legacy token field cleanup", s.tokens.RemoveLegacyField(ctx, userID))
	return nil
}

// acquire registers the token, recovering once from a stale provider-side
// registration by deleting it and retrying. Exactly one retry.
func (s *service) acquire(ctx context.Context, deviceToken string) (string, error) {
	registrationID, err := s.provider.Register(ctx, deviceToken)
	if err == nil {
		return registrationID, nil
	}
	if !errors.Is(err, domain.ErrStaleRegistration) {
		return "", err
	}
	s.logger.Info("stale push registration, resetting provider state and retrying once")
	if stale, ok := s.local.Get(localRegistrationKey); ok {
		besteffort.Log(s.logger, "deregister stale registration", s.provider.Deregister(ctx, stale))
	}
	return s.provider.Register(ctx, deviceToken)
}

func (s *service) Disable(ctx context.Context, userID string) error {
	if s.provider == nil {
		return nil
	}
	token, ok := s.local.Get(localTokenKey)
	if !ok {
		return nil
	}

	if registrationID, ok := s.local.Get(localRegistrationKey); ok {
		besteffort.Log(s.logger, "deregister push endpoint", s.provider.Deregister(ctx, registrationID))
	}
	// Set-difference: remove exactly this device's token, leave the user's
	// other devices alone. A failed server write is a correctness problem
	// and surfaces.
	if err := s.tokens.RemoveToken(ctx, userID, token); err != nil {
		return translate(err)
	}
	s.local.Delete(localTokenKey)
	s.local.Delete(localRegistrationKey)
	s.local.Delete(localPermissionKey)
	besteffort.Log(s.logger, "legacy token field cleanup", s.tokens.RemoveLegacyField(ctx, userID))
	return nil
}

func (s *service) SyncOnSignIn(ctx context.Context, userID, deviceToken string) error {
	if s.provider == nil {
		return nil
	}

	// Local copy present: re-assert it into the server-side set in case the
	// server copy was dropped. Idempotent by set-union.
	if token, ok := s.local.Get(localTokenKey); ok {
		if err := s.tokens.AddToken(ctx, userID, token); err != nil {
			return translate(err)
		}
		besteffort.Log(s.logger, "legacy token field cleanup", s.tokens.RemoveLegacyField(ctx, userID))
		return nil
	}

	// No local copy: only re-acquire silently when the user already granted
	// permission in a previous session. Never prompt from a sign-in path.
	if perm, ok := s.local.Get(localPermissionKey); !ok || perm != permissionGranted {
		return nil
	}
	if deviceToken == "" {
		return nil
	}
	if err := s.provider.Ready(ctx); err != nil {
		return translate(err)
	}
	registrationID, err := s.acquire(ctx, deviceToken)
	if err != nil {
		return translate(err)
	}
	if err := s.tokens.AddToken(ctx, userID, deviceToken); err != nil {
		return translate(err)
	}
	s.persistLocal(deviceToken, registrationID)
	besteffort.Log(s.logger, "legacy token field cleanup", s.tokens.RemoveLegacyField(ctx, userID))
	return nil
}

// persistLocal mirrors the registration into fast local storage. Local write
// failures degrade silently: the server-side set is authoritative and the
// local copy self-heals on next sign-in.
func (s *service) persistLocal(deviceToken, registrationID string) {
	besteffort.Log(s.logger, "persist local token", s.local.Set(localTokenKey, deviceToken))
	besteffort.Log(s.logger, "persist local registration", s.local.Set(localRegistrationKey, registrationID))
	besteffort.Log(s.logger, "persist permission marker", s.local.Set(localPermissionKey, permissionGranted))
}

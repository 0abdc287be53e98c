package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskmgr/task-manager-api/internal/api/metrics"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

// DefaultTokenTTL is the session lifetime granted at login. A refresh grants
// a full new window of the same length, never an extension of the old one.
const DefaultTokenTTL = 2 * time.Hour

// tokenEntropyBytes sizes the random token value; 32 bytes is twice the
// 128-bit floor the token format requires.
const tokenEntropyBytes = 32

// TokenService issues, resolves, rotates and revokes opaque bearer tokens.
// Tokens carry no payload: every resolve reads the owning user fresh from
// the credential store, so a role change is visible on the next request.
type TokenService struct {
	tokens ports.TokenRepository
	users  ports.UserRepository
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithTokenClock overrides the time source (used by tests).
func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService builds a TokenService; ttl <= 0 falls back to DefaultTokenTTL.
func NewTokenService(tokens ports.TokenRepository, users ports.UserRepository, ttl time.Duration, log zerolog.Logger, opts ...TokenOption) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{
		tokens: tokens,
		users:  users,
		ttl:    ttl,
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a fresh token for the user and persists it.
func (s *TokenService) Issue(ctx context.Context, userID string) (*domain.AuthToken, error) {
	value, err := generateTokenValue()
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	now := s.now().UTC()
	token := &domain.AuthToken{
		Token:     value,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.tokens.Insert(ctx, token); err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.TokensIssuedTotal.Inc()
	s.log.Debug().Str("user_id", userID).Time("expires_at", token.ExpiresAt).Msg("token issued")
	return token, nil
}

// Resolve maps a bearer token to its owning user. Unknown, expired and
// revoked tokens are indistinguishable to the caller: all resolve failures
// funnel to domain.ErrUnauthenticated.
func (s *TokenService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	record, err := s.validLookup(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		// The owning account may have been deleted under a live token.
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return user, nil
}

// Rotate replaces a valid token with a fresh one for the same user. The new
// token is durably created before the old row is deleted, so a concurrent
// reader always finds at least one valid token; on failure to delete the
// old token the new one is removed again and the rotation fails.
func (s *TokenService) Rotate(ctx context.Context, oldToken string) (*domain.AuthToken, error) {
	record, err := s.validLookup(ctx, oldToken)
	if err != nil {
		return nil, err
	}

	fresh, err := s.Issue(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("rotate token: %w", err)
	}

	if _, err := s.tokens.Delete(ctx, oldToken); err != nil {
		if _, cleanupErr := s.tokens.Delete(ctx, fresh.Token); cleanupErr != nil {
			s.log.Error().Err(cleanupErr).Msg("failed to clean up replacement token after aborted rotation")
		}
		return nil, fmt.Errorf("rotate token: revoke old: %w", err)
	}

	metrics.TokensRotatedTotal.Inc()
	s.log.Debug().Str("user_id", record.UserID).Msg("token rotated")
	return fresh, nil
}

// Revoke deletes the token row. Revoking an already-absent token reports
// false but is not an error.
func (s *TokenService) Revoke(ctx context.Context, token string) (bool, error) {
	existed, err := s.tokens.Delete(ctx, token)
	if err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	if existed {
		metrics.TokensRevokedTotal.Inc()
	}
	return existed, nil
}

// RevokeAll revokes every session of a user.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.tokens.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}
	return n, nil
}

// validLookup fetches a token row and applies the lazy expiry check against
// the injected clock. Expired rows are deleted opportunistically; the
// backing store may also sweep them on its own.
func (s *TokenService) validLookup(ctx context.Context, token string) (*domain.AuthToken, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	record, err := s.tokens.Find(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("look up token: %w", err)
	}
	if record.ExpiredAt(s.now().UTC()) {
		_, _ = s.tokens.Delete(ctx, token)
		return nil, domain.ErrUnauthenticated
	}
	return record, nil
}

// generateTokenValue draws an unguessable opaque token from the
// cryptographic random source.
func generateTokenValue() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

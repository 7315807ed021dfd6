package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hrcore/identity-service/internal/domain"
	"github.com/hrcore/identity-service/internal/dto"
	"github.com/hrcore/identity-service/internal/identity"
	"github.com/hrcore/identity-service/internal/repository"
	"github.com/hrcore/identity-service/internal/utils"
	"go.uber.org/zap"
)

// authService implements AuthService: the refresh-token rotation and
// reuse-detection state machine. All rotation invariants are enforced by
// conditional updates at the persistence layer; this type holds no state
// of its own and is safe for concurrent use.
type authService struct {
	accounts           repository.AccountRepository
	tokens             repository.TokenRepository
	directory          *AccountDirectory
	verifier           IdentityVerifier
	jwtManager         *utils.JWTManager
	refreshTokenExpiry time.Duration
	logger             *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	accounts repository.AccountRepository,
	tokens repository.TokenRepository,
	directory *AccountDirectory,
	verifier IdentityVerifier,
	jwtManager *utils.JWTManager,
	refreshTokenExpiry time.Duration,
	logger *zap.Logger,
) AuthService {
	return &authService{
		accounts:           accounts,
		tokens:             tokens,
		directory:          directory,
		verifier:           verifier,
		jwtManager:         jwtManager,
		refreshTokenExpiry: refreshTokenExpiry,
		logger:             logger,
	}
}

// Login verifies a provider-issued credential and opens a fresh session.
// Every token still live for the account is revoked first: a new login is
// a new trusted session origin, and at most one chain stays live per
// account.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, sourceIP string) (*Session, error) {
	verified, err := s.verifyCredential(ctx, req)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	account, err := s.directory.Resolve(ctx, verified, now)
	if err != nil {
		return nil, err
	}

	if !account.IsActive {
		return nil, fmt.Errorf("account %s: %w", account.ID, ErrAccountInactive)
	}

	revoked, err := s.tokens.RevokeAllActive(ctx, account.ID, sourceIP, domain.RevokedReasonSuperseded, now)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke prior sessions: %w", err)
	}
	if revoked > 0 {
		s.logger.Info("Superseded prior sessions on login",
			zap.String("account_id", account.ID),
			zap.Int64("revoked", revoked),
		)
	}

	token, err := s.newRefreshToken(account.ID, now)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return s.issueSession(account, token)
}

// Refresh rotates a live refresh token into a new session. Presenting a
// token whose chain has already moved on triggers reuse detection: every
// still-live descendant of the presented token is revoked and the call
// fails.
func (s *authService) Refresh(ctx context.Context, refreshTokenValue, sourceIP string) (*Session, error) {
	if refreshTokenValue == "" {
		return nil, ErrInvalidToken
	}

	token, err := s.tokens.GetByValue(ctx, refreshTokenValue)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	now := time.Now()

	if token.IsRevoked() {
		return nil, s.handleReuse(ctx, token, sourceIP, now)
	}

	if token.IsExpired(now) {
		// Expired is a terminal state reached by time alone; no chain action.
		return nil, ErrInvalidToken
	}

	account, err := s.accounts.GetByID(ctx, token.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if !account.IsActive {
		return nil, ErrInvalidToken
	}

	successor, err := s.newRefreshToken(account.ID, now)
	if err != nil {
		return nil, err
	}

	rotated, err := s.tokens.Rotate(ctx, token.Value, successor, sourceIP, now)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate token: %w", err)
	}
	if !rotated {
		// Lost the race: a concurrent refresh rotated this token between
		// our read and the conditional update. Re-read and treat the
		// presented value as reused.
		current, readErr := s.tokens.GetByValue(ctx, token.Value)
		if readErr != nil {
			return nil, ErrInvalidToken
		}
		return nil, s.handleReuse(ctx, current, sourceIP, now)
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("Failed to stamp last login on refresh",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}

	return s.issueSession(account, successor)
}

// Revoke handles explicit logout. It revokes a single live token and
// returns false, mutating nothing, when the token is absent or not live.
func (s *authService) Revoke(ctx context.Context, refreshTokenValue, sourceIP string) (bool, error) {
	if refreshTokenValue == "" {
		return false, nil
	}

	revoked, err := s.tokens.RevokeIfLive(ctx, refreshTokenValue, sourceIP, domain.RevokedReasonUser, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to revoke token: %w", err)
	}

	return revoked, nil
}

// CurrentAccount looks up the account named by verified access-credential
// claims. Pure lookup; no token state is consulted.
func (s *authService) CurrentAccount(ctx context.Context, claims *domain.AccessClaims) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// ValidateAccessToken validates a stateless access credential
func (s *authService) ValidateAccessToken(ctx context.Context, token string) (*domain.AccessClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	return claims, nil
}

// verifyCredential dispatches to the credential shape present in the
// request. Both shapes produce the same VerifiedIdentity.
func (s *authService) verifyCredential(ctx context.Context, req *dto.LoginRequest) (*domain.VerifiedIdentity, error) {
	switch {
	case req.IDToken != "":
		return s.verifier.VerifyIDToken(ctx, req.IDToken)
	case req.AccessToken != "":
		return s.verifier.VerifyAccessToken(ctx, req.AccessToken)
	default:
		return nil, fmt.Errorf("no credential presented: %w", identity.ErrInvalidCredential)
	}
}

// handleReuse walks the rotation chain forward from a revoked token and
// revokes every descendant that is still live. Always returns
// ErrInvalidToken on the happy path so callers cannot distinguish reuse
// from an ordinary dead token.
func (s *authService) handleReuse(ctx context.Context, token *domain.RefreshToken, sourceIP string, now time.Time) error {
	s.logger.Warn("Refresh token reuse detected",
		zap.String("account_id", token.AccountID),
		zap.String("token_id", token.ID),
		zap.String("source_ip", sourceIP),
	)

	current := token
	for current.ReplacedByValue != nil {
		next, err := s.tokens.GetByValue(ctx, *current.ReplacedByValue)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				break
			}
			return fmt.Errorf("failed to walk token chain: %w", err)
		}

		if next.IsLive(now) {
			if _, err := s.tokens.RevokeIfLive(ctx, next.Value, sourceIP, domain.RevokedReasonReuse, now); err != nil {
				return fmt.Errorf("failed to revoke descendant token: %w", err)
			}
		}

		current = next
	}

	return ErrInvalidToken
}

// newRefreshToken builds an unsaved refresh token with a fresh value.
func (s *authService) newRefreshToken(accountID string, now time.Time) (*domain.RefreshToken, error) {
	value, err := utils.NewRefreshTokenValue()
	if err != nil {
		return nil, err
	}

	return &domain.RefreshToken{
		AccountID: accountID,
		Value:     value,
		IssuedOn:  now,
		ExpiresOn: now.Add(s.refreshTokenExpiry),
	}, nil
}

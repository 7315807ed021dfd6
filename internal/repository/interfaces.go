package repository

import (
	"context"
	"time"

	"github.com/hrcore/identity-service/internal/domain"
)

// AccountRepository defines methods for account persistence
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetBySubjectIncludingDeleted ignores the soft-delete filter so a
	// previously deleted account can be reactivated instead of duplicated.
	GetBySubjectIncludingDeleted(ctx context.Context, subjectID string) (*domain.Account, error)
	// UpdateProfile refreshes the mutable profile fields, clears the
	// deleted flag and stamps the last login time.
	UpdateProfile(ctx context.Context, account *domain.Account) error
	UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error
}

// TokenRepository defines methods for refresh token persistence. All
// mutations are conditional updates guarded on token liveness so the
// rotation invariants hold across multiple service instances; rows are
// never deleted.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByValue(ctx context.Context, value string) (*domain.RefreshToken, error)
	GetByAccountID(ctx context.Context, accountID string) ([]*domain.RefreshToken, error)
	// Rotate atomically revokes the token identified by oldValue, links it
	// to successor and inserts the successor row, all inside one
	// transaction. It returns false without any mutation when the token is
	// no longer live, which signals the caller to take the reuse path.
	Rotate(ctx context.Context, oldValue string, successor *domain.RefreshToken, ip string, now time.Time) (bool, error)
	// RevokeIfLive marks a single token revoked only if it is still live
	// and reports whether a row was affected.
	RevokeIfLive(ctx context.Context, value, ip, reason string, now time.Time) (bool, error)
	// RevokeAllActive revokes every live token owned by the account and
	// returns how many were affected.
	RevokeAllActive(ctx context.Context, accountID, ip, reason string, now time.Time) (int64, error)
}

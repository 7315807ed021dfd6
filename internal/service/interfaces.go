package service

import (
	"context"

	"github.com/hrcore/identity-service/internal/domain"
	"github.com/hrcore/identity-service/internal/dto"
)

// IdentityVerifier verifies an externally issued credential against the
// identity provider. Implemented by the identity package; abstracted here
// so the session issuer can be tested without a live provider.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, rawToken string) (*domain.VerifiedIdentity, error)
	VerifyAccessToken(ctx context.Context, rawToken string) (*domain.VerifiedIdentity, error)
}

// AuthService defines the session issuance operations
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest, sourceIP string) (*Session, error)
	Refresh(ctx context.Context, refreshTokenValue, sourceIP string) (*Session, error)
	Revoke(ctx context.Context, refreshTokenValue, sourceIP string) (bool, error)
	CurrentAccount(ctx context.Context, claims *domain.AccessClaims) (*domain.Account, error)
	ValidateAccessToken(ctx context.Context, token string) (*domain.AccessClaims, error)
}

// Package identity verifies externally issued credentials against the
// OIDC identity provider and normalizes them to a VerifiedIdentity.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hrcore/identity-service/internal/domain"
	"golang.org/x/oauth2"
)

var (
	// ErrInvalidCredential is returned when a presented credential fails
	// provider verification: bad signature, wrong audience, expired, or
	// rejected by the userinfo endpoint.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrProviderUnavailable is returned when the identity provider could
	// not be reached. Kept distinct from ErrInvalidCredential so transport
	// failures do not surface as unauthorized.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Verifier validates credentials issued by a single OIDC provider. Both
// credential shapes yield the same VerifiedIdentity so callers stay
// credential-shape-agnostic.
type Verifier struct {
	provider *oidc.Provider
	idToken  *oidc.IDTokenVerifier
}

// providerClaims is the profile shape shared by ID tokens and the
// userinfo response.
type providerClaims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// NewVerifier discovers the provider's endpoints and published keys.
// audience is the OAuth client id expected in ID tokens.
func NewVerifier(ctx context.Context, issuerURL, audience string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover identity provider: %w", err)
	}

	return &Verifier{
		provider: provider,
		idToken:  provider.Verifier(&oidc.Config{ClientID: audience}),
	}, nil
}

// VerifyIDToken checks a signed ID token's signature, issuer, audience and
// expiry against the provider's published keys.
func (v *Verifier) VerifyIDToken(ctx context.Context, rawToken string) (*domain.VerifiedIdentity, error) {
	token, err := v.idToken.Verify(ctx, rawToken)
	if err != nil {
		return nil, classify(err, "failed to verify id token")
	}

	var claims providerClaims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse id token claims: %w", ErrInvalidCredential)
	}

	return &domain.VerifiedIdentity{
		SubjectID:  token.Subject,
		Email:      claims.Email,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		PictureURL: claims.Picture,
	}, nil
}

// VerifyAccessToken calls the provider's userinfo endpoint with the bearer
// token and trusts the returned subject claim.
func (v *Verifier) VerifyAccessToken(ctx context.Context, rawToken string) (*domain.VerifiedIdentity, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: rawToken, TokenType: "Bearer"})

	info, err := v.provider.UserInfo(ctx, source)
	if err != nil {
		return nil, classify(err, "failed to fetch userinfo")
	}

	var claims providerClaims
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo claims: %w", ErrInvalidCredential)
	}

	return &domain.VerifiedIdentity{
		SubjectID:  info.Subject,
		Email:      claims.Email,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		PictureURL: claims.Picture,
	}, nil
}

// classify separates transport-level failures from verification failures.
// A *url.Error or cancelled/expired context means the provider (or its key
// endpoint) could not be reached; everything else is a bad credential.
func classify(err error, msg string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %v: %w", msg, err, ErrProviderUnavailable)
	}
	return fmt.Errorf("%s: %v: %w", msg, err, ErrInvalidCredential)
}

package acceptance

import (
	"context"
	"sync"

	"github.com/hrcore/identity-service/internal/domain"
	"github.com/hrcore/identity-service/internal/identity"
)

// stubVerifier stands in for the identity provider: tests register raw
// credential values together with the identity they verify to. Unknown
// values fail the way a forged token would.
type stubVerifier struct {
	mu          sync.Mutex
	identities  map[string]*domain.VerifiedIdentity
	unavailable bool
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{
		identities: make(map[string]*domain.VerifiedIdentity),
	}
}

func (v *stubVerifier) register(rawToken string, id *domain.VerifiedIdentity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.identities[rawToken] = id
}

func (v *stubVerifier) setUnavailable(unavailable bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.unavailable = unavailable
}

func (v *stubVerifier) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.identities = make(map[string]*domain.VerifiedIdentity)
	v.unavailable = false
}

func (v *stubVerifier) VerifyIDToken(ctx context.Context, rawToken string) (*domain.VerifiedIdentity, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unavailable {
		return nil, identity.ErrProviderUnavailable
	}

	id, ok := v.identities[rawToken]
	if !ok {
		return nil, identity.ErrInvalidCredential
	}

	copied := *id
	return &copied, nil
}

func (v *stubVerifier) VerifyAccessToken(ctx context.Context, rawToken string) (*domain.VerifiedIdentity, error) {
	return v.VerifyIDToken(ctx, rawToken)
}

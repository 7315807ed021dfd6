package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/identity-service/internal/domain"
	"github.com/hrcore/identity-service/internal/repository"
)

// fakeTokenRepo is an in-memory TokenRepository. Mutations mirror the
// SQL implementation's conditional-update semantics: guards are evaluated
// and applied under one lock so concurrent rotations race the same way
// they do against the database.
type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken // keyed by value
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func copyToken(t *domain.RefreshToken) *domain.RefreshToken {
	c := *t
	if t.RevokedOn != nil {
		v := *t.RevokedOn
		c.RevokedOn = &v
	}
	if t.RevokedByIP != nil {
		v := *t.RevokedByIP
		c.RevokedByIP = &v
	}
	if t.RevokedReason != nil {
		v := *t.RevokedReason
		c.RevokedReason = &v
	}
	if t.ReplacedByValue != nil {
		v := *t.ReplacedByValue
		c.ReplacedByValue = &v
	}
	return &c
}

func (r *fakeTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.Value]; ok {
		return repository.ErrDuplicateToken
	}
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	r.tokens[token.Value] = copyToken(token)
	return nil
}

func (r *fakeTokenRepo) GetByValue(ctx context.Context, value string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[value]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyToken(token), nil
}

func (r *fakeTokenRepo) GetByAccountID(ctx context.Context, accountID string) ([]*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tokens []*domain.RefreshToken
	for _, token := range r.tokens {
		if token.AccountID == accountID {
			tokens = append(tokens, copyToken(token))
		}
	}
	return tokens, nil
}

func (r *fakeTokenRepo) Rotate(ctx context.Context, oldValue string, successor *domain.RefreshToken, ip string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[oldValue]
	if !ok || !token.IsLive(now) {
		return false, nil
	}

	reason := domain.RevokedReasonRotated
	revokedOn := now
	token.RevokedOn = &revokedOn
	token.RevokedByIP = &ip
	token.RevokedReason = &reason
	successorValue := successor.Value
	token.ReplacedByValue = &successorValue

	if successor.ID == "" {
		successor.ID = uuid.New().String()
	}
	r.tokens[successor.Value] = copyToken(successor)
	return true, nil
}

func (r *fakeTokenRepo) RevokeIfLive(ctx context.Context, value, ip, reason string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[value]
	if !ok || !token.IsLive(now) {
		return false, nil
	}

	revokedOn := now
	token.RevokedOn = &revokedOn
	token.RevokedByIP = &ip
	token.RevokedReason = &reason
	return true, nil
}

func (r *fakeTokenRepo) RevokeAllActive(ctx context.Context, accountID, ip, reason string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for _, token := range r.tokens {
		if token.AccountID == accountID && token.IsLive(now) {
			revokedOn := now
			token.RevokedOn = &revokedOn
			token.RevokedByIP = &ip
			rsn := reason
			token.RevokedReason = &rsn
			affected++
		}
	}
	return affected, nil
}

// liveCount reports how many of the account's tokens are live at now.
func (r *fakeTokenRepo) liveCount(accountID string, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, token := range r.tokens {
		if token.AccountID == accountID && token.IsLive(now) {
			count++
		}
	}
	return count
}

// fakeAccountRepo is an in-memory AccountRepository with the same unique
// constraints as the schema: external_subject_id and display_id.
type fakeAccountRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Account
	bySubject map[string]*domain.Account

	// takenDisplayIDs simulates cross-process display-id collisions.
	takenDisplayIDs map[int64]struct{}
	// conflictNextCreates forces the next N creates to report a
	// display-id conflict regardless of the generated id.
	conflictNextCreates int
	// subjectConflictOnCreate forces the next Create to fail as if a
	// concurrent login inserted the subject first; the winner's row is
	// stored so the follow-up lookup finds it.
	subjectConflictOnCreate bool
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		byID:            make(map[string]*domain.Account),
		bySubject:       make(map[string]*domain.Account),
		takenDisplayIDs: make(map[int64]struct{}),
	}
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.LastLoginOn != nil {
		v := *a.LastLoginOn
		c.LastLoginOn = &v
	}
	return &c
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflictNextCreates > 0 {
		r.conflictNextCreates--
		return repository.ErrDuplicateDisplayID
	}
	if _, ok := r.takenDisplayIDs[account.DisplayID]; ok {
		return repository.ErrDuplicateDisplayID
	}
	if r.subjectConflictOnCreate {
		r.subjectConflictOnCreate = false
		winner := copyAccount(account)
		winner.ID = uuid.New().String()
		r.byID[winner.ID] = winner
		r.bySubject[winner.ExternalSubjectID] = winner
		r.takenDisplayIDs[winner.DisplayID] = struct{}{}
		return repository.ErrDuplicateSubject
	}
	if _, ok := r.bySubject[account.ExternalSubjectID]; ok {
		return repository.ErrDuplicateSubject
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	stored := copyAccount(account)
	r.byID[stored.ID] = stored
	r.bySubject[stored.ExternalSubjectID] = stored
	r.takenDisplayIDs[stored.DisplayID] = struct{}{}
	return nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok || account.IsDeleted {
		return nil, repository.ErrNotFound
	}
	return copyAccount(account), nil
}

func (r *fakeAccountRepo) GetBySubjectIncludingDeleted(ctx context.Context, subjectID string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.bySubject[subjectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAccount(account), nil
}

func (r *fakeAccountRepo) UpdateProfile(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[account.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Email = account.Email
	stored.GivenName = account.GivenName
	stored.FamilyName = account.FamilyName
	stored.PictureURL = account.PictureURL
	stored.IsDeleted = false
	if account.LastLoginOn != nil {
		v := *account.LastLoginOn
		stored.LastLoginOn = &v
	}
	return nil
}

func (r *fakeAccountRepo) UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.LastLoginOn = &at
	return nil
}

func (r *fakeAccountRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// stubVerifier returns a fixed identity or error for any credential.
type stubVerifier struct {
	identity *domain.VerifiedIdentity
	err      error
}

func (v *stubVerifier) VerifyIDToken(ctx context.Context, rawToken string) (*domain.VerifiedIdentity, error) {
	if v.err != nil {
		return nil, v.err
	}
	identity := *v.identity
	return &identity, nil
}

func (v *stubVerifier) VerifyAccessToken(ctx context.Context, rawToken string) (*domain.VerifiedIdentity, error) {
	return v.VerifyIDToken(ctx, rawToken)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hrcore/identity-service/internal/domain"
	"github.com/hrcore/identity-service/internal/idgen"
	"github.com/hrcore/identity-service/internal/repository"
	"go.uber.org/zap"
)

// AccountDirectory maps verified identities to durable accounts: created
// on first sight, profile-refreshed and reactivated on later sightings.
// Concurrent first logins by the same subject are resolved by the unique
// constraint on external_subject_id, not by in-process locking.
type AccountDirectory struct {
	accounts   repository.AccountRepository
	idGen      *idgen.Generator
	maxRetries int
	logger     *zap.Logger
}

// NewAccountDirectory creates a new account directory
func NewAccountDirectory(accounts repository.AccountRepository, idGen *idgen.Generator, maxRetries int, logger *zap.Logger) *AccountDirectory {
	return &AccountDirectory{
		accounts:   accounts,
		idGen:      idGen,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Resolve returns the account for a verified identity, creating it on
// first sight. Existing accounts get their mutable profile fields
// refreshed, the soft-delete flag cleared and the login time stamped.
func (d *AccountDirectory) Resolve(ctx context.Context, identity *domain.VerifiedIdentity, now time.Time) (*domain.Account, error) {
	account, err := d.accounts.GetBySubjectIncludingDeleted(ctx, identity.SubjectID)
	if err == nil {
		return d.refresh(ctx, account, identity, now)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	account = &domain.Account{
		ExternalSubjectID: identity.SubjectID,
		Email:             identity.Email,
		GivenName:         identity.GivenName,
		FamilyName:        identity.FamilyName,
		PictureURL:        identity.PictureURL,
		Role:              domain.DefaultRole,
		IsActive:          true,
		CreatedOn:         now,
		LastLoginOn:       &now,
	}

	err = d.idGen.WithRetry(ctx, d.maxRetries, func(ctx context.Context, displayID int64) (bool, error) {
		account.DisplayID = displayID
		createErr := d.accounts.Create(ctx, account)
		return errors.Is(createErr, repository.ErrDuplicateDisplayID), createErr
	})
	if err == nil {
		d.logger.Info("Account created",
			zap.String("account_id", account.ID),
			zap.Int64("display_id", account.DisplayID),
		)
		return account, nil
	}

	// A concurrent first login by the same subject won the insert race;
	// fall through to the refresh path against the winner's row.
	if errors.Is(err, repository.ErrDuplicateSubject) {
		existing, lookupErr := d.accounts.GetBySubjectIncludingDeleted(ctx, identity.SubjectID)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to look up account after subject conflict: %w", lookupErr)
		}
		return d.refresh(ctx, existing, identity, now)
	}

	if errors.Is(err, idgen.ErrConflictRetryExhausted) {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return nil, fmt.Errorf("failed to create account: %w", err)
}

// refresh updates mutable profile fields from the identity, clears the
// deleted flag and stamps the login time.
func (d *AccountDirectory) refresh(ctx context.Context, account *domain.Account, identity *domain.VerifiedIdentity, now time.Time) (*domain.Account, error) {
	reactivated := account.IsDeleted

	account.Email = identity.Email
	account.GivenName = identity.GivenName
	account.FamilyName = identity.FamilyName
	account.PictureURL = identity.PictureURL
	account.IsDeleted = false
	account.LastLoginOn = &now

	if err := d.accounts.UpdateProfile(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to refresh account profile: %w", err)
	}

	if reactivated {
		d.logger.Info("Account reactivated", zap.String("account_id", account.ID))
	}

	return account, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/identity-service/internal/domain"
	"github.com/hrcore/identity-service/pkg/database"
	"github.com/lib/pq"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *database.Postgres
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.Postgres) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, display_id, external_subject_id, email, given_name, family_name, picture_url, role, is_active, is_deleted, created_on, last_login_on`

// Create creates a new account in the database
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedOn.IsZero() {
		account.CreatedOn = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		account.ID,
		account.DisplayID,
		account.ExternalSubjectID,
		account.Email,
		account.GivenName,
		account.FamilyName,
		account.PictureURL,
		account.Role,
		account.IsActive,
		account.IsDeleted,
		account.CreatedOn,
		account.LastLoginOn,
	)

	if err != nil {
		// The violated constraint tells us which retry path applies:
		// display-id conflicts regenerate the id, subject conflicts mean a
		// concurrent first login already created the row.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "accounts_display_id_key":
				return fmt.Errorf("account display id %d already exists: %w", account.DisplayID, ErrDuplicateDisplayID)
			default:
				return fmt.Errorf("account for subject already exists: %w", ErrDuplicateSubject)
			}
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by id, excluding soft-deleted rows
func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1 AND is_deleted = FALSE
	`

	account, err := r.scanAccount(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// GetBySubjectIncludingDeleted retrieves an account by external subject id,
// ignoring the soft-delete filter
func (r *accountRepository) GetBySubjectIncludingDeleted(ctx context.Context, subjectID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE external_subject_id = $1
	`

	account, err := r.scanAccount(r.db.DB.QueryRowContext(ctx, query, subjectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account for subject not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by subject: %w", err)
	}

	return account, nil
}

// UpdateProfile refreshes mutable profile fields, clears the deleted flag
// and stamps the last login time
func (r *accountRepository) UpdateProfile(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET email = $2, given_name = $3, family_name = $4, picture_url = $5,
		    is_deleted = FALSE, last_login_on = $6
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.GivenName,
		account.FamilyName,
		account.PictureURL,
		account.LastLoginOn,
	)
	if err != nil {
		return fmt.Errorf("failed to update account profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account with id %s not found: %w", account.ID, ErrNotFound)
	}

	return nil
}

// UpdateLastLogin updates the last login timestamp for an account
func (r *accountRepository) UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error {
	query := `
		UPDATE accounts
		SET last_login_on = $1
		WHERE id = $2
	`

	result, err := r.db.DB.ExecContext(ctx, query, at, accountID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account with id %s not found: %w", accountID, ErrNotFound)
	}

	return nil
}

func (r *accountRepository) scanAccount(row *sql.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var lastLoginOn sql.NullTime

	err := row.Scan(
		&account.ID,
		&account.DisplayID,
		&account.ExternalSubjectID,
		&account.Email,
		&account.GivenName,
		&account.FamilyName,
		&account.PictureURL,
		&account.Role,
		&account.IsActive,
		&account.IsDeleted,
		&account.CreatedOn,
		&lastLoginOn,
	)
	if err != nil {
		return nil, err
	}

	if lastLoginOn.Valid {
		account.LastLoginOn = &lastLoginOn.Time
	}

	return account, nil
}

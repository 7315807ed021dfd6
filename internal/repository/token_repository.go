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

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db *database.Postgres
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *database.Postgres) TokenRepository {
	return &tokenRepository{db: db}
}

const tokenColumns = `id, account_id, value, issued_on, expires_on, revoked_on, revoked_by_ip, revoked_reason, replaced_by_value`

// Create creates a new refresh token in the database
func (r *tokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (` + tokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.IssuedOn.IsZero() {
		token.IssuedOn = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		token.ID,
		token.AccountID,
		token.Value,
		token.IssuedOn,
		token.ExpiresOn,
		token.RevokedOn,
		token.RevokedByIP,
		token.RevokedReason,
		token.ReplacedByValue,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("token value already exists: %w", ErrDuplicateToken)
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// GetByValue retrieves a refresh token by its value
func (r *tokenRepository) GetByValue(ctx context.Context, value string) (*domain.RefreshToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE value = $1
	`

	token, err := scanToken(r.db.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token by value: %w", err)
	}

	return token, nil
}

// GetByAccountID retrieves all refresh tokens for an account, newest first
func (r *tokenRepository) GetByAccountID(ctx context.Context, accountID string) ([]*domain.RefreshToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE account_id = $1
		ORDER BY issued_on DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens by account id: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.RefreshToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tokens: %w", err)
	}

	return tokens, nil
}

// Rotate revokes the old token and inserts its successor in a single
// transaction. The UPDATE is guarded on the token still being live; when
// it affects no rows the token was already rotated, revoked or expired and
// the transaction is rolled back with no mutation.
func (r *tokenRepository) Rotate(ctx context.Context, oldValue string, successor *domain.RefreshToken, ip string, now time.Time) (bool, error) {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback()

	revoke := `
		UPDATE refresh_tokens
		SET revoked_on = $1, revoked_by_ip = $2, revoked_reason = $3, replaced_by_value = $4
		WHERE value = $5 AND revoked_on IS NULL AND expires_on > $1
	`

	result, err := tx.ExecContext(ctx, revoke, now, ip, domain.RevokedReasonRotated, successor.Value, oldValue)
	if err != nil {
		return false, fmt.Errorf("failed to revoke rotated token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	if successor.ID == "" {
		successor.ID = uuid.New().String()
	}

	insert := `
		INSERT INTO refresh_tokens (` + tokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(ctx, insert,
		successor.ID,
		successor.AccountID,
		successor.Value,
		successor.IssuedOn,
		successor.ExpiresOn,
		successor.RevokedOn,
		successor.RevokedByIP,
		successor.RevokedReason,
		successor.ReplacedByValue,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return false, fmt.Errorf("successor token value already exists: %w", ErrDuplicateToken)
		}
		return false, fmt.Errorf("failed to insert successor token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit rotation: %w", err)
	}

	return true, nil
}

// RevokeIfLive marks a single token revoked only if it is still live
func (r *tokenRepository) RevokeIfLive(ctx context.Context, value, ip, reason string, now time.Time) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_on = $1, revoked_by_ip = $2, revoked_reason = $3
		WHERE value = $4 AND revoked_on IS NULL AND expires_on > $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, now, ip, reason, value)
	if err != nil {
		return false, fmt.Errorf("failed to revoke token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// RevokeAllActive revokes every live token owned by the account
func (r *tokenRepository) RevokeAllActive(ctx context.Context, accountID, ip, reason string, now time.Time) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_on = $1, revoked_by_ip = $2, revoked_reason = $3
		WHERE account_id = $4 AND revoked_on IS NULL AND expires_on > $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, now, ip, reason, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke active tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*domain.RefreshToken, error) {
	token := &domain.RefreshToken{}
	var revokedOn sql.NullTime
	var revokedByIP, revokedReason, replacedByValue sql.NullString

	err := row.Scan(
		&token.ID,
		&token.AccountID,
		&token.Value,
		&token.IssuedOn,
		&token.ExpiresOn,
		&revokedOn,
		&revokedByIP,
		&revokedReason,
		&replacedByValue,
	)
	if err != nil {
		return nil, err
	}

	if revokedOn.Valid {
		token.RevokedOn = &revokedOn.Time
	}
	if revokedByIP.Valid {
		token.RevokedByIP = &revokedByIP.String
	}
	if revokedReason.Valid {
		token.RevokedReason = &revokedReason.String
	}
	if replacedByValue.Valid {
		token.ReplacedByValue = &replacedByValue.String
	}

	return token, nil
}

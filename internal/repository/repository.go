package repository

import (
	"github.com/hrcore/identity-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	Account AccountRepository
	Token   TokenRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		Account: NewAccountRepository(db),
		Token:   NewTokenRepository(db),
	}
}

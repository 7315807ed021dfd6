package domain

import "time"

// DefaultRole is assigned to accounts created on first login.
const DefaultRole = "User"

// Account represents a user account backed by an external identity provider.
// Accounts are created on first successful verification and are never
// hard-deleted by this service; Deleted is a soft-delete flag.
type Account struct {
	ID                string     `json:"id" db:"id"`
	DisplayID         int64      `json:"display_id" db:"display_id"`
	ExternalSubjectID string     `json:"-" db:"external_subject_id"`
	Email             string     `json:"email" db:"email"`
	GivenName         string     `json:"given_name" db:"given_name"`
	FamilyName        string     `json:"family_name" db:"family_name"`
	PictureURL        string     `json:"picture_url" db:"picture_url"`
	Role              string     `json:"role" db:"role"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	IsDeleted         bool       `json:"-" db:"is_deleted"`
	CreatedOn         time.Time  `json:"created_on" db:"created_on"`
	LastLoginOn       *time.Time `json:"last_login_on" db:"last_login_on"`
}

// FullName returns the account's display name.
func (a *Account) FullName() string {
	if a.GivenName == "" {
		return a.FamilyName
	}
	if a.FamilyName == "" {
		return a.GivenName
	}
	return a.GivenName + " " + a.FamilyName
}

package dto

import "time"

// LoginRequest carries one of the two supported credential shapes issued
// by the identity provider
type LoginRequest struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
}

// RefreshRequest optionally carries the refresh token value; clients may
// omit it and rely on the refresh cookie instead
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RevokeRequest optionally carries the refresh token value to revoke
type RevokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SessionResponse represents an issued session
type SessionResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresOn    time.Time   `json:"expires_on"`
	Account      AccountInfo `json:"account"`
}

// AccountInfo represents account information in a session response
type AccountInfo struct {
	ID         string `json:"id"`
	DisplayID  int64  `json:"display_id,string"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	PictureURL string `json:"picture_url,omitempty"`
	Role       string `json:"role"`
}

// AccountResponse represents a full account profile response
type AccountResponse struct {
	ID          string  `json:"id"`
	DisplayID   int64   `json:"display_id,string"`
	Email       string  `json:"email"`
	GivenName   string  `json:"given_name"`
	FamilyName  string  `json:"family_name"`
	PictureURL  string  `json:"picture_url,omitempty"`
	Role        string  `json:"role"`
	CreatedOn   string  `json:"created_on"`
	LastLoginOn *string `json:"last_login_on"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hrcore/identity-service/internal/domain"
)

// JWTManager signs and verifies stateless access credentials
type JWTManager struct {
	secret            []byte
	accessTokenExpiry time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessTokenExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:            []byte(secret),
		accessTokenExpiry: accessTokenExpiry,
	}
}

// GenerateAccessToken generates a signed access credential carrying the
// account's id, email, display name and role
func (j *JWTManager) GenerateAccessToken(account *domain.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"account_id": account.ID,
		"email":      account.Email,
		"name":       account.FullName(),
		"role":       account.Role,
		"exp":        now.Add(j.accessTokenExpiry).Unix(),
		"iat":        now.Unix(),
		"jti":        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates an access credential and returns its
// claims. Validity is signature plus expiry only; no store lookup.
func (j *JWTManager) ValidateAccessToken(tokenString string) (*domain.AccessClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	accountID, ok := claims["account_id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid account_id in token")
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid exp in token")
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid iat in token")
	}

	accessClaims := &domain.AccessClaims{
		AccountID: accountID,
		Email:     email,
		Name:      name,
		Role:      role,
		Exp:       int64(exp),
		Iat:       int64(iat),
	}

	if accessClaims.IsExpired() {
		return nil, fmt.Errorf("token is expired")
	}

	return accessClaims, nil
}

// GetAccessTokenExpiry returns the access token expiry duration in seconds
func (j *JWTManager) GetAccessTokenExpiry() int {
	return int(j.accessTokenExpiry.Seconds())
}

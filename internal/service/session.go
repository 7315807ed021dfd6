package service

import (
	"fmt"

	"github.com/hrcore/identity-service/internal/domain"
	"github.com/hrcore/identity-service/internal/dto"
)

// Session is the result of a successful login or refresh: the response
// body plus the refresh-cookie lifetime for the transport layer.
type Session struct {
	Response *dto.SessionResponse
	// RefreshExpiresIn is the refresh token lifetime in seconds, used as
	// the cookie max-age.
	RefreshExpiresIn int
}

// issueSession signs an access credential for the account and assembles
// the session around the already-persisted refresh token.
func (s *authService) issueSession(account *domain.Account, token *domain.RefreshToken) (*Session, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &Session{
		Response: &dto.SessionResponse{
			AccessToken:  accessToken,
			TokenType:    "Bearer",
			ExpiresIn:    s.jwtManager.GetAccessTokenExpiry(),
			RefreshToken: token.Value,
			ExpiresOn:    token.ExpiresOn,
			Account: dto.AccountInfo{
				ID:         account.ID,
				DisplayID:  account.DisplayID,
				Email:      account.Email,
				GivenName:  account.GivenName,
				FamilyName: account.FamilyName,
				PictureURL: account.PictureURL,
				Role:       account.Role,
			},
		},
		RefreshExpiresIn: int(s.refreshTokenExpiry.Seconds()),
	}, nil
}

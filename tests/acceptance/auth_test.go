package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/hrcore/identity-service/internal/domain"
	"github.com/hrcore/identity-service/internal/dto"
)

func (s *Suite) registerIdentity(credential, subject, email string) {
	s.Verifier.register(credential, &domain.VerifiedIdentity{
		SubjectID:  subject,
		Email:      email,
		GivenName:  "Test",
		FamilyName: "User",
	})
}

func (s *Suite) postJSON(path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	resp, err := http.Post(s.BaseURL+path, "application/json", bytes.NewBuffer(payload))
	s.Require().NoError(err)
	return resp
}

func (s *Suite) login(credential string) dto.SessionResponse {
	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{IDToken: credential})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var session dto.SessionResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&session))
	return session
}

func (s *Suite) refresh(refreshToken string) (*http.Response, *dto.SessionResponse) {
	resp := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{RefreshToken: refreshToken})

	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	var session dto.SessionResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&session))
	return resp, &session
}

func (s *Suite) TestLogin_Success() {
	s.registerIdentity("valid-id-token", "subject-login", "login@example.com")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{IDToken: "valid-id-token"})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var session dto.SessionResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&session))

	s.NotEmpty(session.AccessToken)
	s.Equal("Bearer", session.TokenType)
	s.NotZero(session.ExpiresIn)
	s.NotEmpty(session.RefreshToken)
	s.Equal("login@example.com", session.Account.Email)
	s.Equal("User", session.Account.Role)
	s.NotZero(session.Account.DisplayID)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			cookie = c
		}
	}
	s.Require().NotNil(cookie, "Should have refresh token cookie")
	s.True(cookie.HttpOnly)
	s.True(cookie.Secure)
	s.Equal("/api/v1/auth", cookie.Path)
	s.Equal(http.SameSiteStrictMode, cookie.SameSite)
	s.Equal(session.RefreshToken, cookie.Value)
}

func (s *Suite) TestLogin_InvalidCredential() {
	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{IDToken: "forged-token"})
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogin_MissingCredential() {
	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{})
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogin_ProviderUnavailable() {
	s.Verifier.setUnavailable(true)

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{IDToken: "any-token"})
	defer resp.Body.Close()

	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func (s *Suite) TestLogin_SecondLoginSupersedesFirst() {
	s.registerIdentity("repeat-token", "subject-repeat", "repeat@example.com")

	first := s.login("repeat-token")
	second := s.login("repeat-token")

	s.Equal(first.Account.ID, second.Account.ID)

	// The first session's refresh token is dead after the second login.
	resp, _ := s.refresh(first.RefreshToken)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestRefresh_Success() {
	s.registerIdentity("refresh-token-cred", "subject-refresh", "refresh@example.com")

	session := s.login("refresh-token-cred")

	resp, rotated := s.refresh(session.RefreshToken)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Require().NotNil(rotated)
	s.NotEmpty(rotated.AccessToken)
	s.NotEqual(session.RefreshToken, rotated.RefreshToken)
	s.Equal(session.Account.ID, rotated.Account.ID)
}

func (s *Suite) TestRefresh_MissingToken() {
	resp := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestRefresh_UnknownToken() {
	resp, _ := s.refresh("never-issued-value")
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestRefresh_ReuseInvalidatesChain() {
	s.registerIdentity("reuse-cred", "subject-reuse", "reuse@example.com")

	session := s.login("reuse-cred")

	resp1, rotated := s.refresh(session.RefreshToken)
	resp1.Body.Close()
	s.Require().NotNil(rotated)

	// Replaying the consumed token fails and drags the successor down.
	resp2, _ := s.refresh(session.RefreshToken)
	defer resp2.Body.Close()
	s.Equal(http.StatusUnauthorized, resp2.StatusCode)

	resp3, _ := s.refresh(rotated.RefreshToken)
	defer resp3.Body.Close()
	s.Equal(http.StatusUnauthorized, resp3.StatusCode)
}

func (s *Suite) TestLogout() {
	s.registerIdentity("logout-cred", "subject-logout", "logout@example.com")

	session := s.login("logout-cred")

	resp := s.postJSON("/api/v1/auth/logout", dto.RevokeRequest{RefreshToken: session.RefreshToken})
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	refreshResp, _ := s.refresh(session.RefreshToken)
	defer refreshResp.Body.Close()
	s.Equal(http.StatusUnauthorized, refreshResp.StatusCode)
}

func (s *Suite) TestLogout_WithoutToken() {
	resp := s.postJSON("/api/v1/auth/logout", dto.RevokeRequest{})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestGetMe() {
	s.registerIdentity("me-cred", "subject-me", "me@example.com")

	session := s.login("me-cred")

	req, err := http.NewRequest(http.MethodGet, s.BaseURL+"/api/v1/auth/me", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var account dto.AccountResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&account))
	s.Equal("me@example.com", account.Email)
	s.Equal(session.Account.ID, account.ID)
	s.NotNil(account.LastLoginOn)
}

func (s *Suite) TestGetMe_Unauthorized() {
	resp, err := http.Get(s.BaseURL + "/api/v1/auth/me")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

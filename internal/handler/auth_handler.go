package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hrcore/identity-service/internal/domain"
	"github.com/hrcore/identity-service/internal/dto"
	"github.com/hrcore/identity-service/internal/identity"
	"github.com/hrcore/identity-service/internal/service"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// AuthHandler handles session issuance requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// setRefreshCookie stores the refresh token in an HTTP-only cookie scoped
// to the auth endpoints.
func setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, value, maxAge, refreshCookiePath, "", true, true)
}

func clearRefreshCookie(c *gin.Context) {
	setRefreshCookie(c, "", -1)
}

// refreshTokenFrom reads the refresh token from the cookie, falling back
// to the JSON body for clients that cannot hold cookies.
func refreshTokenFrom(c *gin.Context) string {
	if value, err := c.Cookie(refreshCookieName); err == nil && value != "" {
		return value
	}

	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// Login handles session issuance
// @Summary Sign in with a provider credential
// @Description Exchange a verified identity provider credential for a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	session, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrProviderUnavailable):
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Error:   "Service unavailable",
				Message: "Identity provider is unreachable",
			})
		case errors.Is(err, service.ErrAccountInactive):
			c.JSON(http.StatusForbidden, dto.ErrorResponse{
				Error:   "Forbidden",
				Message: "Account is deactivated",
			})
		case errors.Is(err, identity.ErrInvalidCredential):
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid credential",
			})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "Internal server error",
				Message: "Failed to sign in",
			})
		}
		return
	}

	setRefreshCookie(c, session.Response.RefreshToken, session.RefreshExpiresIn)

	c.JSON(http.StatusOK, session.Response)
}

// Refresh handles token rotation
// @Summary Refresh tokens
// @Description Rotate the refresh token and issue a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := refreshTokenFrom(c)
	if refreshToken == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad request",
			Message: "Refresh token not found in cookie or body",
		})
		return
	}

	session, err := h.authService.Refresh(c.Request.Context(), refreshToken, c.ClientIP())
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			clearRefreshCookie(c)
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid refresh token",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Failed to refresh session",
		})
		return
	}

	setRefreshCookie(c, session.Response.RefreshToken, session.RefreshExpiresIn)

	c.JSON(http.StatusOK, session.Response)
}

// Logout handles session termination
// @Summary Sign out
// @Description Revoke the presented refresh token and clear the cookie
// @Tags auth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken := refreshTokenFrom(c)

	if refreshToken != "" {
		// An unknown or already-revoked token is not an error on logout.
		if _, err := h.authService.Revoke(c.Request.Context(), refreshToken, c.ClientIP()); err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "Internal server error",
				Message: "Failed to sign out",
			})
			return
		}
	}

	clearRefreshCookie(c)

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged out successfully",
	})
}

// GetMe handles getting current account profile
// @Summary Get current account profile
// @Description Get information about the current authenticated account
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	value, exists := c.Get("claims")
	if !exists {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Claims not found in context",
		})
		return
	}
	claims := value.(*domain.AccessClaims)

	account, err := h.authService.CurrentAccount(c.Request.Context(), claims)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Account no longer exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Failed to load account",
		})
		return
	}

	c.JSON(http.StatusOK, accountResponse(account))
}

func accountResponse(account *domain.Account) dto.AccountResponse {
	resp := dto.AccountResponse{
		ID:         account.ID,
		DisplayID:  account.DisplayID,
		Email:      account.Email,
		GivenName:  account.GivenName,
		FamilyName: account.FamilyName,
		PictureURL: account.PictureURL,
		Role:       account.Role,
		CreatedOn:  account.CreatedOn.UTC().Format(time.RFC3339),
	}
	if account.LastLoginOn != nil {
		s := account.LastLoginOn.UTC().Format(time.RFC3339)
		resp.LastLoginOn = &s
	}
	return resp
}

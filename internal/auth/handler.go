// File: internal/auth/handler.go
package auth

import (
	"errors"
	"io"
	"net/http"

	"identity_backend/internal/common"
	"identity_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	service      *Service
	oauthService *OAuthService
	cookies      CookieConfig
	logger       *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, oauthService *OAuthService, cookies CookieConfig, logger *zap.Logger) *Handler {
	return &Handler{
		service:      service,
		oauthService: oauthService,
		cookies:      cookies,
		logger:       logger,
	}
}

// RegisterRoutes sets up the routes for authentication operations. Every
// route here is public.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/sign-up", h.signUp)
	router.POST("/sign-in", h.signIn)
	router.POST("/sign-out", h.signOut)
	router.POST("/refresh-token", h.refreshToken)
	router.GET("/google", h.oauthLogin(domain.ProviderGoogle))
	router.GET("/google/redirect", h.oauthCallback(domain.ProviderGoogle))
	router.GET("/facebook", h.oauthLogin(domain.ProviderFacebook))
	router.GET("/facebook/redirect", h.oauthCallback(domain.ProviderFacebook))
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn(op+": Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return false
	}
	return true
}

func (h *Handler) signUp(c *gin.Context) {
	var req SignUpRequest
	if !h.bindJSON(c, &req, "Sign-up") {
		return
	}

	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	var variant domain.SignUp
	if provider == domain.ProviderLocal {
		if req.Password == "" {
			common.RespondWithError(c, common.NewValidationAPIError(map[string]string{
				"Password": "The password field is required.",
			}))
			return
		}
		variant = domain.NewLocalSignUp(domain.LocalSignUp{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Username:  req.Username,
		})
	} else {
		// The identity comes from the provider, never from the body.
		profile, err := h.oauthService.VerifyAccessToken(c.Request.Context(), provider, req.ProviderAccessToken)
		if err != nil {
			common.RespondWithError(c, err)
			return
		}
		if req.ProviderID != "" && req.ProviderID != profile.ProviderID {
			h.logger.Warn("Sign-up: provider id does not match access token", zap.String("provider", string(provider)))
			common.RespondWithError(c, common.ErrInvalidCredentials.WithDetails("Provider id does not match the access token."))
			return
		}
		if profile.Email == "" {
			profile.Email = req.Email
			profile.EmailVerified = false
		}
		if profile.FirstName == "" {
			profile.FirstName = req.FirstName
		}
		if profile.LastName == "" {
			profile.LastName = req.LastName
		}
		variant = domain.NewOAuthSignUp(provider, *profile)
	}

	result, err := h.service.SignUp(c.Request.Context(), variant, c.ClientIP())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	setTokenCookies(c, h.cookies, result)
	common.RespondCreated(c, "User registered successfully.", toTokenResponse(result))
}

func (h *Handler) signIn(c *gin.Context) {
	var req SignInRequest
	if !h.bindJSON(c, &req, "Sign-in") {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.EmailOrUsername, req.Password, c.ClientIP())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	setTokenCookies(c, h.cookies, result)
	common.RespondOK(c, "Login successful.", toTokenResponse(result))
}

func (h *Handler) signOut(c *gin.Context) {
	clearTokenCookies(c, h.cookies)
	common.RespondOK(c, "Signed out.", nil)
}

func (h *Handler) refreshToken(c *gin.Context) {
	token, _ := c.Cookie(h.cookies.RefreshName)
	if token == "" {
		var req RefreshTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
			return
		}
		token = req.RefreshToken
	}

	result, err := h.service.Refresh(c.Request.Context(), token, c.ClientIP())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	setTokenCookies(c, h.cookies, result)
	common.RespondOK(c, "Token refreshed successfully.", toTokenResponse(result))
}

func (h *Handler) oauthLogin(provider domain.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authURL, err := h.oauthService.LoginURL(c, provider)
		if err != nil {
			common.RespondWithError(c, err)
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, authURL)
	}
}

func (h *Handler) oauthCallback(provider domain.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if errorParam := c.Query("error"); errorParam != "" {
			errorDesc := c.Query("error_description")
			h.logger.Warn("OAuth callback error",
				zap.String("provider", string(provider)),
				zap.String("error", errorParam),
				zap.String("description", errorDesc))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Login failed: "+errorParam))
			return
		}

		code := c.Query("code")
		state := c.Query("state")
		if code == "" || state == "" {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Missing authorization code or state."))
			return
		}

		result, err := h.oauthService.HandleCallback(c, provider, code, state)
		if err != nil {
			common.RespondWithError(c, err)
			return
		}
		setTokenCookies(c, h.cookies, result)
		common.RespondOK(c, "Login successful.", toTokenResponse(result))
	}
}

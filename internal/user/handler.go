// File: internal/user/handler.go
package user

import (
	"errors"
	"net/http"

	"identity_backend/internal/common"
	"identity_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Guard builds the authorization middleware for a route policy.
type Guard func(policy domain.RoutePolicy) gin.HandlerFunc

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for profile operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, guard Guard) {
	userGroup := router.Group("/users")
	{
		public := guard(domain.PublicRoute())
		userGroup.GET("/check-username", public, h.checkUsername)
		userGroup.GET("/check-email", public, h.checkEmail)
		userGroup.GET("/:userId/profiles", public, h.getProfile)

		authenticated := userGroup.Group("")
		authenticated.Use(guard(domain.Authenticated()))
		{
			authenticated.GET("/me", h.getMe)
			authenticated.PUT("/me", h.updateMe)
			authenticated.DELETE("/me", h.deleteMe)
			authenticated.POST("/uploads", h.uploadImage)
		}
	}
}

func (h *Handler) currentUser(c *gin.Context) (*domain.User, bool) {
	val, exists := c.Get(common.IdentityKey)
	if !exists {
		h.logger.Error("Identity not found in context", zap.String("path", c.Request.URL.Path))
		common.RespondWithError(c, common.ErrUnauthorized)
		return nil, false
	}
	u, ok := val.(*domain.User)
	if !ok || u == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return nil, false
	}
	return u, true
}

func (h *Handler) getMe(c *gin.Context) {
	u, ok := h.currentUser(c)
	if !ok {
		return
	}
	common.RespondOK(c, "User profile retrieved successfully.", ToUserResponse(u))
}

func (h *Handler) updateMe(c *gin.Context) {
	u, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Profile update: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	updated, err := h.service.UpdateProfile(c.Request.Context(), u, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User profile updated successfully.", ToUserResponse(updated))
}

func (h *Handler) deleteMe(c *gin.Context) {
	u, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), u); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User deleted successfully.", nil)
}

func (h *Handler) uploadImage(c *gin.Context) {
	u, ok := h.currentUser(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	if fileHeader != nil && fileHeader.Size == 0 {
		fileHeader = nil
	}
	updated, err := h.service.UpdateImage(c.Request.Context(), u, fileHeader)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User image updated successfully.", ToUserResponse(updated))
}

func (h *Handler) checkUsername(c *gin.Context) {
	if err := h.service.CheckUsernameAvailable(c.Request.Context(), c.Query("username")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Username is available.", nil)
}

func (h *Handler) checkEmail(c *gin.Context) {
	if err := h.service.CheckEmailAvailable(c.Request.Context(), c.Query("email")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Email is available.", nil)
}

func (h *Handler) getProfile(c *gin.Context) {
	paramID := c.Param("userId")
	userID, err := uuid.Parse(paramID)
	if err != nil {
		h.logger.Warn("Invalid user ID format in URL parameter", zap.String("paramID", paramID), zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid user ID format."))
		return
	}
	u, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User retrieved successfully.", ToUserResponse(u))
}

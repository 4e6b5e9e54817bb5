package handler

import (
	"net/http"

	"shop_api/internal/middleware"
	"shop_api/internal/model"
	"shop_api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles signup, signin and password recovery
type AuthHandler struct {
	service service.AuthService
	log     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{service: s, log: log}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if !BindJSON(c, &req) {
		return
	}

	user, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Signin(c *gin.Context) {
	var req model.SigninRequest
	if !BindJSON(c, &req) {
		return
	}

	res, err := h.service.Signin(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if !BindJSON(c, &req) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to email"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if !BindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// UpdateProfilePicture expects the file in the "profilePicture" form field.
func (h *AuthHandler) UpdateProfilePicture(c *gin.Context) {
	defer cleanupMultipart(c)

	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}
	file, err := c.FormFile("profilePicture")
	if err != nil {
		RespondBadRequest(c, "profilePicture file is required", gin.H{"reason": err.Error()})
		return
	}

	user, err := h.service.UpdateProfilePicture(c.Request.Context(), userID, file)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// cleanupMultipart removes the temp files backing a parsed multipart form.
func cleanupMultipart(c *gin.Context) {
	if form := c.Request.MultipartForm; form != nil {
		_ = form.RemoveAll()
	}
}

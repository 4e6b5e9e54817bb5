package handler

import (
	"net/http"

	"shop_api/internal/middleware"
	"shop_api/internal/model"
	"shop_api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler serves /api/users
type UserHandler struct {
	auth  *AuthHandler
	users service.UserService
	log   *zap.Logger
}

func NewUserHandler(auth *AuthHandler, users service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{auth: auth, users: users, log: log}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if !BindJSON(c, &req) {
		return
	}
	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateUserRequest
	if !BindJSON(c, &req) {
		return
	}

	actorID, _ := middleware.UserID(c)
	user, err := h.users.Update(c.Request.Context(), actorID, middleware.Authorizer(c), id, req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// RegisterUserRoutes registers account routes, including signup and signin
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, authMW, usersAdminMW gin.HandlerFunc) {
	users := rg.Group("/users")
	{
		users.POST("/signup", h.auth.Signup)
		users.POST("/signin", h.auth.Signin)
		users.POST("/forgot-password", h.auth.ForgotPassword)
		users.POST("/reset-password", h.auth.ResetPassword)
		users.POST("/profile-picture", authMW, h.auth.UpdateProfilePicture)

		users.POST("", authMW, usersAdminMW, h.Create)
		users.GET("", authMW, usersAdminMW, h.List)
		users.GET("/:id", authMW, h.Get)
		users.PUT("/:id", authMW, h.Update)
		users.DELETE("/:id", authMW, usersAdminMW, h.Delete)
	}
}

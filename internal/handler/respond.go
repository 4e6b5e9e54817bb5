package handler

import (
	"errors"
	"net/http"

	"shop_api/internal/middleware"
	"shop_api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RespondError(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, middleware.NewAPIError(c, code, message, details))
}

func RespondBadRequest(c *gin.Context, message string, details any) {
	RespondError(c, http.StatusBadRequest, "invalid_request", message, details)
}

var errorKinds = []struct {
	kind   error
	status int
	code   string
}{
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{service.ErrConflict, http.StatusConflict, "conflict"},
	{service.ErrServiceUnavailable, http.StatusServiceUnavailable, "service_error"},
}

// respondServiceError maps a service error onto its status. Anything
// unclassified is logged and answered with a generic 500.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			msg := service.Message(err)
			if msg == "" {
				msg = k.kind.Error()
			}
			if k.status >= http.StatusInternalServerError {
				log.Error("downstream failure", zap.String("request_id", middleware.RequestIDFrom(c)), zap.Error(err))
			}
			RespondError(c, k.status, k.code, msg, nil)
			return
		}
	}

	log.Error("internal error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", middleware.RequestIDFrom(c)),
		zap.Error(err),
	)
	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
}

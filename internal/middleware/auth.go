package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wellspringapp/wellspring-backend/internal/handlers"
	"github.com/wellspringapp/wellspring-backend/internal/logger"
	"github.com/wellspringapp/wellspring-backend/internal/requestdata"
	"github.com/wellspringapp/wellspring-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// RequireAuth resolves the bearer token to an owner identity or aborts with a
// structured 401. Clients refresh once on a 401 and retry; a second 401 must
// be rendered as an empty state, so this never answers anything but 401/403
// for auth failures.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorEnvelope{
				Error: handlers.APIError{Message: "missing or invalid token", Code: "UNAUTHENTICATED"},
			})
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorEnvelope{
				Error: handlers.APIError{Message: "missing or invalid token", Code: "UNAUTHENTICATED"},
			})
			return
		}
		c.Request = c.Request.WithContext(ctx)
		rd := requestdata.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusForbidden, handlers.ErrorEnvelope{
				Error: handlers.APIError{Message: "forbidden", Code: "FORBIDDEN"},
			})
			return
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	return ""
}

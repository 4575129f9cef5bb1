package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/klass-lk/miniblog/internal/auth"
	"github.com/klass-lk/miniblog/internal/logger"
	"github.com/klass-lk/miniblog/internal/server"
)

type AuthMiddleware struct {
	log    *logger.Logger
	tokens *auth.TokenIssuer
}

func NewAuthMiddleware(log *logger.Logger, tokens *auth.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "auth"), tokens: tokens}
}

// RequireAuth verifies the bearer access token and stores the caller in the
// gin context under server.UserIDKey and server.RoleKey.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			server.NewContext(c, am.log).SendError(server.ErrUnauthorized.New("Access token required"))
			return
		}
		claims, err := am.tokens.ParseAccessToken(tokenString)
		if err != nil {
			am.log.Debug("rejected access token", "error", err)
			server.NewContext(c, am.log).SendError(server.ErrUnauthorized.New("Invalid or expired token"))
			return
		}
		c.Set(server.UserIDKey, claims.Subject)
		c.Set(server.RoleKey, claims.Role)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

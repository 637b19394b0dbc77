package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"order_chat/internal/domain"
	apperrors "order_chat/pkg/errors"
	"order_chat/pkg/jwt"
	"order_chat/pkg/logger"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"

	accessTokenQuery = "access_token"
)

type AuthMiddleware struct {
	tokens *jwt.Manager
	log    logger.Logger
}

func NewAuthMiddleware(tokens *jwt.Manager, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		log:    log,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := m.Identify(c)
		if err == nil && !identity.Authenticated() {
			err = apperrors.ErrUnauthenticated
		}
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextRole, identity.Role)
		c.Next()
	}
}

// Identify resolves the caller from a Bearer header or, for browser
// WebSocket clients, the access_token query parameter. A request carrying no
// token yields the anonymous identity and no error.
func (m *AuthMiddleware) Identify(c *gin.Context) (domain.Identity, error) {
	token := c.Query(accessTokenQuery)
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return domain.Identity{}, apperrors.ErrInvalidToken
		}
		token = parts[1]
	}
	if token == "" {
		return domain.Identity{}, nil
	}

	claims, err := m.tokens.Parse(token)
	if err != nil {
		m.log.Debug("Token validation failed", "error", err)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, apperrors.ErrTokenExpired
		}
		return domain.Identity{}, apperrors.ErrInvalidToken
	}

	userID, err := claims.NumericUserID()
	if err != nil {
		m.log.Debug("Invalid user id in token", "user_id", claims.UserID)
		return domain.Identity{}, apperrors.ErrInvalidToken
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		m.log.Debug("Invalid role in token", "role", claims.Role)
		return domain.Identity{}, apperrors.ErrInvalidToken
	}

	return domain.Identity{UserID: userID, Role: role}, nil
}

// IdentityFromContext returns what RequireAuth stored, or the anonymous
// identity.
func IdentityFromContext(c *gin.Context) domain.Identity {
	userID := c.GetInt64(ContextUserID)
	role, _ := c.Get(ContextRole)
	r, _ := role.(domain.Role)
	return domain.Identity{UserID: userID, Role: r}
}

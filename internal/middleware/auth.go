package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/pkg/apperrors"
)

const ContextPrincipalKey = "principal"

type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and attaches the principal to
// the request context. Requests without a valid token are rejected before
// any validation or handler code runs.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil || cfg.Auth.JWTSecret == "" {
			c.Error(apperrors.New(apperrors.ErrAuthFailed, "auth not configured", nil))
			c.Abort()
			return
		}

		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			c.Error(apperrors.New(apperrors.ErrAuthFailed, "missing bearer token", nil))
			c.Abort()
			return
		}

		claims := &AccessClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Auth.JWTSecret), nil
		}, jwt.WithIssuer(cfg.Auth.Issuer))
		if err != nil || !token.Valid {
			c.Error(apperrors.New(apperrors.ErrAuthFailed, "invalid or expired token", err))
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, &model.Principal{
			ID:    claims.Subject,
			Email: claims.Email,
			Role:  model.UserRole(claims.Role),
		})
		c.Next()
	}
}

// RequireRole gates a route group on the principal's role. Must run after
// AuthMiddleware.
func RequireRole(role model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p == nil {
			c.Error(apperrors.New(apperrors.ErrAuthFailed, "unauthenticated", nil))
			c.Abort()
			return
		}
		if p.Role != role {
			c.Error(apperrors.NewForbidden("insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, or nil for anonymous
// requests.
func PrincipalFrom(c *gin.Context) *model.Principal {
	if val, exists := c.Get(ContextPrincipalKey); exists {
		if p, ok := val.(*model.Principal); ok {
			return p
		}
	}
	return nil
}

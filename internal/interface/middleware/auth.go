package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/pkg/helpers"
	"github.com/oksasatya/party-lifecycle/pkg/response"
)

const (
	CtxUserIDKey   = "userID"
	CtxUserRoleKey = "userRole"
)

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie("access_token"); err == nil {
		return token
	}
	return ""
}

// Auth validates the access token from the Authorization header (or the
// access_token cookie) and sets userID and userRole in the Gin context.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", err.Error())
			c.Abort()
			return
		}
		role := entity.Role(claims.Role)
		if !role.Valid() {
			response.Error[any](c, http.StatusForbidden, "unknown role", claims.Role)
			c.Abort()
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserRoleKey, string(role))
		c.Next()
	}
}

// ActorFrom returns the authenticated actor set by Auth.
func ActorFrom(c *gin.Context) entity.Actor {
	return entity.Actor{ID: c.GetString(CtxUserIDKey), Role: entity.Role(c.GetString(CtxUserRoleKey))}
}

package router

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"testons-go/server/internal/handlers"
	"testons-go/server/internal/telemetry"
)

const roleContextKey = "role"

// RoleLoaderMiddleware copies the session's role into the context. Unknown
// roles are cleared so a stale cookie cannot carry privileges.
func RoleLoaderMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		role, ok := session.Get(handlers.SessionRoleKey).(string)
		if !ok {
			c.Next()
			return
		}
		if role != handlers.RoleAdmin && role != handlers.RoleViewer {
			log.Warn("Dropping session with unknown role", zap.String("role", role))
			session.Delete(handlers.SessionRoleKey)
			_ = session.Save()
			c.Next()
			return
		}
		c.Set(roleContextKey, role)
		c.Next()
	}
}

// RoleRequired lets the request through when the loaded role is one of roles.
func RoleRequired(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(roleContextKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

// MetricsMiddleware counts requests by matched route.
func MetricsMiddleware(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

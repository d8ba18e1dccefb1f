package middleware

import (
	"net/http"

	"compliance-ledger/internal/accesscontrol"
	"compliance-ledger/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	SessionUserID = "user_id"
	SessionRole   = "role"
)

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if sess.Get(SessionUserID) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

// RequirePermission lets the request through when the session role may perform act on obj.
func RequirePermission(enforcer *accesscontrol.Enforcer, obj accesscontrol.Object, act accesscontrol.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		roleStr, ok := sess.Get(SessionRole).(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}

		if !enforcer.Allowed(models.UserRole(roleStr), obj, act) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

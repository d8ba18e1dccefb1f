package middleware

import (
	"compliance-ledger/internal/ledger"
	"compliance-ledger/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const CurrentUserKey = "CurrentUser"

// InjectUser loads the logged in user and tags the request context with them, so ledger
// writes made during the request are attributed in the audit log.
func InjectUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get(SessionUserID).(uint); ok && uid > 0 {
			var user models.User
			if err := db.WithContext(c.Request.Context()).First(&user, uid).Error; err == nil {
				c.Set(CurrentUserKey, user)
				c.Request = c.Request.WithContext(ledger.WithActor(c.Request.Context(), user.ID))
			}
		}

		c.Next()
	}
}

// CurrentUser returns the user put in place by InjectUser.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

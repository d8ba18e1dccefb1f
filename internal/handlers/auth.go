package handlers

import (
	"errors"
	"net/http"
	"strings"

	"compliance-ledger/internal/middleware"
	"compliance-ledger/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type registerForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role"`
}

func (h *Handler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	form.Username = strings.TrimSpace(form.Username)
	if len(form.Username) < 3 || len(form.Password) < 6 {
		render(c, http.StatusBadRequest, gin.H{"error": "username or password too short"})
		return
	}

	role := models.UserRole(form.Role)
	if role == "" {
		role = models.RoleViewer
	}

	// admins are seeded, never self-registered
	switch role {
	case models.RoleEditor, models.RoleViewer:
	default:
		render(c, http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	var existing models.User
	err := h.db.WithContext(c.Request.Context()).Where("username = ?", form.Username).First(&existing).Error
	if err == nil {
		render(c, http.StatusConflict, gin.H{"error": "user already exists"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.log.Error("failed to look up user", zap.Error(err))
		render(c, http.StatusServiceUnavailable, gin.H{"error": "the store is unavailable, try again later"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		render(c, http.StatusBadRequest, gin.H{"error": "password cannot be used"})
		return
	}
	user := models.User{
		Username:     form.Username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		h.log.Error("failed to save user", zap.String("username", user.Username), zap.Error(err))
		render(c, http.StatusInternalServerError, gin.H{"error": "failed to save user"})
		return
	}

	h.log.Info("user registered", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	render(c, http.StatusCreated, gin.H{"user": user})
}

type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).Where("username = ?", strings.TrimSpace(form.Username)).First(&user).Error; err != nil {
		render(c, http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)); err != nil {
		render(c, http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	sess := sessions.Default(c)
	sess.Set(middleware.SessionUserID, user.ID)
	sess.Set(middleware.SessionRole, string(user.Role))
	if err := sess.Save(); err != nil {
		h.log.Error("failed to save session", zap.Error(err))
		render(c, http.StatusInternalServerError, gin.H{"error": "failed to start session"})
		return
	}

	render(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

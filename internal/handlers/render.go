package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"compliance-ledger/internal/ledger"
	"compliance-ledger/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Handler struct {
	ledger *ledger.Ledger
	db     *gorm.DB
	log    *zap.Logger
}

func New(l *ledger.Ledger, db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{ledger: l, db: db, log: log}
}

// render writes data as JSON and adds the logged in user to every response.
func render(c *gin.Context, status int, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if u, ok := middleware.CurrentUser(c); ok {
		data["current_user"] = gin.H{"id": u.ID, "username": u.Username, "role": u.Role}
	}

	c.JSON(status, data)
}

// fail maps a ledger error onto its HTTP status.
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		verr *ledger.ValidationError
		nerr *ledger.NotFoundError
		uerr *ledger.UniqueConstraintError
		serr *ledger.StoreUnavailableError
	)
	switch {
	case errors.As(err, &verr):
		render(c, http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.As(err, &nerr):
		render(c, http.StatusNotFound, gin.H{"error": nerr.Error()})
	case errors.As(err, &uerr):
		render(c, http.StatusConflict, gin.H{"error": uerr.Error()})
	case errors.As(err, &serr):
		h.log.Error("store unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
		render(c, http.StatusServiceUnavailable, gin.H{"error": "the store is unavailable, try again later"})
	default:
		h.log.Error("unexpected error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		render(c, http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
	_ = c.Error(err)
}

func badRequest(field, message string) error {
	return &ledger.ValidationError{Field: field, Message: message}
}

func parseID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest(param, "must be a positive integer")
	}
	return uint(id), nil
}

// parseDate reads a YYYY-MM-DD form value; an empty value is nil.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, badRequest(field, "must be a YYYY-MM-DD date")
	}
	return &t, nil
}

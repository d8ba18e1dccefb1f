package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"compliance-ledger/internal/ledger"
	"compliance-ledger/internal/middleware"
	"compliance-ledger/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFail_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{log: zap.NewNop()}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ledger.ValidationError{Field: "name", Message: "is required"}, http.StatusBadRequest},
		{"not found", &ledger.NotFoundError{Entity: "product", ID: 3}, http.StatusNotFound},
		{"unique", &ledger.UniqueConstraintError{Entity: "product", Err: errors.New("dup")}, http.StatusConflict},
		{"store", &ledger.StoreUnavailableError{Op: "create_product", Err: errors.New("down")}, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/products", nil)

			h.fail(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestRender_AddsCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.CurrentUserKey, models.User{Username: "alice@example.com", Role: models.RoleEditor})

	render(c, http.StatusOK, nil)
	assert.Contains(t, w.Body.String(), `"username":"alice@example.com"`)
	assert.Contains(t, w.Body.String(), `"role":"editor"`)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("start_date", "")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDate("start_date", " 2025-02-28 ")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2025-02-28", d.Format(dateLayout))

	_, err = parseDate("start_date", "2025-02-30")
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "start_date", verr.Field)
}

func TestTemplateForm_SplitsLists(t *testing.T) {
	in := templateForm{Name: "Secure", DBBricks: "a, b,,c", SecureBoot: "Yes"}.input()
	assert.Equal(t, []string{"a", "b", "c"}, in.DBBricks)
	assert.Empty(t, in.Chips)
	assert.Equal(t, models.Yes, in.SecureBoot)
}

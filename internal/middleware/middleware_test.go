package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"compliance-ledger/internal/accesscontrol"
	"compliance-ledger/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newEngine serves /as/:role, which logs the caller in with that role, and a guarded /write.
func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	enforcer, err := accesscontrol.New(nil, zap.NewNop())
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("secret"))))

	r.GET("/as/:role", func(c *gin.Context) {
		sess := sessions.Default(c)
		sess.Set(SessionUserID, uint(1))
		sess.Set(SessionRole, c.Param("role"))
		require.NoError(t, sess.Save())
		c.Status(http.StatusNoContent)
	})
	r.GET("/write", RequireAuth(), RequirePermission(enforcer, accesscontrol.ObjectProducts, accesscontrol.ActionWrite), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func call(r *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequirePermission(t *testing.T) {
	r := newEngine(t)

	assert.Equal(t, http.StatusUnauthorized, call(r, "/write", nil).Code)

	viewer := call(r, "/as/"+string(models.RoleViewer), nil).Result().Cookies()
	assert.Equal(t, http.StatusForbidden, call(r, "/write", viewer).Code)

	editor := call(r, "/as/"+string(models.RoleEditor), nil).Result().Cookies()
	assert.Equal(t, http.StatusOK, call(r, "/write", editor).Code)
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	r := newEngine(t)

	w := call(r, "/write", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/write", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

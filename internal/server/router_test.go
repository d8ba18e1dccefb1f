package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"compliance-ledger/internal/accesscontrol"
	"compliance-ledger/internal/config"
	"compliance-ledger/internal/database"
	"compliance-ledger/internal/handlers"
	"compliance-ledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminUser  = "admin@ledger.local"
	adminPass  = "Admin123!"
	editorUser = "editor@ledger.local"
	editorPass = "Editor123!"
	viewerUser = "viewer@ledger.local"
	viewerPass = "Viewer123!"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		DBDriver:      config.DriverSQLite,
		DBDSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		SessionSecret: "test-secret",
		AppEnv:        "test",
	}
	log := zap.NewNop()

	db, err := database.Open(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db, adminUser, adminPass, log))

	enforcer, err := accesscontrol.New(db, log)
	require.NoError(t, err)

	return NewRouter(Deps{
		Config:   cfg,
		DB:       db,
		Handlers: handlers.New(ledger.New(db, log), db, log),
		Enforcer: enforcer,
		Log:      log,
	})
}

type client struct {
	t       *testing.T
	r       *gin.Engine
	cookies []*http.Cookie
}

func (c *client) do(method, path, contentType string, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	if cks := w.Result().Cookies(); len(cks) > 0 {
		c.cookies = cks
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, "", "")
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, "application/x-www-form-urlencoded", form.Encode())
}

func login(t *testing.T, r *gin.Engine, username, password string) *client {
	t.Helper()
	c := &client{t: t, r: r}
	w := c.postForm("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotEmpty(t, c.cookies)
	return c
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)
	c := &client{t: t, r: r}

	w := c.get("/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "compliance_ledger_http_request_duration_seconds")
}

func TestLogin(t *testing.T) {
	r := newTestRouter(t)
	c := &client{t: t, r: r}

	w := c.postForm("/login", url.Values{"username": {viewerUser}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.get("/products")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c = login(t, r, viewerUser, viewerPass)
	w = c.get("/products")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	user := body["current_user"].(map[string]any)
	assert.Equal(t, viewerUser, user["username"])

	c.get("/logout")
	w = c.get("/products")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister(t *testing.T) {
	r := newTestRouter(t)
	c := &client{t: t, r: r}

	w := c.postForm("/register", url.Values{"username": {"new@example.com"}, "password": {"secret1"}, "role": {"admin"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.postForm("/register", url.Values{"username": {"new@example.com"}, "password": {"secret1"}, "role": {"editor"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = c.postForm("/register", url.Values{"username": {"new@example.com"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	login(t, r, "new@example.com", "secret1")
}

func TestPermissions(t *testing.T) {
	r := newTestRouter(t)
	viewer := login(t, r, viewerUser, viewerPass)
	editor := login(t, r, editorUser, editorPass)

	w := viewer.postForm("/products", url.Values{"name": {"Gateway"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = editor.postForm("/products", url.Values{"name": {"Gateway"}})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = editor.postForm("/templates", url.Values{"name": {"Basic"}, "secure_boot": {"Yes"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = editor.get("/audit")
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := login(t, r, adminUser, adminPass)
	w = admin.get("/audit")
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode(t, w)["logs"].([]any)
	require.NotEmpty(t, logs)
	entry := logs[0].(map[string]any)
	assert.Equal(t, "product", entry["entity"])
	assert.Equal(t, editorUser, entry["user"].(map[string]any)["username"])
}

func TestProductLifecycle(t *testing.T) {
	r := newTestRouter(t)
	editor := login(t, r, editorUser, editorPass)

	w := editor.postForm("/products", url.Values{"name": {"Gateway"}, "security_advisor": {"sec@example.com"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = editor.postForm("/products", url.Values{"name": {"G"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", decode(t, w)["field"])

	w = editor.postForm("/products/1/references", url.Values{"reference_number": {"GW-100"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = editor.get("/products/search?q=gw-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 1)

	w = editor.get("/products/9")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = editor.get("/products/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = editor.postForm("/products/1/cra-plan", url.Values{"plan": {"EoL"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = editor.postForm("/products/1/cra-plan", url.Values{"plan": {"EoL"}, "eol_date": {"31/12/2027"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = editor.postForm("/products/1/cra-plan", url.Values{"plan": {"Stop Sell in EU"}, "vp_approved": {"No"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	product := decode(t, w)["product"].(map[string]any)
	assert.Equal(t, "Yes", product["cra_stop_sell_flagged"])

	w = editor.get("/cra/stop-sell-flags")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 1)

	w = editor.get("/vulnerability/products?email=sec@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 1)
}

func TestMetadataAndAssessments(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, adminUser, adminPass)

	require.Equal(t, http.StatusCreated, admin.postForm("/products", url.Values{"name": {"Gateway"}}).Code)
	require.Equal(t, http.StatusCreated, admin.postForm("/products/1/references", url.Values{"reference_number": {"GW-1"}}).Code)
	require.Equal(t, http.StatusCreated, admin.postForm("/products/1/references", url.Values{"reference_number": {"GW-2"}}).Code)

	w := admin.postForm("/templates", url.Values{
		"name": {"Secure"}, "db_bricks": {"a, b"}, "chips": {"STM32"}, "secure_boot": {"Yes"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = admin.postForm("/metadata/assign", url.Values{"template_id": {"1"}, "reference_ids": {"1", "2"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["metadata"], 2)

	w = admin.postForm("/metadata/assign", url.Values{"template_id": {"1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = admin.postForm("/templates/1/edit", url.Values{"name": {"Secure"}, "db_bricks": {"z"}, "secure_boot": {"No"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = admin.get("/metadata")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["metadata"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"a", "b"}, rows[0].(map[string]any)["db_bricks"])

	// requirement 1 is part of the seeded catalog
	w = admin.postForm("/products/1/assessments", url.Values{"requirement_id": {"1"}, "status": {"Covered by Another Product"}, "covered_by_product_id": {"1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = admin.postForm("/products/1/assessments", url.Values{
		"requirement_id": {"1"}, "status": {"Implementing"}, "start_date": {"2025-01-01"}, "end_date": {"2025-06-30"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = admin.postForm("/products/1/assessments", url.Values{"requirement_id": {"404"}, "status": {"Implemented"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = admin.get("/products/1/assessments")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["frameworks"])
}

func TestSurveyAndDashboard(t *testing.T) {
	r := newTestRouter(t)
	editor := login(t, r, editorUser, editorPass)
	require.Equal(t, http.StatusCreated, editor.postForm("/products", url.Values{"name": {"Gateway"}}).Code)

	answers := url.Values{
		"aware_of_cra": {"No"}, "cra_compliant": {"Yes"}, "kev_process_exists": {"Yes"}, "disclosure_process_se": {"Yes"},
	}
	w := editor.postForm("/products/1/survey", answers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	answers.Set("action_description", "Train the team")
	answers.Set("follow_up_date", "2025-09-01")
	answers.Set("support_requested", "Yes")
	w = editor.postForm("/products/1/survey", answers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, editorUser, body["survey"].(map[string]any)["submitted_by"])
	require.NotNil(t, body["support_request"])

	w = editor.postForm("/support-requests/1/answer", url.Values{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = editor.postForm("/support-requests/1/answer", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = editor.get("/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	d := decode(t, w)["dashboard"].(map[string]any)
	assert.Equal(t, float64(1), d["summary"].(map[string]any)["total"])
	assert.Equal(t, float64(1), d["support_requests"].(map[string]any)["closed"])
}

func TestImportExport(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, adminUser, adminPass)
	editor := login(t, r, editorUser, editorPass)

	w := editor.do(http.MethodPost, "/import/products", "text/csv", "id,name\n1,Gateway\n")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = admin.do(http.MethodPost, "/import/products", "text/csv", "name\nGateway\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "header", decode(t, w)["field"])

	w = admin.do(http.MethodPost, "/import/products", "text/csv", "id,name,cra_plan,cra_stop_sell_vp_approved\n1,Gateway,Stop Sell in EU,No\n2,Sensor,,\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode(t, w)["imported"])

	w = admin.do(http.MethodPost, "/import/products", "text/csv", "id,name\n2,Clash\n")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = editor.get("/export/products")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[1], ",Stop Sell in EU,,No,Yes"), lines[1])
}

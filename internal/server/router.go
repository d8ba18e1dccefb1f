package server

import (
	"net/http"

	"compliance-ledger/internal/accesscontrol"
	"compliance-ledger/internal/config"
	"compliance-ledger/internal/handlers"
	"compliance-ledger/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Handlers *handlers.Handler
	Enforcer *accesscontrol.Enforcer
	Log      *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Log))

	store := cookie.NewStore([]byte(d.Config.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   8 * 60 * 60,
		HttpOnly: true,
		Secure:   d.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("ledger_session", store))

	r.Use(middleware.InjectUser(d.DB))

	h := d.Handlers
	can := func(obj accesscontrol.Object, act accesscontrol.Action) gin.HandlerFunc {
		return middleware.RequirePermission(d.Enforcer, obj, act)
	}
	read, write := accesscontrol.ActionRead, accesscontrol.ActionWrite

	// AUTH
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	// PRODUCTS
	auth.GET("/products", can(accesscontrol.ObjectProducts, read), h.ListProducts)
	auth.POST("/products", can(accesscontrol.ObjectProducts, write), h.CreateProduct)
	auth.GET("/products/search", can(accesscontrol.ObjectProducts, read), h.SearchProducts)
	auth.GET("/products/:id", can(accesscontrol.ObjectProducts, read), h.ShowProduct)
	auth.POST("/products/:id/edit", can(accesscontrol.ObjectProducts, write), h.UpdateProduct)

	// CRA PLAN
	auth.POST("/products/:id/cra-plan", can(accesscontrol.ObjectCRA, write), h.SetCraPlan)
	auth.GET("/cra/stop-sell-flags", can(accesscontrol.ObjectCRA, read), h.ListStopSellFlags)

	// COMMERCIAL REFERENCES
	auth.GET("/products/:id/references", can(accesscontrol.ObjectReferences, read), h.ListProductReferences)
	auth.POST("/products/:id/references", can(accesscontrol.ObjectReferences, write), h.CreateReference)
	auth.GET("/references", can(accesscontrol.ObjectReferences, read), h.ListReferences)

	// METADATA
	auth.GET("/templates", can(accesscontrol.ObjectTemplates, read), h.ListTemplates)
	auth.POST("/templates", can(accesscontrol.ObjectTemplates, write), h.CreateTemplate)
	auth.POST("/templates/:id/edit", can(accesscontrol.ObjectTemplates, write), h.UpdateTemplate)
	auth.POST("/metadata/assign", can(accesscontrol.ObjectMetadata, write), h.AssignMetadata)
	auth.GET("/metadata", can(accesscontrol.ObjectMetadata, read), h.ListMetadata)

	// REQUIREMENTS
	auth.GET("/requirements", can(accesscontrol.ObjectRequirements, read), h.ListRequirements)
	auth.POST("/requirements", can(accesscontrol.ObjectRequirements, write), h.CreateRequirement)
	auth.GET("/products/:id/assessments", can(accesscontrol.ObjectAssessments, read), h.ListAssessments)
	auth.POST("/products/:id/assessments", can(accesscontrol.ObjectAssessments, write), h.UpsertAssessment)

	// VULNERABILITY HANDLING
	auth.GET("/vulnerability/products", can(accesscontrol.ObjectSurvey, read), h.AssignedProducts)
	auth.POST("/products/:id/survey", can(accesscontrol.ObjectSurvey, write), h.RecordSurvey)
	auth.GET("/support-requests", can(accesscontrol.ObjectSurvey, read), h.ListSupportRequests)
	auth.POST("/support-requests/:id/answer", can(accesscontrol.ObjectSurvey, write), h.AnswerSupportRequest)

	// ANALYTICS AND DATA
	auth.GET("/dashboard", can(accesscontrol.ObjectDashboard, read), h.Dashboard)
	auth.GET("/export/products", can(accesscontrol.ObjectProducts, read), h.ExportProducts)
	auth.POST("/import/products", can(accesscontrol.ObjectImport, write), h.ImportProducts)

	// AUDIT
	auth.GET("/audit", can(accesscontrol.ObjectAudit, read), h.ListAuditLogs)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

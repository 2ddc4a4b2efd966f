package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/internal/handler"
	"github.com/noah-isme/datamatch-api/internal/middleware"
	"github.com/noah-isme/datamatch-api/internal/service"
	"github.com/noah-isme/datamatch-api/pkg/config"
	"github.com/noah-isme/datamatch-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/datamatch-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/datamatch-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by Setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Dataset   *handler.DatasetHandler
	Reference *handler.ReferenceHandler
	Analysis  *handler.AnalysisHandler
	Billing   *handler.BillingHandler
	Admin     *handler.AdminHandler
	Public    *handler.PublicHandler
	Health    *handler.HealthHandler
}

// Setup builds the gin engine with global middleware and every route.
func Setup(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, gate middleware.PrincipalResolver, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Health.Prometheus)
	r.GET("/uploads/*name", h.Public.Upload)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		auth.POST("/register", h.Auth.Register)
		auth.POST("/verify-otp", h.Auth.VerifyOTP)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)

		api.GET("/payment/plans", h.Billing.Plans)
		api.GET("/public-datasets", h.Public.Datasets)

		authorized := api.Group("")
		authorized.Use(middleware.Authenticate(gate))
		{
			authorized.POST("/data/upload-dataset", h.Dataset.Upload)
			authorized.GET("/data/my", h.Dataset.Mine)
			authorized.GET("/data/all", middleware.StaffOnly(), h.Dataset.All)
			authorized.POST("/data/:id/set-color", middleware.StaffOnly(), h.Dataset.SetColor)

			master := authorized.Group("/dataset-master", middleware.StaffOnly())
			master.POST("/set-final-value", h.Reference.SetFinalValue)
			master.GET("/all", h.Reference.List)

			authorized.POST("/analyze", h.Analysis.Analyze)
			authorized.GET("/history", h.Analysis.History)
			authorized.GET("/history/export", h.Analysis.ExportHistory)

			authorized.POST("/payment/simulate-payment", h.Billing.SimulatePayment)
			authorized.POST("/keys/generate", h.Billing.GenerateKey)
			authorized.GET("/keys/my", h.Billing.MyKeys)

			admin := authorized.Group("/admin", middleware.AdminOnly())
			admin.GET("/users", h.Admin.Users)
			admin.PATCH("/users/:id/block", h.Admin.ToggleBlock)
			admin.POST("/users/promote", h.Admin.Promote)
			admin.GET("/keys", h.Admin.Keys)
			admin.DELETE("/keys/:id/revoke", h.Admin.RevokeKey)
			admin.GET("/payments", h.Admin.Payments)
			admin.GET("/datasets", h.Admin.Datasets)
			admin.GET("/overview", h.Admin.Overview)
		}
	}

	return r
}

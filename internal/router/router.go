package router

import (
	"time"

	"lunapos/internal/config"
	"lunapos/internal/handler"
	"lunapos/internal/infra"
	"lunapos/internal/middleware"
	"lunapos/internal/repository"
	"lunapos/internal/service"
	"lunapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, sinkCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	terminalRepo := repository.NewTerminalRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	productRepo := repository.NewProductRepository(db)
	cutRepo := repository.NewCashCutRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	terminalSvc := service.NewTerminalService(terminalRepo, auditRepo, dispatcher)
	sessionSvc := service.NewSessionService(sessionRepo, terminalRepo, saleRepo, cutRepo, auditRepo, dispatcher)
	saleSvc := service.NewSaleService(saleRepo, sessionRepo, productRepo, cfg)
	reconSvc := service.NewReconciliationService(saleRepo, sessionRepo, terminalRepo, cutRepo, auditRepo, dispatcher, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	terminalsH := handler.NewTerminalsHandler(terminalSvc)
	sessionsH := handler.NewSessionsHandler(sessionSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	reconH := handler.NewReconciliationHandler(reconSvc)
	productsH := handler.NewProductsHandler(productRepo, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, sinkCB))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per-endpoint
		anyStaff := middleware.RequireRole("cashier", "supervisor", "admin")
		backOffice := middleware.RequireRole("supervisor", "admin")
		adminOnly := middleware.RequireRole("admin")

		v1.GET("/terminals", anyStaff, terminalsH.List)
		v1.GET("/terminals/:id/validate", anyStaff, terminalsH.Validate)
		v1.POST("/terminals", adminOnly, terminalsH.Register)
		v1.DELETE("/terminals/:id", adminOnly, terminalsH.Deactivate)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", anyStaff, sessionsH.Open)
			sessions.GET("/active", anyStaff, sessionsH.Active)
			sessions.GET("/blocking", anyStaff, sessionsH.Blocking)
			sessions.GET("/history", backOffice, sessionsH.History)
			sessions.POST("/:id/close", anyStaff, sessionsH.Close)
			sessions.GET("/:id", anyStaff, sessionsH.Report)
		}

		v1.POST("/sales", anyStaff, salesH.Record)
		v1.GET("/sales", anyStaff, salesH.List)

		recon := v1.Group("/reconciliation")
		{
			recon.GET("/summary", anyStaff, reconH.Summary)
			recon.POST("/day-close", backOffice, reconH.DayClose)
			recon.GET("/cuts", backOffice, reconH.Cuts)
		}

		v1.GET("/products/:code", anyStaff, productsH.Lookup)
		v1.GET("/products/:code/movements", backOffice, productsH.Movements)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

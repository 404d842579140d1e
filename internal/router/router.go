package router

import (
	"time"

	"winecellar/internal/config"
	"winecellar/internal/handler"
	"winecellar/internal/middleware"
	"winecellar/internal/repository"
	"winecellar/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine. rdb may be
// nil when Redis is not configured.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())

	// ── Repositories ─────────────────────────────────────────────────────────
	repos := service.WineLotRepos{
		Lots:       repository.NewWineLotRepository(db),
		Containers: repository.NewContainerRepository(db),
		Movements:  repository.NewMovementRepository(db),
		Products:   repository.NewProductRepository(db),
		Costs:      repository.NewCostLedger(db),
		Labs:       repository.NewLabAnalysisRepository(db),
		Parcels:    repository.NewParcelRepository(db),
	}
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	guard := service.NewIdempotencyGuard(idempotencyRepo, rdb, time.Duration(cfg.IdempotencyLockSeconds)*time.Second)
	containerSvc := service.NewContainerService(repos.Containers)
	lotSvc := service.NewWineLotService(repos, guard, cfg.YieldRatio)
	movementSvc := service.NewMovementService(repos.Lots, repos.Containers, repos.Movements, guard)
	bottlingSvc := service.NewBottlingService(repos.Lots, repos.Containers, repos.Movements, repos.Products, repos.Costs, guard)

	// ── Handlers ─────────────────────────────────────────────────────────────
	containersH := handler.NewContainersHandler(containerSvc, movementSvc)
	lotsH := handler.NewLotsHandler(lotSvc)
	movementsH := handler.NewMovementsHandler(movementSvc)
	bottlingH := handler.NewBottlingHandler(bottlingSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes; the tenant comes from the token
	limit := cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = 600
	}
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RateLimiter(limit, time.Minute))
	staff := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleCellar)
	admin := middleware.RequireRole(middleware.RoleAdmin)
	{
		containers := v1.Group("/containers", staff)
		{
			containers.POST("", containersH.Create)
			containers.GET("", containersH.List)
			containers.GET("/:id", containersH.Get)
			containers.PUT("/:id", containersH.Update)
			containers.DELETE("/:id", containersH.Delete)
			containers.POST("/:id/cleaning", containersH.StartCleaning)
			containers.DELETE("/:id/cleaning", containersH.FinishCleaning)
		}

		lots := v1.Group("/lots", staff)
		{
			lots.POST("", lotsH.Create)
			lots.GET("", lotsH.List)
			lots.GET("/:id", lotsH.Get)
			lots.GET("/:id/movements", lotsH.Movements)
			lots.GET("/:id/traceability", lotsH.Traceability)
			lots.POST("/:id/prepare-bottling", lotsH.PrepareBottling)
			// Administrative operations
			lots.DELETE("/:id", admin, lotsH.Delete)
			lots.PATCH("/:id/status", admin, lotsH.SetStatus)
		}

		movements := v1.Group("/movements", staff)
		{
			movements.POST("", movementsH.Record)
			movements.GET("", movementsH.List)
			movements.POST("/bulk-transfer", movementsH.BulkTransfer)
			movements.POST("/top-up", movementsH.TopUp)
			movements.POST("/bottling", movementsH.Bottling)
		}

		v1.POST("/bottling/products", staff, bottlingH.CreateProduct)
		v1.GET("/cellar/overview", staff, lotsH.Overview)
	}

	return r
}

package routes

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/recibo-api/internal/config"
	domainRepo "github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/internal/presentation/http/handler"
	"github.com/sangkips/recibo-api/internal/presentation/http/middleware"
	"github.com/sangkips/recibo-api/internal/telemetry"
)

// Handlers holds all the HTTP handlers used for route registration
type Handlers struct {
	Auth    *handler.AuthHandler
	Receipt *handler.ReceiptHandler
	Product *handler.ProductHandler
	Filter  *handler.FilterHandler
	Printer *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes
type Deps struct {
	Cfg             *config.Config
	Logger          *slog.Logger
	Tokens          middleware.TokenValidator
	IdempotencyRepo domainRepo.IdempotencyRepository
	Metrics         *telemetry.Metrics
	// RateLimiter guards the public write endpoints. Nil disables limiting
	RateLimiter *middleware.IPRateLimiter
}

// Setup creates the Gin router and registers all routes
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics.HTTP))
	}
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(middleware.MetricsHandler(deps.Metrics.Registry)))
	}

	v1 := router.Group("/api/v1")
	{
		// Public routes (kiosk and customers)
		registerPublicRoutes(v1, h, deps)

		// Staff routes (authentication required)
		staff := v1.Group("")
		staff.Use(middleware.AuthMiddleware(deps.Tokens))
		registerStaffRoutes(staff, h)
	}

	return router
}

func registerPublicRoutes(v1 *gin.RouterGroup, h *Handlers, deps *Deps) {
	writes := []gin.HandlerFunc{}
	if deps.RateLimiter != nil {
		writes = append(writes, deps.RateLimiter.Middleware())
	}

	auth := v1.Group("/auth")
	{
		auth.POST("/login", slices.Concat(writes, []gin.HandlerFunc{h.Auth.Login})...)
	}

	v1.GET("/products", h.Product.List)
	v1.GET("/products/:id", h.Product.Get)
	v1.GET("/filters", h.Filter.List)

	idempotency := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo:   deps.IdempotencyRepo,
		Logger: deps.Logger,
	})

	receipts := v1.Group("/receipts")
	{
		receipts.POST("", slices.Concat(writes, []gin.HandlerFunc{idempotency, h.Receipt.Create})...)
		receipts.POST("/preferential", slices.Concat(writes, []gin.HandlerFunc{idempotency, h.Receipt.RequestPreferential})...)
		receipts.GET("/call/:callNumber", h.Receipt.GetByCallNumber)
	}
}

func registerStaffRoutes(staff *gin.RouterGroup, h *Handlers) {
	staff.GET("/auth/me", h.Auth.Me)

	receipts := staff.Group("/receipts")
	{
		receipts.GET("", h.Receipt.List)
		receipts.GET("/pending-preferential", h.Receipt.ListPendingPreferential)
		receipts.GET("/:id", h.Receipt.Get)
		receipts.PATCH("/:id", h.Receipt.Update)
		receipts.DELETE("", h.Receipt.Clear)
	}

	products := staff.Group("/products")
	{
		products.POST("", h.Product.Create)
		products.PUT("/:id", h.Product.Update)
		products.DELETE("/:id", h.Product.Delete)
	}

	filters := staff.Group("/filters")
	{
		filters.POST("", h.Filter.Create)
		filters.DELETE("/:id", h.Filter.Delete)
	}

	printer := staff.Group("/printer")
	{
		printer.GET("/status", h.Printer.GetStatus)
		printer.POST("/receipts/:id", h.Printer.PrintReceipt)
	}
}

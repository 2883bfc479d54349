package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/mw"
)

// RouterConfig carries the HTTP-layer knobs.
type RouterConfig struct {
	RateLimitPerSec float64
	RateBurst       int
	ClientIDHeader  string
	CacheTTL        time.Duration
	AllowOrigins    []string
}

// NewRouter creates and configures a new Gin router.
func NewRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Cache-Control"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", handler.Health)

	rateLimiter := mw.RateLimiter(
		mw.NewClientRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateBurst, 10*time.Minute),
		mw.ClientKey(cfg.ClientIDHeader),
	)
	responses := mw.NewResponseCache(cfg.CacheTTL)
	caching := responses.Cache()

	api := r.Group("/api")
	api.Use(rateLimiter, responses.Invalidate())
	{
		api.POST("/borrowings", handler.ReserveItem)
		api.GET("/borrowings", caching, handler.ListBorrowings)
		api.GET("/borrowings/:id", handler.GetBorrowing)
		api.POST("/borrowings/:id/activate", handler.ActivateBorrowing)
		api.POST("/borrowings/:id/extend", handler.ExtendBorrowing)
		api.POST("/borrowings/:id/return", handler.ReturnItem)
		api.POST("/borrowings/:id/cancel", handler.CancelBorrowing)

		api.POST("/transportations", handler.ScheduleTransport)
		api.GET("/transportations", caching, handler.ListTransportations)
		api.GET("/transportations/:id", handler.GetTransportation)
		api.PATCH("/transportations/:id/status", handler.UpdateTransportStatus)

		api.POST("/keepings/adjust", handler.AdjustKeeping)
		api.GET("/items/:id/availability", handler.ItemAvailability)
		api.GET("/vehicles/:id/availability", handler.ResourceAvailability(domain.ResourceVehicle))
		api.GET("/drivers/:id/availability", handler.ResourceAvailability(domain.ResourceDriver))

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

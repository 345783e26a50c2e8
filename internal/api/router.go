package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"meeting-scheduler-backend/internal/mw"
	"meeting-scheduler-backend/internal/scheduler"
	"meeting-scheduler-backend/internal/store"
)

// RouterOptions bundles the tunables the router needs from configuration.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(svc *scheduler.Service, s store.Store, webpushOptions *webpush.Options, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(svc, s, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)
	caching := mw.Cache(opts.CacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Event lifecycle
		api.POST("/events", handler.CreateEvent)
		api.GET("/events/:event_id", caching, handler.GetEvent)
		api.POST("/events/:event_id/rsvp", handler.RecordAvailability)
		api.POST("/events/:event_id/finalize", handler.FinalizeEvent)

		// Confirmation push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"hydromat-tooling-backend/config"
	"hydromat-tooling-backend/internal/events"
	"hydromat-tooling-backend/internal/mw"
	"hydromat-tooling-backend/internal/security"
	"hydromat-tooling-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, guard *security.Guard, dispatcher *events.Dispatcher,
	webpushOptions *webpush.Options, serverCfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(s, guard, dispatcher, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(serverCfg.RateLimitPerSec), serverCfg.RateLimitBurst)

	cacheTTL := time.Duration(serverCfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Static head table
		api.GET("/heads", caching, GetHeadPositions)

		// Profiles
		api.GET("/profiles", GetProfiles(db))
		api.POST("/profiles", handler.CreateProfile)
		api.GET("/profiles/:profile_id", handler.GetProfile)
		api.PUT("/profiles/:profile_id", handler.UpdateProfile)
		api.DELETE("/profiles/:profile_id", handler.DeleteProfile)
		api.GET("/profiles/:profile_id/statistics", handler.GetProfileStatistics)

		// Tools
		api.GET("/toolcode/:code", DecodeToolCode)
		api.GET("/profiles/:profile_id/tools", handler.GetProfileTools)
		api.POST("/tools", handler.CreateTool)
		api.GET("/tools/code/:code", handler.GetToolByCode)
		api.GET("/tools/:tool_id", handler.GetTool)
		api.PUT("/tools/:tool_id", handler.UpdateTool)
		api.DELETE("/tools/:tool_id", handler.DeleteTool)
		api.GET("/tools/:tool_id/set", handler.GetToolSet)

		// Head assignments
		api.GET("/profiles/:profile_id/assignments", handler.GetAssignments)
		api.PUT("/profiles/:profile_id/heads/:head", handler.AssignHead)
		api.DELETE("/profiles/:profile_id/heads/:head", handler.ClearHead)

		// Size catalogs
		api.GET("/material_sizes", caching, GetMaterialSizes(db))
		api.POST("/material_sizes", handler.CreateMaterialSize)
		api.GET("/profiles/:profile_id/variants", handler.GetVariants)
		api.POST("/profiles/:profile_id/variants", handler.CreateVariant)
		api.PUT("/variants/:variant_id", handler.UpdateVariant)
		api.DELETE("/variants/:variant_id", handler.DeleteVariant)

		// Access mode
		api.GET("/security/mode", handler.GetSecurityMode)
		api.PUT("/security/mode", handler.PutSecurityMode)

		// Push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

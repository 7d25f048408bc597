// Package router wires handlers and middleware into the gin engine.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yukikurage/study-group-api/internal/handlers"
	"github.com/yukikurage/study-group-api/internal/metrics"
	"github.com/yukikurage/study-group-api/internal/middleware"
)

// Dependencies holds everything the routes need.
type Dependencies struct {
	FrontendOrigin string
	// TrustedProxies lists proxy addresses or CIDRs whose forwarding
	// headers are honored. Empty trusts none and ClientIP is the peer.
	TrustedProxies []string

	AuthHandler  *handlers.AuthHandler
	GroupHandler *handlers.GroupHandler
	TaskHandler  *handlers.TaskHandler

	Authenticator *middleware.Authenticator
	// AuthLimiter throttles register and login; nil disables it.
	AuthLimiter *middleware.RateLimiter

	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer

	// HealthCheck reports storage readiness; nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

// New builds the engine with all routes registered.
func New(deps Dependencies) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		slog.Warn("invalid trusted proxies, trusting none", slog.String("error", err.Error()))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		middleware.Recovery(),
		middleware.RequestLogger(deps.Metrics),
		middleware.CORS(deps.FrontendOrigin),
	)

	r.GET("/health", healthHandler(deps.HealthCheck))
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	requireAuth := deps.Authenticator.RequireAuth()
	optionalAuth := deps.Authenticator.OptionalAuth()
	groupID := middleware.RequireIDParams("id")
	taskID := middleware.RequireIDParams("id", "taskId")

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", rateLimited(deps.AuthLimiter, deps.AuthHandler.Register)...)
			auth.POST("/login", rateLimited(deps.AuthLimiter, deps.AuthHandler.Login)...)
			auth.POST("/logout", requireAuth, deps.AuthHandler.Logout)
			auth.GET("/me", requireAuth, deps.AuthHandler.GetCurrentUser)
		}

		groups := api.Group("/groups")
		{
			groups.POST("", requireAuth, deps.GroupHandler.CreateGroup)
			groups.GET("", optionalAuth, deps.GroupHandler.ListGroups)
			groups.GET("/:id", groupID, optionalAuth, deps.GroupHandler.GetGroup)
			groups.PUT("/:id", requireAuth, groupID, deps.GroupHandler.UpdateGroup)
			groups.DELETE("/:id", requireAuth, groupID, deps.GroupHandler.DeleteGroup)
			groups.POST("/:id/join", requireAuth, groupID, deps.GroupHandler.JoinGroup)
			groups.POST("/:id/leave", requireAuth, groupID, deps.GroupHandler.LeaveGroup)
			groups.POST("/:id/regenerate-code", requireAuth, groupID, deps.GroupHandler.RegenerateJoinCode)
			groups.DELETE("/:id/members/:userId", requireAuth, middleware.RequireIDParams("id", "userId"), deps.GroupHandler.RemoveMember)

			groups.POST("/:id/tasks", requireAuth, groupID, deps.TaskHandler.CreateTask)
			groups.GET("/:id/tasks", requireAuth, groupID, deps.TaskHandler.ListTasks)
			groups.GET("/:id/tasks/:taskId", requireAuth, taskID, deps.TaskHandler.GetTask)
			groups.PUT("/:id/tasks/:taskId", requireAuth, taskID, deps.TaskHandler.UpdateTask)
			groups.DELETE("/:id/tasks/:taskId", requireAuth, taskID, deps.TaskHandler.DeleteTask)
		}
	}

	return r
}

func rateLimited(limiter *middleware.RateLimiter, h gin.HandlerFunc) []gin.HandlerFunc {
	if limiter == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{limiter.Middleware(), h}
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Study Group API is running",
		})
	}
}

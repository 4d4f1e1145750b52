package rest

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	sloggin "github.com/samber/slog-gin"
)

// RouterOptions carries the optional pieces of the router. A nil
// Registerer disables request metrics and a nil AccessLog disables access
// logging.
type RouterOptions struct {
	Registerer prometheus.Registerer
	AccessLog  *slog.Logger
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	if opts.AccessLog != nil {
		r.Use(sloggin.New(opts.AccessLog))
	}
	if opts.Registerer != nil {
		r.Use(newHTTPMetrics(opts.Registerer).middleware())
	}

	r.GET("/health", h.Health)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
	})

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/request_otp", h.RequestOTP)
	auth.POST("/verify_otp", h.VerifyOTP)
	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)

	api.GET("/uploads/properties/:filename", h.ServeImage)

	signedIn := api.Group("", h.Identity())
	signedIn.GET("/user/me", h.Me)
	signedIn.PUT("/notifications/mark_all_read", h.MarkAllRead)
	signedIn.POST("/upload/property-image", h.UploadImage)
	signedIn.GET("/reports/assets/csv", h.AssetsCSV)
	signedIn.GET("/reports/assets/pdf", h.AssetsPDF)

	// The collection is checked before the caller.
	api.GET("/:collection", h.Collection(), h.Identity(), h.List)
	api.POST("/:collection", h.Collection(), h.Identity(), h.Create)
	api.GET("/:collection/:id", h.Collection(), h.Identity(), h.Get)
	api.PUT("/:collection/:id", h.Collection(), h.Identity(), h.Update)
	api.DELETE("/:collection/:id", h.Collection(), h.Identity(), h.Delete)

	return r
}

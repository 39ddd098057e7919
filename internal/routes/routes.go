package routes

import (
	"log"
	"time"

	"github.com/01moynul/workshop-logistics/internal/handlers"
	"github.com/01moynul/workshop-logistics/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the configured front-end origins. A "*" entry
// allows any origin.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// SecurityHeaders sets the hardening headers sent in production.
func SecurityHeaders() gin.HandlerFunc {
	return secure.New(secure.Config{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "no-referrer",
		IENoOpen:              true,
	})
}

// Compression gzips JSON responses. Downloads and the xlsx export are
// already compressed or streamed from disk, so they are skipped.
func Compression() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/uploads", "/api/files", "/api/requests/export", "/api/export"}),
	)
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = 8 << 20

	if len(h.Config.CORSOrigins) > 0 {
		router.Use(CORSMiddleware(h.Config.CORSOrigins))
	} else {
		log.Println("WARNING: no CORS origins configured, cross-origin requests will be refused")
	}
	if h.Config.IsProduction() {
		router.Use(SecurityHeaders(), Compression())
	}

	router.GET("/", h.Index)
	router.GET("/health", h.Health)
	router.GET("/uploads/:filename", h.ServeSignedUpload)

	authenticate := middleware.AuthMiddleware(h.Tokens)

	api := router.Group("/api")
	{
		// --- Public ---
		api.GET("/health", h.Health)
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/requests", h.SubmitRequest)

		// --- Authenticated ---
		api.GET("/files/:filename", authenticate, h.ServeFile)

		// --- Admin ---
		admin := api.Group("/")
		admin.Use(authenticate, middleware.AdminMiddleware())
		{
			admin.GET("/requests", h.GetAllRequests)
			admin.GET("/requests/export", h.ExportRequests)
			admin.GET("/export", h.ExportRequests)
			admin.GET("/requests/:id", h.GetRequest)
			admin.PATCH("/requests/:id/status", h.UpdateRequestStatus)
			admin.DELETE("/requests/:id", h.DeleteRequest)
		}
	}

	return router
}

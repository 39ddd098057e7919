package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/workshop-logistics/internal/auth"
	"github.com/01moynul/workshop-logistics/internal/config"
	"github.com/01moynul/workshop-logistics/internal/database"
	"github.com/01moynul/workshop-logistics/internal/handlers"
	"github.com/01moynul/workshop-logistics/internal/routes"
	"github.com/01moynul/workshop-logistics/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}
	cfg := config.Load()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Println("WARNING: JWT_SECRET is not set, using the development fallback secret")
	}

	// 1. --- Database ---
	db, err := database.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 2. --- File Store ---
	files, err := storage.NewFileStore(cfg.UploadDir, cfg.MaxFileSize)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}
	log.Printf("Upload directory: %s (max %.1f MB per file)", cfg.UploadDir, float64(files.MaxSize())/1024/1024)

	app := &handlers.Handlers{
		DB:        db,
		Files:     files,
		Tokens:    auth.NewTokenManager(cfg.JWTSecret),
		Config:    cfg,
		StartedAt: time.Now(),
	}

	// 3. --- Admin Bootstrap ---
	if err := app.EnsureAdmin(context.Background()); err != nil {
		log.Printf("Error bootstrapping admin user: %v", err)
	}

	// --- Start Server ---
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           routes.SetupRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Starting server on %s in %s mode", srv.Addr, cfg.Env)
		log.Printf("CORS allowed origins: %v", cfg.CORSOrigins)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"gramcare-backend/config"
	"gramcare-backend/controllers"
	"gramcare-backend/database"
	"gramcare-backend/routes"
	"gramcare-backend/services"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := config.Get()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.Connect(cfg); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Disconnect(cfg); err != nil {
			log.Printf("Database disconnect: %v", err)
		}
	}()

	var (
		transcripts       services.TranscriptStore
		transcriptsReader controllers.TranscriptReader
	)
	if store := database.NewTranscriptStore(cfg); store != nil {
		transcripts = store
		transcriptsReader = store
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, transcripts)
	if err != nil {
		return err
	}
	defer a.Close()
	a.startMaintenance(cfg.Session.SweepInterval)

	if !cfg.WhatsApp.Configured() {
		log.Println("WARNING: WhatsApp Cloud API credentials missing, replies to Meta webhooks will not be delivered")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(cors.New(corsConfig(cfg.Security.AllowedOrigins)))
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	healthCheck := func(ctx context.Context) error {
		return database.HealthCheck(ctx, cfg)
	}
	ctrl := routes.SetupRoutes(router, routes.Dependencies{
		Config:       cfg,
		Chatbot:      a.chatbot,
		WhatsApp:     a.whatsapp,
		SMS:          a.sms,
		Verification: a.verification,
		Transcripts:  transcriptsReader,
		HealthCheck:  healthCheck,
	})

	logAvailableEndpoints(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	ctrl.WhatsApp.Wait()

	log.Println("Server exited")
	return nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}

// logAvailableEndpoints logs all registered routes
func logAvailableEndpoints(router *gin.Engine) {
	log.Println("Available endpoints:")
	for _, route := range router.Routes() {
		log.Printf("  %s %s", route.Method, route.Path)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gamehub/internal/auth"
	"gamehub/internal/events"
	"gamehub/internal/game"
	"gamehub/internal/providers"
	"gamehub/internal/unify"
	"gamehub/pkg/database"
	"gamehub/pkg/utils"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	providerCfg := utils.LoadProviderConfig()
	if providerCfg.RAWGKey == "" {
		log.Println("[main] warning: GAMEHUB_RAWG_API_KEY not set, primary catalog calls will fail")
	}
	rawg := providers.NewRAWGClient(providerCfg.RAWGKey)
	igdb := providers.NewIGDBClient(providerCfg.IGDBClientID, providerCfg.IGDBClientSecret)

	hub := events.NewHub()

	cacheCfg := utils.LoadCacheConfig()
	svc := unify.NewService(unify.NewStore(db), rawg, igdb, cacheCfg.TTL)
	svc.OnRefresh = func(slug string) {
		hub.BroadcastJSON(events.Refreshed(slug))
	}

	router := gin.Default()

	// Optional: avoid "trusted all proxies" warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", events.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.Clients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": stats.Clients,
		})
	})

	// Games (public)
	gameRepo := game.NewRepo(db)
	gameHandler := game.NewHandler(svc, gameRepo, rawg)
	gameHandler.RegisterRoutes(router.Group("/games"))
	router.GET("/search", gameHandler.SearchHandler)

	// Auth (admin token)
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authHandler := auth.NewHandler(tokenSvc, authCfg.AdminPasswordHash)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Admin (protected)
	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(tokenSvc))
	admin.DELETE("/games/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		if err := svc.Invalidate(c.Request.Context(), slug); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "invalidate failed"})
			return
		}
		hub.BroadcastJSON(events.Invalidated(slug))
		c.Status(http.StatusNoContent)
	})

	httpSrv := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("HTTP API server listening on :8080")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}

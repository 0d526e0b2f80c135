package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"lodge_backend/internal/config"
	"lodge_backend/internal/database"
	"lodge_backend/internal/metrics"
	"lodge_backend/internal/router"
	"lodge_backend/internal/services"
	"lodge_backend/pkg/utils"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	cfg.LogWarnings()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open database")
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err = database.Migrate(migrateCtx, db, cfg.Database.Driver)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}
	utils.LogInfo("Database initialized", map[string]interface{}{"driver": cfg.Database.Driver})

	engine := gin.New()
	engine.Use(gin.Recovery())

	err = router.Setup(engine, db, router.Options{
		Driver:             cfg.Database.Driver,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Auth: services.AuthConfig{
			Username:     cfg.AdminUsername,
			PasswordHash: cfg.AdminPasswordHash,
			JWTSecret:    []byte(cfg.JWTSecret),
			TokenTTL:     cfg.JWTTTL,
		},
		Location:          cfg.Location,
		TurnaroundWarning: cfg.TurnaroundWarning,
		Metrics:           metrics.New(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up routes")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "timezone": cfg.Location.String()})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.LogInfo("Shutting down server")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		utils.LogError(err, "Server forced to shutdown")
	}
}

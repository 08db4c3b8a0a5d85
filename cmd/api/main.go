package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bookingcrm/internal/cache"
	"bookingcrm/internal/config"
	"bookingcrm/internal/database"
	jwtsvc "bookingcrm/internal/pkg/jwt"
	"bookingcrm/internal/repository"
	"bookingcrm/internal/server"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	rdb := cache.NewRedisClient(cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if rdb != nil {
		defer rdb.Close()
	}

	router := server.NewRouter(server.Deps{
		DB:          db,
		JWT:         jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL),
		Cache:       cache.NewBookingCache(rdb, cfg.CacheTTL),
		PageSize:    cfg.PageSize,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("api listening addr=%s env=%s cache=%t", srv.Addr, cfg.AppEnv, rdb != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error=%q", err.Error())
	}
	log.Println("api stopped")
}

// Package server assembles the HTTP API from its modules.
package server

import (
	"log"
	"net/http"

	"bookingcrm/internal/cache"
	"bookingcrm/internal/middleware"
	"bookingcrm/internal/modules/auth"
	"bookingcrm/internal/modules/booking"
	"bookingcrm/internal/pkg/jwt"
	"bookingcrm/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Deps struct {
	DB          *gorm.DB
	JWT         *jwt.Service
	Cache       *cache.BookingCache
	PageSize    int
	CORSOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	userRepo := repository.NewUserRepository(d.DB)
	bookingRepo := repository.NewBookingRepository(d.DB)

	authHandler := auth.NewHandler(auth.NewService(userRepo, d.JWT))

	var datasetCache booking.DatasetCache
	if d.Cache.Enabled() {
		datasetCache = d.Cache
	}
	bookingService := booking.NewService(bookingRepo, datasetCache, d.PageSize)
	if stats, err := repository.StatsFromGorm(d.DB); err == nil {
		bookingService.WithStats(stats)
	} else {
		log.Printf("dashboard stats disabled error=%q", err.Error())
	}
	bookingHandler := booking.NewHandler(bookingService)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorLogger(), gin.Logger(), middleware.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler.RegisterPublicRoutes(&r.RouterGroup)

	protected := r.Group("/", middleware.JWTAuth(d.JWT))
	bookingHandler.RegisterRoutes(protected)

	return r
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"restro_backend/internal/database"
	"restro_backend/internal/events"
	"restro_backend/internal/router"
	"restro_backend/internal/scheduler"
	"restro_backend/internal/services"
	"restro_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	utils.InitLogger()

	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "restro_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "restro_password")
	dbName := utils.Getenv("DB_NAME", "restro_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	db, err := database.Connect(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)
	if err != nil {
		utils.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	if err := database.ApplySchema(db, dbSchemaPath); err != nil {
		utils.LogError(err, "Failed to apply database schema")
		os.Exit(1)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if redisAddr := utils.Getenv("REDIS_ADDR", ""); redisAddr != "" {
		publisher = events.NewRedisPublisher(redisAddr)
		utils.LogInfo("Event publisher connected", map[string]interface{}{"redis_addr": redisAddr})
	} else {
		utils.LogInfo("REDIS_ADDR not set, order events will not be published")
	}
	defer publisher.Close()

	orderCfg := services.DefaultOrderConfig()
	orderCfg.MaxKitchenOrders = utils.GetenvInt("MAX_KITCHEN_ORDERS", orderCfg.MaxKitchenOrders)
	orderCfg.OrderTimeout = utils.GetenvMinutes("ORDER_TIMEOUT_MINUTES", orderCfg.OrderTimeout)

	clock := scheduler.NewRealClock()
	sched := scheduler.New(clock)
	defer sched.Shutdown()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	orderService := router.Setup(engine, router.Deps{
		DB:        db,
		Scheduler: sched,
		Clock:     clock,
		Publisher: publisher,
		OrderCfg:  orderCfg,
	})

	// Re-arm auto-cancel timers for orders that were in flight when the
	// process last stopped. Must happen before accepting traffic.
	if err := orderService.RestoreOrderTimeouts(); err != nil {
		utils.LogError(err, "Failed to restore order timeouts")
		os.Exit(1)
	}

	port := utils.Getenv("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: engine,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	utils.LogInfo("Shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Graceful shutdown failed")
	}
	utils.LogInfo("Server stopped")
}

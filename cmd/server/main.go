package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"order-service/internal/config"
	"order-service/internal/controllers/http"
	"order-service/internal/infra"
	mmysql "order-service/internal/infra/mysql"
	"order-service/internal/infra/rabbitmq"
	"order-service/internal/logger"
	mysqlrepo "order-service/internal/repository/mysql"
	"order-service/internal/services"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := mmysql.New(cfg.Database)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("db handle failed", "err", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	repo := mysqlrepo.NewOrderRepository(db)

	productClient := infra.NewProductClient(cfg.ProductServiceURL, 2*time.Second)
	inventoryClient := infra.NewInventoryClient(cfg.InventoryServiceURL, 2*time.Second)

	publisher, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.EventExchange)
	if err != nil {
		logger.Error("failed to init publisher", "err", err)
		os.Exit(1)
	}
	defer publisher.Close()

	s := services.NewOrderService(repo, productClient, inventoryClient, publisher)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DB:           0,
		PoolSize:     100,
		MinIdleConns: 10,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	s.SetRedisClient(redisClient)

	handler := http.NewHandler(s, redisClient)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	handler.RegisterRoutes(r)

	logger.Info("starting order service", "port", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		logger.Error("server run failed", "err", err)
		os.Exit(1)
	}
}

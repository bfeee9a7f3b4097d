package main

import (
	"context"
	"fmt"
	"net/http"
	"order-reconciliation-service/internal/client"
	"order-reconciliation-service/internal/config"
	"order-reconciliation-service/internal/lock"
	"order-reconciliation-service/internal/logger"
	"order-reconciliation-service/internal/metrics"
	"order-reconciliation-service/internal/repository"
	"order-reconciliation-service/internal/server"
	"order-reconciliation-service/internal/service"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	ctx := context.Background()

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		log.Error("init database", "error", err)
		os.Exit(1)
	}

	rdb, err := client.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Error("init redis", "error", err)
		os.Exit(1)
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if rdb != nil {
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		log.Info("using redis order locks", "addr", cfg.Redis.Addr)
	} else {
		log.Warn("REDIS_ADDR not set, order locks are per-process")
	}

	retry := client.NewRetryPolicy(cfg.Retry)
	phonepeClient := client.NewPhonePeClient(&cfg.PhonePe, retry)
	braintreeClient := client.NewBraintreeClient(&cfg.Braintree, retry)
	carrierClient := client.NewIThinkClient(&cfg.IThink, retry)

	var razorpayClient client.RazorpayClient
	if cfg.Razorpay.KeyID != "" {
		razorpayClient = client.NewRazorpayClient(&cfg.Razorpay, retry)
	}

	orderRepo := repository.NewOrderRepository(db)
	systemLogRepo := repository.NewSystemLogRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	paymentService := service.NewPaymentService(log, razorpayClient, phonepeClient, braintreeClient)
	logisticsService := service.NewLogisticsService(
		log, carrierClient,
		systemLogRepo,
		orderRepo,
		locker,
		cfg.IThink.Courier,
	)
	reconcileService := service.NewReconcileService(
		log,
		paymentService,
		logisticsService,
		orderRepo,
		webhookEventRepo,
		locker,
		cfg.IThink.AutoShip,
	)
	trackingService := service.NewTrackingService(orderRepo)

	metrics.Register(prometheus.DefaultRegisterer)

	if cfg.Admin.JWTSecret == "" {
		log.Warn("ADMIN_JWT_SECRET not set, admin routes will refuse every request")
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(
		log,
		server.Options{
			AdminJWTSecret:       cfg.Admin.JWTSecret,
			CourierWebhookSecret: cfg.Webhook.CourierSecret,
			FrontendURL:          cfg.FrontendURL,
		},
		paymentService,
		logisticsService,
		reconcileService,
		trackingService,
		systemLogRepo,
	)

	log.Info("starting HTTP server", "addr", serverAddr, "env", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}
}

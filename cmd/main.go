package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MohamedMostafa02/E-CommerceApplication/internal/cache"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/domain"
	h "github.com/MohamedMostafa02/E-CommerceApplication/internal/http"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/inventory"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/notifier"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/poller"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/repository"
	"github.com/MohamedMostafa02/E-CommerceApplication/internal/service"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	RefundPollInterval  time.Duration
	DefaultRefundMethod string
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		RequestTimeout:      30 * time.Second,
		ShutdownTimeout:     10 * time.Second,
		RefundPollInterval:  getEnvDuration("REFUND_POLL_INTERVAL", time.Minute),
		DefaultRefundMethod: getEnv("REFUND_DEFAULT_METHOD", string(domain.RefundMethodOriginalPayment)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("invalid duration for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}

func main() {
	log.Println("order fulfillment service starting...")
	var wg sync.WaitGroup

	cfg := loadConfig()

	// Database setup
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}
	creds := &repository.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "ecommerce"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
	}

	repo, err := repository.NewRepository(creds, inventory.NewLedger())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})
	defer redisClient.Close()
	orderCache := cache.NewRedisCache(redisClient)

	emails := notifier.NewEmailPublisher(getEnv("KAFKA_BROKERS", "localhost:9092"))
	defer emails.Close()

	orderService := service.NewOrderService(repo, repo, orderCache, emails)
	cancellationService := service.NewCancellationService(repo, repo, repo, emails)
	refundService := service.NewRefundService(repo, repo, repo, repo, emails)

	// Start the refund scheduler
	refundPoller := poller.NewRefundPoller(refundService, cfg.RefundPollInterval,
		domain.RefundMethod(cfg.DefaultRefundMethod))
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		refundPoller.Run(pollerCtx)
	}()

	ordersHandler := h.NewOrdersHandler(orderService, cfg.RequestTimeout)
	cancellationsHandler := h.NewCancellationsHandler(cancellationService, cfg.RequestTimeout)
	refundsHandler := h.NewRefundsHandler(refundService, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordersHandler.CreateOrder)
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{order_id}", ordersHandler.GetOrder)
			r.Put("/{order_id}/status", ordersHandler.UpdateOrderStatus)
		})
		r.Get("/customers/{customer_id}/orders", ordersHandler.ListOrdersByCustomer)
		r.Route("/cancellations", func(r chi.Router) {
			r.Post("/", cancellationsHandler.RequestCancellation)
			r.Get("/", cancellationsHandler.ListCancellations)
			r.Get("/{cancellation_id}", cancellationsHandler.GetCancellation)
			r.Put("/{cancellation_id}/status", cancellationsHandler.UpdateCancellationStatus)
		})
		r.Route("/refunds", func(r chi.Router) {
			r.Post("/", refundsHandler.ProcessRefund)
			r.Get("/", refundsHandler.ListRefunds)
			r.Get("/eligible", refundsHandler.GetEligibleRefunds)
			r.Get("/{refund_id}", refundsHandler.GetRefund)
			r.Put("/{refund_id}/status", refundsHandler.UpdateRefundStatus)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "order-fulfillment"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Order fulfillment service listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	pollerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Println("refund scheduler stopped cleanly")
	case <-ctx.Done():
		log.Println("refund scheduler didn't stop in time")
	}

	log.Println("server exited")
}

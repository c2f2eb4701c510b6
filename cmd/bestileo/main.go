// Command bestileo runs the Lazan'i Bestileo estate management API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/lazani-bestileo/bestileo-erp/internal/app"
	"github.com/lazani-bestileo/bestileo-erp/internal/auth"
	"github.com/lazani-bestileo/bestileo-erp/internal/cellar"
	"github.com/lazani-bestileo/bestileo-erp/internal/clients"
	"github.com/lazani-bestileo/bestileo-erp/internal/deliveries"
	"github.com/lazani-bestileo/bestileo-erp/internal/invoices"
	"github.com/lazani-bestileo/bestileo-erp/internal/numbering"
	"github.com/lazani-bestileo/bestileo-erp/internal/observability"
	"github.com/lazani-bestileo/bestileo-erp/internal/orders"
	"github.com/lazani-bestileo/bestileo-erp/internal/payments"
	"github.com/lazani-bestileo/bestileo-erp/internal/platform/db"
	"github.com/lazani-bestileo/bestileo-erp/internal/products"
	"github.com/lazani-bestileo/bestileo-erp/internal/users"
	"github.com/lazani-bestileo/bestileo-erp/internal/vineyard"
)

func main() {
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *app.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.PGDSN); err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to count-based numbering",
				slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
			rdb = nil
		}
	}
	numbers := numbering.New(rdb)

	metrics := observability.NewMetrics()

	clientRepo := clients.NewRepository(pool)
	productRepo := products.NewRepository(pool)
	orderRepo := orders.NewRepository(pool)
	deliveryRepo := deliveries.NewRepository(pool)
	invoiceRepo := invoices.NewRepository(pool)
	paymentRepo := payments.NewRepository(pool)
	vineyardRepo := vineyard.NewRepository(pool)
	cellarRepo := cellar.NewRepository(pool)
	userRepo := users.NewRepository(pool)

	clientSvc := clients.NewService(clientRepo)
	productSvc := products.NewService(productRepo)
	orderSvc := orders.NewService(orderRepo, clientRepo, productRepo, numbers)
	deliverySvc := deliveries.NewService(deliveryRepo, orderRepo, productRepo, numbers)
	invoiceSvc := invoices.NewService(invoiceRepo, clientRepo, productRepo, numbers)
	paymentSvc := payments.NewService(paymentRepo, invoiceRepo)
	vineyardSvc := vineyard.NewService(vineyardRepo)
	cellarSvc := cellar.NewService(cellarRepo, vineyardRepo)
	userSvc := users.NewService(userRepo)
	authSvc := auth.NewService(userRepo)

	router := app.NewRouter(app.RouterParams{
		Middleware: app.MiddlewareStack(app.MiddlewareConfig{
			Logger:  logger,
			Config:  cfg,
			Metrics: metrics,
		}),
		Metrics:    metrics,
		Auth:       auth.NewHandler(logger, authSvc),
		Users:      users.NewHandler(logger, userSvc),
		Clients:    clients.NewHandler(logger, clientSvc),
		Products:   products.NewHandler(logger, productSvc),
		Orders:     orders.NewHandler(logger, orderSvc),
		Deliveries: deliveries.NewHandler(logger, deliverySvc),
		Invoices:   invoices.NewHandler(logger, invoiceSvc),
		Payments:   payments.NewHandler(logger, paymentSvc),
		Vineyard:   vineyard.NewHandler(logger, vineyardSvc),
		Cellar:     cellar.NewHandler(logger, cellarSvc),
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

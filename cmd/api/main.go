package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/clearstock/supplychain-backend/api/routes"
	"github.com/clearstock/supplychain-backend/internal/inventory"
	"github.com/clearstock/supplychain-backend/internal/orders"
	"github.com/clearstock/supplychain-backend/internal/products"
	"github.com/clearstock/supplychain-backend/internal/suppliers"
	"github.com/clearstock/supplychain-backend/internal/warehouses"
	"github.com/clearstock/supplychain-backend/pkg/config"
	"github.com/clearstock/supplychain-backend/pkg/db"
	"github.com/clearstock/supplychain-backend/pkg/logger"
	"github.com/clearstock/supplychain-backend/pkg/metrics"
	"github.com/clearstock/supplychain-backend/pkg/migrate"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	reg := prometheus.DefaultRegisterer
	httpMetrics := metrics.NewHTTPMetrics(reg)
	reservationMetrics := metrics.NewReservationMetrics(reg)

	conn := dbClient.DB()
	productSvc, err := products.NewService(products.NewRepository(conn), dbClient)
	exitOnError(logg, "create products service", err)
	supplierSvc, err := suppliers.NewService(suppliers.NewRepository(conn), dbClient)
	exitOnError(logg, "create suppliers service", err)
	warehouseSvc, err := warehouses.NewService(warehouses.NewRepository(conn), dbClient)
	exitOnError(logg, "create warehouses service", err)
	inventorySvc, err := inventory.NewService(inventory.NewRepository(conn), dbClient, cfg.Inventory, logg, reservationMetrics)
	exitOnError(logg, "create inventory service", err)
	orderSvc, err := orders.NewService(orders.NewRepository(conn), dbClient, cfg.Orders)
	exitOnError(logg, "create orders service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, httpMetrics, routes.Services{
			Products:   productSvc,
			Suppliers:  supplierSvc,
			Warehouses: warehouseSvc,
			Inventory:  inventorySvc,
			Orders:     orderSvc,
		}),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if srvErr := <-serveErr; srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
			err = multierr.Append(err, srvErr)
		}
		if err != nil {
			logg.Error(ctx, "shutdown finished with errors", err)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}

func exitOnError(logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), step, err)
	os.Exit(1)
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/taxes"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/units"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/procurement"
	"github.com/meridian-erp/meridian-erp/internal/sales/creditnotes"
	"github.com/meridian-erp/meridian-erp/internal/sales/customers"
	"github.com/meridian-erp/meridian-erp/internal/sales/invoices"
	"github.com/meridian-erp/meridian-erp/internal/sales/orders"
	salesshared "github.com/meridian-erp/meridian-erp/internal/sales/shared"
	"github.com/meridian-erp/meridian-erp/internal/settings"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, MaxConnLifetime: cfg.PGConnLifetime})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, running without settings cache", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	productsService := products.NewService(products.NewRepository(dbpool))
	taxesService := taxes.NewService(taxes.NewRepository(dbpool))
	unitsService := units.NewService(units.NewRepository(dbpool))
	suppliersService := suppliers.NewService(suppliers.NewRepository(dbpool))
	customersService := customers.NewService(customers.NewRepository(dbpool))

	settingsService := settings.NewService(settings.NewRepository(dbpool), redisClient, logger)

	catalog := documents.NewCatalog(productsService, taxesService)
	builder := documents.NewBuilder(catalog)

	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), auditLogger, idempotencyStore, inventory.ServiceConfig{})

	procurementService := procurement.NewService(procurement.NewRepository(dbpool), builder, settingsService, inventoryService)
	ordersService := orders.NewService(orders.NewRepository(dbpool), builder, settingsService)
	invoicesService := invoices.NewService(invoices.NewRepository(dbpool), builder, settingsService, inventoryService, ordersService)
	creditNotesService := creditnotes.NewService(creditnotes.NewRepository(dbpool), builder, settingsService, inventoryService, invoicesService)

	currencyFmt := salesshared.NewFormatter(cfg.CurrencyCode, cfg.CurrencyLocale)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger: logger,
		Config: cfg,

		ProductsHandler:    products.NewHandler(logger, productsService),
		TaxesHandler:       taxes.NewHandler(logger, taxesService),
		UnitsHandler:       units.NewHandler(logger, unitsService),
		SuppliersHandler:   suppliers.NewHandler(logger, suppliersService),
		CustomersHandler:   customers.NewHandler(logger, customersService),
		ProcurementHandler: procurement.NewHandler(logger, procurementService),
		OrdersHandler:      orders.NewHandler(logger, ordersService),
		InvoicesHandler:    invoices.NewHandler(logger, invoicesService, currencyFmt),
		CreditNotesHandler: creditnotes.NewHandler(logger, creditNotesService),
		InventoryHandler:   inventory.NewHandler(logger, inventoryService),
		SettingsHandler:    settings.NewHandler(logger, settingsService),
		JobsHandler:        jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}

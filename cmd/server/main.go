package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/cleanup"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

func main() {
	pkgconfig.LoadDotEnv(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_exit", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown_complete")
}

func run(cfg config.ServiceConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := pkgdb.Open(openCtx, cfg.DatabaseURL, pkgdb.Options{Driver: cfg.DatabaseDriver})
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() {
		if err := pkgdb.Close(db); err != nil {
			logger.Warn("db_close_error", "error", err)
		}
	}()

	r := repo.New(db)
	if err := r.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		pub = kp
		logger.Info("events_enabled", "brokers", cfg.KafkaBrokers)
	}

	var index service.ProductIndex
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			return fmt.Errorf("elasticsearch client: %w", err)
		}
		ix := search.New(es, cfg.ESIndex)
		if err := ix.EnsureIndex(ctx); err != nil {
			logger.Warn("search_index_unavailable", "error", err)
		}
		index = ix
	}

	var products service.ProductCache
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn("cache_unavailable", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer rdb.Close()
			products = cache.NewProducts(rdb, cfg.CacheTTL)
		}
	}

	users := service.NewUserService(r, hash.Default(), cfg.JWTAccessSecret, cfg.AccessTokenTTL)
	if cfg.Admin.Enabled() {
		if err := users.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	orders := service.NewOrderService(r, products, pub)
	settler := service.NewCadenceSettler(cfg.Payment.DeclineEvery)
	payments := service.NewPaymentService(r, cfg.Payment, settler, pub)
	sweeper := cleanup.NewSweeper(r, cfg.Payment.Timeout(), cfg.Payment.SweepInterval, pub, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger, "/health/live", "/health/ready"))
	e.Use(echomw.CORS())

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.SkipPaths = []string{"/api/v1/auth/login", "/api/v1/auth/register"}

	httpserver.Register(e, &httpserver.Deps{
		Auth:     &httpserver.AuthHTTP{Svc: users},
		Catalog:  &httpserver.CatalogHTTP{Svc: service.NewCatalogService(r, products, index, pub)},
		Cart:     &httpserver.CartHTTP{Svc: service.NewCartService(r)},
		Orders:   &httpserver.OrderHTTP{Svc: orders},
		Payments: &httpserver.PaymentHTTP{Svc: payments, Orders: orders},
		Reviews:  &httpserver.ReviewHTTP{Svc: service.NewReviewService(r, products)},
		Profile:  &httpserver.ProfileHTTP{Svc: service.NewProfileService(r)},
		Admin:    &httpserver.AdminHTTP{Users: users, Sweeper: sweeper},

		JWTSecret: cfg.JWTAccessSecret,
		CSRF:      csrfCfg,
		Ready:     r.Ping,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

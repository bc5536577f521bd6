package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/carostraub/InsomniaTiendita/internal/domain/client"
	"github.com/carostraub/InsomniaTiendita/internal/domain/coupon"
	"github.com/carostraub/InsomniaTiendita/internal/domain/order"
	"github.com/carostraub/InsomniaTiendita/internal/handler"
	"github.com/carostraub/InsomniaTiendita/internal/httpx"
	"github.com/carostraub/InsomniaTiendita/internal/storage/postgres"
	"github.com/carostraub/InsomniaTiendita/pkg/health"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health probes.
	checker := health.NewChecker()
	checker.AddReadiness("postgres", 5*time.Second, health.DatabasePing(pool))
	checker.AddLiveness("goroutines", time.Second, health.GoroutineCount(10000))
	checker.Start(ctx, 10*time.Second)
	checker.SetReady(true)

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Domain services.
	couponValidator := coupon.NewRepoValidator(couponRepo)
	orderService := order.NewService(productRepo, couponValidator, orderRepo)
	clientService := client.NewService(clientRepo)

	// HTTP engine.
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		httpx.Recovery(),
		httpx.CORS(httpx.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", "X-API-Key"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpx.RateLimit(ctx, httpx.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpx.RequestID(),
		httpx.InjectLogger(zctx.From(ctx)),
		httpx.LogRequests(),
	)

	engine.GET("/livez", gin.WrapF(checker.LiveEndpoint))
	engine.GET("/readyz", gin.WrapF(checker.ReadyEndpoint))

	h := handler.New(productRepo, categoryRepo, couponRepo, clientService, orderService)
	adminGuard := httpx.RequireAPIKey(apikeyRepo, []byte(cfg.APIKeyPepper))
	h.Register(engine.Group("/api"), adminGuard)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(engine, "tienda-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		checker.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		checker.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

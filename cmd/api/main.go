package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appalerts "github.com/jhoicas/Kardex-api/internal/application/alerts"
	"github.com/jhoicas/Kardex-api/internal/application/inventory"
	"github.com/jhoicas/Kardex-api/internal/application/reports"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/events"
	infrapdf "github.com/jhoicas/Kardex-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Kardex-api/internal/interfaces/http"
	"github.com/jhoicas/Kardex-api/internal/ratelimit"
	"github.com/jhoicas/Kardex-api/pkg/config"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	storeRepo := postgres.NewStoreRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	readRepo := postgres.NewInventoryReadRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Publisher de movimientos: Kafka si está habilitado, no-op si no.
	var publisher inventory.MovementPublisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPub, err := events.NewKafkaPublisher(ctx, cfg.Kafka)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Kafka")
		}
		defer kafkaPub.Close()
		publisher = kafkaPub
	}

	mutationUC := inventory.NewStockMutationUseCase(txRunner, productRepo, storeRepo, publisher, log)
	queryUC := inventory.NewInventoryQueryUseCase(readRepo, ledgerRepo, storeRepo)
	alertsUC := appalerts.NewAlertsUseCase(readRepo, storeRepo)
	reportUC := reports.NewReportUseCase(readRepo, storeRepo, infrapdf.NewMarotoReportGenerator())

	// Controlador de admisión: límites globales de la config, overrides por
	// endpoint desde archivo con recarga en caliente, barrido periódico.
	rlProvider, err := ratelimit.NewFileProvider(cfg.RateLimit.OverridesPath, ratelimit.Config{
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxRequests,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de rate limit")
	}
	limiter := ratelimit.New(rlProvider.Current(), log)
	rlProvider.OnChange(limiter.SetConfig)
	rlProvider.Watch()
	limiter.StartSweeper(ctx, time.Duration(cfg.RateLimit.SweepSeconds)*time.Second)

	inventoryHandler := httpRouter.NewInventoryHandler(mutationUC, queryUC, alertsUC, reportUC, log)
	rateLimitHandler := httpRouter.NewRateLimitAdminHandler(rlProvider, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Kardex API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Inventory:      inventoryHandler,
		RateLimitAdmin: rateLimitHandler,
		Limiter:        limiter,
		JWTSecret:      cfg.JWT.Secret,
		Log:            log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/almacen-api/internal/application/alert"
	"github.com/jhoicas/almacen-api/internal/application/stock"
	"github.com/jhoicas/almacen-api/internal/infrastructure/postgres"
	"github.com/jhoicas/almacen-api/internal/infrastructure/rabbitmq"
	"github.com/jhoicas/almacen-api/internal/infrastructure/rediscache"
	httpRouter "github.com/jhoicas/almacen-api/internal/interfaces/http"
	"github.com/jhoicas/almacen-api/pkg/config"
	"github.com/jhoicas/almacen-api/pkg/logger"
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

	cache, err := rediscache.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer cache.Close()

	sender, err := rabbitmq.NewPublisher(cfg.Broker, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a RabbitMQ")
	}
	defer sender.Close()

	stockRepo := postgres.NewStockRecordRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)

	stockUC := stock.NewUseCase(stockRepo, ledgerRepo, cache, log)
	aggregator := alert.NewAggregator(stockRepo, cache, log)
	publisher := alert.NewPublisher(aggregator, sender, alert.PublisherConfig{
		Enabled:         cfg.Alerts.Enabled,
		CheckInterval:   cfg.Alerts.CheckInterval,
		InitialDelay:    cfg.Alerts.InitialDelay,
		PageSize:        cfg.Alerts.PageSize,
		MaxAlertsPerRun: cfg.Alerts.MaxAlertsPerRun,
	}, log)

	// Ciclo programado de alertas en background; se detiene con el ctx
	go publisher.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:    stockUC,
		Aggregator: aggregator,
		Publisher:  publisher,
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
	cancel() // detiene el publicador programado

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

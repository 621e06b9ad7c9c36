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

	"github.com/jhoicas/garment-ledger/docs"
	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/internal/application/issue"
	"github.com/jhoicas/garment-ledger/internal/application/manufacturing"
	"github.com/jhoicas/garment-ledger/internal/application/printing"
	"github.com/jhoicas/garment-ledger/internal/infrastructure/broker"
	infrapdf "github.com/jhoicas/garment-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/garment-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/garment-ledger/internal/interfaces/http"
	"github.com/jhoicas/garment-ledger/pkg/config"
	"github.com/jhoicas/garment-ledger/pkg/logger"
	"github.com/jhoicas/garment-ledger/pkg/telemetry"
)

// @title                      Garment Ledger API
// @version                    1.0
// @description                Libro de consumo de inventario: salidas, producción y estampado.
// @BasePath                   /api
// @securityDefinitions.apikey Bearer
// @in                         header
// @name                       Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	if cfg.Tracing.JaegerEndpoint != "" {
		tp, err := telemetry.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar tracing")
		}
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("apagado del tracer")
			}
		}()
	}

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool, cfg.DB.LockTimeout)
	stockRegistry := postgres.NewStockRegistry(pool)
	consumptionRepo := postgres.NewConsumptionRepository(pool)
	runRepo := postgres.NewManufacturingRunRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)

	// Eventos de stock bajo: Kafka si hay brokers, si no solo log.
	var publisher inventory.LowStockPublisher
	if cfg.Kafka.Enabled() {
		kafkaPublisher := broker.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.LowStockTopic, log.Component("kafka"))
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar productor kafka")
			}
		}()
		publisher = kafkaPublisher
	} else {
		publisher = broker.NewLogPublisher(log.Component("low_stock"))
	}

	lowStockUC := inventory.NewLowStockUseCase(stockRegistry, publisher, cfg.Ledger.LowStockThreshold, log.Component("low_stock"))
	engine := inventory.NewConsumptionEngine(txRunner, lowStockUC, log.Component("ledger"))
	issueUC := issue.NewIssueUseCase(txRunner, engine, consumptionRepo, infrapdf.NewSlipGenerator(cfg.App.Name))
	manufacturingUC := manufacturing.NewManufacturingUseCase(txRunner, engine, runRepo, consumptionRepo)
	printingUC := printing.NewPrintingUseCase(txRunner, engine)
	movementsUC := inventory.NewMovementsUseCase(movementRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FileContent: []byte(docs.SwaggerInfo.ReadDoc()),
		Path:        "docs",
		Title:       "Garment Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		IssueUC:         issueUC,
		ManufacturingUC: manufacturingUC,
		PrintingUC:      printingUC,
		MovementsUC:     movementsUC,
		LowStockUC:      lowStockUC,
		JWTSecret:       cfg.JWT.Secret,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

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

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/messaging"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/observability"
	infrapdf "github.com/jhoicas/inventario-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

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
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	tp, shutdownTracing, err := observability.SetupTracing(ctx, cfg.App, cfg.OTel)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	var (
		txRunner inventory.TxRunner
		repos    inventory.Repositories
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		txRunner, repos = store, store.Repositories()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("aplicar migraciones")
			}
		}
		txRunner = postgres.NewTxRunner(pool, cfg.DB.LockTimeout())
		repos = postgres.NewRepositories(pool)
	}

	// Eventos post-commit: Kafka si hay brokers, si no se descartan.
	var publisher inventory.EventPublisher = inventory.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		kp, err := messaging.NewKafkaPublisher(cfg.Kafka, cfg.App.Name, tp)
		if err != nil {
			log.Fatal().Err(err).Msg("publicador Kafka")
		}
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("eventos de movimientos hacia Kafka")
	}

	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, publisher, log)
	registerMovementUC.SetPublishTimeout(cfg.Kafka.PublishTimeout())
	transferUC := inventory.NewTransferUseCase(registerMovementUC)
	adjustmentUC := inventory.NewAdjustmentUseCase(registerMovementUC)
	queryUC := inventory.NewStockQueryUseCase(repos, infrapdf.NewStockSheetGenerator())
	warehouseUC := usecase.NewWarehouseUseCase(repos.Warehouses, repos.Movements, repos.Stock)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Inventario Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		WarehouseUC:      warehouseUC,
		RegisterMovement: registerMovementUC,
		Transfer:         transferUC,
		Adjustment:       adjustmentUC,
		Query:            queryUC,
		JWTSecret:        cfg.JWT.Secret,
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
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}

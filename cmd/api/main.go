package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Firmador-api/internal/application/auth"
	"github.com/jhoicas/Firmador-api/internal/application/document"
	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/application/signing"
	"github.com/jhoicas/Firmador-api/internal/application/usecase"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/memory"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/notify"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/ratelimit"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/Firmador-api/internal/interfaces/http"
	"github.com/jhoicas/Firmador-api/pkg/clock"
	"github.com/jhoicas/Firmador-api/pkg/config"
	"github.com/jhoicas/Firmador-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	sysClock := clock.System{}

	var (
		repos repository.Set
		tx    ports.TxRunner
	)
	switch cfg.App.StoreDriver {
	case "memory":
		store := memory.NewStore()
		repos = store.Repos()
		tx = store
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		repos = postgres.NewRepositorySet(pool)
		tx = postgres.NewTxRunner(pool)
	}

	files, err := storage.NewLocalStore(cfg.Storage.Dir, sysClock)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de archivos")
	}

	// Notificaciones: RabbitMQ si hay URL; si no, solo log.
	var notifier ports.Notifier = notify.NewLogNotifier(log.Component("notify"))
	if cfg.RabbitMQ.URL != "" {
		rmq, err := notify.NewRabbitMQNotifier(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, sysClock, log.Component("notify"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer rmq.Close()
		notifier = rmq
	}

	var limiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		limiter = ratelimit.NewRedisLimiter(client, cfg.Redis.PublicLimit, time.Duration(cfg.Redis.WindowSeconds)*time.Second)
	}

	prom := metrics.NewPrometheus("firmador")

	deps := usecase.Deps{
		Repos:    repos,
		Tx:       tx,
		Files:    files,
		Notifier: notifier,
		Clock:    sysClock,
		Metrics:  prom,
		Logger:   log.Component("usecase"),
	}
	maxUpload := int64(cfg.Storage.MaxUploadMB) << 20

	authUC := auth.NewAuthUseCase(repos.Users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	planUC := usecase.NewPlanUseCase(deps)
	companyUC := usecase.NewCompanyUseCase(deps)
	branchUC := usecase.NewBranchUseCase(deps)
	userUC := usecase.NewUserUseCase(deps)
	documentUC := document.NewDocumentUseCase(deps, document.Config{
		MaxInternalSigners: cfg.Signing.MaxInternalSigners,
		MaxUploadBytes:     maxUpload,
	})
	signatureUC := signing.NewSignatureRequestUseCase(deps, signing.Config{
		DefaultExpiration:  time.Duration(cfg.Signing.DefaultExpirationDays) * 24 * time.Hour,
		PublicBaseURL:      cfg.Signing.PublicBaseURL,
		MaxInternalSigners: cfg.Signing.MaxInternalSigners,
	})
	gateway := signing.NewAccessGateway(deps)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    int(maxUpload) + 1<<20,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http"), prom))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Firmador API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(prom.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		PlanUC:         planUC,
		CompanyUC:      companyUC,
		BranchUC:       branchUC,
		UserUC:         userUC,
		DocumentUC:     documentUC,
		SignatureUC:    signatureUC,
		Gateway:        gateway,
		JWTSecret:      cfg.JWT.Secret,
		MaxUploadBytes: maxUpload,
		PublicLimiter:  limiter,
		Logger:         log.Component("http"),
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

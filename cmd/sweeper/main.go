// sweeper marca como expired las solicitudes de firma pending con expires_at vencido.
//
// Uso:
//
//	go run ./cmd/sweeper                        # una pasada y termina
//	go run ./cmd/sweeper --schedule "@every 5m" # queda residente con cron
//
// Con --metrics-addr el modo residente expone /metrics; con --pushgateway cada pasada
// publica sus contadores en un Pushgateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/application/signing"
	"github.com/jhoicas/Firmador-api/internal/application/usecase"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Firmador-api/pkg/clock"
	"github.com/jhoicas/Firmador-api/pkg/config"
	"github.com/jhoicas/Firmador-api/pkg/logger"
)

var (
	schedule    string
	metricsAddr string
	pushURL     string
)

var rootCmd = &cobra.Command{
	Use:   "sweeper",
	Short: "Vence solicitudes de firma pendientes",
	Long:  "Marca como expired toda solicitud pending cuyo expires_at ya pasó. Sin --schedule ejecuta una sola pasada.",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&schedule, "schedule", "", "expresión cron (ej. \"@every 5m\"); vacío = una pasada")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "dirección de /metrics en modo residente (ej. \":9102\")")
	rootCmd.Flags().StringVar(&pushURL, "pushgateway", "", "URL del Pushgateway donde publicar tras cada pasada")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	if cfg.App.StoreDriver != "postgres" {
		return fmt.Errorf("el barrido requiere STORE_DRIVER=postgres")
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "firmador-sweeper",
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	var (
		prom *metrics.Prometheus
		m    ports.Metrics = ports.NopMetrics{}
	)
	if metricsAddr != "" || pushURL != "" {
		prom = metrics.NewPrometheus("firmador_sweeper")
		m = prom
	}

	uc := signing.NewSignatureRequestUseCase(usecase.Deps{
		Repos:   postgres.NewRepositorySet(pool),
		Tx:      postgres.NewTxRunner(pool),
		Clock:   clock.System{},
		Metrics: m,
		Logger:  log.Component("sweeper"),
	}, signing.Config{})

	sweep := func() {
		res, err := uc.ExpireOverdue(ctx)
		if err != nil {
			log.Error().Err(err).Msg("barrido de vencimiento")
			return
		}
		log.Info().Int("expired", res.Expired).Msg("barrido completado")
		if pushURL != "" {
			if err := push.New(pushURL, "firmador_sweeper").Gatherer(prom.Registry()).Push(); err != nil {
				log.Warn().Err(err).Msg("publicar métricas en pushgateway")
			}
		}
	}

	if schedule == "" {
		sweep()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, sweep); err != nil {
		return fmt.Errorf("expresión cron %q: %w", schedule, err)
	}
	c.Start()
	log.Info().Str("schedule", schedule).Msg("sweeper residente")

	var srv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", prom.Handler())
		srv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("servidor de métricas")
			}
		}()
		log.Info().Str("addr", metricsAddr).Msg("métricas expuestas en /metrics")
	}

	<-ctx.Done()
	<-c.Stop().Done()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	log.Info().Msg("sweeper detenido")
	return nil
}

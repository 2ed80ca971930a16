// seed crea los planes por defecto y el super_admin inicial. Es idempotente:
// no crea planes si ya existe alguno ni el usuario si el email ya está registrado.
//
// Uso: go run ./cmd/seed --email admin@firmador.local --password secreto123
// También lee SEED_ADMIN_EMAIL, SEED_ADMIN_PASSWORD y SEED_ADMIN_NAME.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Firmador-api/pkg/config"
	"github.com/jhoicas/Firmador-api/pkg/logger"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Planes por defecto y super_admin inicial",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&adminEmail, "email", os.Getenv("SEED_ADMIN_EMAIL"), "email del super_admin")
	rootCmd.Flags().StringVar(&adminPassword, "password", os.Getenv("SEED_ADMIN_PASSWORD"), "password del super_admin (mínimo 8)")
	rootCmd.Flags().StringVar(&adminName, "name", envOr("SEED_ADMIN_NAME", "Administrador"), "nombre del super_admin")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// defaultPlans límites 0 = sin límite.
func defaultPlans(now time.Time) []*entity.Plan {
	mk := func(name string, users, docs, sigs, branches int, price string) *entity.Plan {
		return &entity.Plan{
			ID:            uuid.New().String(),
			Name:          name,
			MaxUsers:      users,
			MaxDocuments:  docs,
			MaxSignatures: sigs,
			MaxBranches:   branches,
			MonthlyPrice:  decimal.RequireFromString(price),
			Active:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	return []*entity.Plan{
		mk("Básico", 3, 50, 50, 1, "0"),
		mk("Profesional", 20, 1000, 1000, 5, "199.90"),
		mk("Empresarial", entity.Unlimited, entity.Unlimited, entity.Unlimited, entity.Unlimited, "899.90"),
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "firmador-seed"})

	email := strings.ToLower(strings.TrimSpace(adminEmail))
	if email == "" || len(adminPassword) < 8 {
		return fmt.Errorf("se requieren --email y --password (mínimo 8 caracteres)")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	return postgres.NewTxRunner(pool).Run(ctx, func(repos repository.Set) error {
		existing, err := repos.Plans.List(ctx, 1, 0)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			for _, p := range defaultPlans(now) {
				if err := repos.Plans.Create(ctx, p); err != nil {
					return fmt.Errorf("plan %s: %w", p.Name, err)
				}
				log.Info().Str("plan", p.Name).Msg("plan creado")
			}
		}

		u, err := repos.Users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if u != nil {
			log.Info().Str("email", email).Msg("super_admin ya existe")
			return nil
		}
		err = repos.Users.Create(ctx, &entity.User{
			ID:           uuid.New().String(),
			Email:        email,
			PasswordHash: string(hash),
			Name:         adminName,
			Role:         entity.RoleSuperAdmin,
			Status:       "active",
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		log.Info().Str("email", email).Msg("super_admin creado")
		return nil
	})
}

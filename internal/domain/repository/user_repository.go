package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.User, error)
	List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*entity.User, error)
	SoftDelete(ctx context.Context, scope tenant.Scope, id string, at time.Time) error
	CountActive(ctx context.Context, companyID string) (int, error)
	// FindByEmail lookup de autenticación; no es una lectura de tenant.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

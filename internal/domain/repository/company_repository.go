package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure. Get* devuelve (nil, nil) si no existe.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByCode(ctx context.Context, code string) (*entity.Company, error)
	GetByTaxID(ctx context.Context, taxID string) (*entity.Company, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Company, error)
	// LockByID bloquea la fila de la empresa (SELECT ... FOR UPDATE) para serializar
	// las creaciones que consumen cuota. Solo tiene efecto dentro de una transacción.
	LockByID(ctx context.Context, id string) (*entity.Company, error)
	UpdatePlan(ctx context.Context, id, planID string, expiresAt *time.Time, at time.Time) error
}

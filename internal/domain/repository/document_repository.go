package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

// DocumentFilter filtros opcionales de listado.
type DocumentFilter struct {
	Status   string
	BranchID string
}

// DocumentRepository persistencia de documentos y de sus firmantes internos.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error)
	// GetForUpdate lee y bloquea la fila del documento dentro de la transacción.
	GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error)
	List(ctx context.Context, scope tenant.Scope, filter DocumentFilter, limit, offset int) ([]*entity.Document, int, error)
	// UpdateStatus cambia el estado solo si sigue en from; si no, devuelve domain.ErrConflict.
	UpdateStatus(ctx context.Context, id, from, to string, at time.Time) error
	UpdateInternalSigner(ctx context.Context, signer *entity.InternalSigner) error
	SoftDelete(ctx context.Context, scope tenant.Scope, id string, at time.Time) error
	CountActive(ctx context.Context, companyID string) (int, error)

	// Acceso por capacidad (access_hash o token de firmante): fuera del alcance del tenant.
	GetByAccessHash(ctx context.Context, accessHash string) (*entity.Document, error)
	LockByCapability(ctx context.Context, id string) (*entity.Document, error)
}

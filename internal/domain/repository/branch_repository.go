package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

// BranchRepository persistencia de filiales. Toda lectura recibe el alcance del tenant.
type BranchRepository interface {
	Create(ctx context.Context, branch *entity.Branch) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Branch, error)
	List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*entity.Branch, error)
	SoftDelete(ctx context.Context, scope tenant.Scope, id string, at time.Time) error
	CountActive(ctx context.Context, companyID string) (int, error)
}

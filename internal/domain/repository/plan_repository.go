package repository

import (
	"context"

	"github.com/jhoicas/Firmador-api/internal/domain/entity"
)

// PlanRepository persistencia de planes de suscripción.
type PlanRepository interface {
	Create(ctx context.Context, plan *entity.Plan) error
	GetByID(ctx context.Context, id string) (*entity.Plan, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Plan, error)
}

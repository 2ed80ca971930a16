package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

// PlanUseCase administra los planes de suscripción (solo super_admin escribe).
type PlanUseCase struct {
	deps Deps
}

// NewPlanUseCase construye el caso de uso.
func NewPlanUseCase(deps Deps) *PlanUseCase {
	return &PlanUseCase{deps: deps.WithDefaults()}
}

// Create crea un plan. Límites negativos son inválidos; 0 es ilimitado.
func (uc *PlanUseCase) Create(ctx context.Context, p tenant.Principal, in dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if !p.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || in.MaxUsers < 0 || in.MaxDocuments < 0 || in.MaxSignatures < 0 || in.MaxBranches < 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.MonthlyPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	now := uc.deps.Clock.Now()
	plan := &entity.Plan{
		ID:            uuid.New().String(),
		Name:          name,
		MaxUsers:      in.MaxUsers,
		MaxDocuments:  in.MaxDocuments,
		MaxSignatures: in.MaxSignatures,
		MaxBranches:   in.MaxBranches,
		MonthlyPrice:  in.MonthlyPrice,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.deps.Repos.Plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	return entityToPlanResponse(plan), nil
}

// GetByID obtiene un plan. Cualquier usuario autenticado puede consultarlo.
func (uc *PlanUseCase) GetByID(ctx context.Context, id string) (*dto.PlanResponse, error) {
	plan, err := uc.deps.Repos.Plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	return entityToPlanResponse(plan), nil
}

// List lista planes con paginación.
func (uc *PlanUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.PlanListResponse, error) {
	page.DefaultPage()
	list, err := uc.deps.Repos.Plans.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PlanResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *entityToPlanResponse(p))
	}
	return &dto.PlanListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func entityToPlanResponse(p *entity.Plan) *dto.PlanResponse {
	return &dto.PlanResponse{
		ID:            p.ID,
		Name:          p.Name,
		MaxUsers:      p.MaxUsers,
		MaxDocuments:  p.MaxDocuments,
		MaxSignatures: p.MaxSignatures,
		MaxBranches:   p.MaxBranches,
		MonthlyPrice:  p.MonthlyPrice,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
	}
}

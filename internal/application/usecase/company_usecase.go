package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
	"github.com/jhoicas/Firmador-api/pkg/cnpj"
)

// CompanyUseCase aplica reglas de negocio para empresas (casos de uso).
type CompanyUseCase struct {
	deps Deps
}

// NewCompanyUseCase construye el caso de uso.
func NewCompanyUseCase(deps Deps) *CompanyUseCase {
	return &CompanyUseCase{deps: deps.WithDefaults()}
}

// Create crea una nueva empresa. Devuelve domain.ErrDuplicate si el código o el CNPJ ya existen.
func (uc *CompanyUseCase) Create(ctx context.Context, p tenant.Principal, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if !p.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := cnpj.Validate(in.TaxID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	taxID := cnpj.Normalize(in.TaxID)

	plan, err := uc.deps.Repos.Plans.GetByID(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("plan: %w", domain.ErrNotFound)
	}

	existing, err := uc.deps.Repos.Companies.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	existing, err = uc.deps.Repos.Companies.GetByTaxID(ctx, taxID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := uc.deps.Clock.Now()
	company := &entity.Company{
		ID:            uuid.New().String(),
		Code:          code,
		Name:          name,
		TaxID:         taxID,
		PlanID:        plan.ID,
		PlanExpiresAt: in.PlanExpiresAt,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.deps.Repos.Companies.Create(ctx, company); err != nil {
		return nil, err
	}
	return entityToCompanyResponse(company), nil
}

// GetByID obtiene una empresa. Fuera de super_admin solo la propia.
func (uc *CompanyUseCase) GetByID(ctx context.Context, p tenant.Principal, id string) (*dto.CompanyResponse, error) {
	if !p.IsSuperAdmin() && p.CompanyID != id {
		return nil, domain.ErrNotFound
	}
	company, err := uc.deps.Repos.Companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return entityToCompanyResponse(company), nil
}

// List lista empresas con paginación. Un admin de empresa solo ve la suya.
func (uc *CompanyUseCase) List(ctx context.Context, p tenant.Principal, page dto.PageRequest) (*dto.CompanyListResponse, error) {
	page.DefaultPage()
	if !p.IsSuperAdmin() {
		items := []dto.CompanyResponse{}
		if p.CompanyID != "" && page.Offset == 0 {
			c, err := uc.deps.Repos.Companies.GetByID(ctx, p.CompanyID)
			if err != nil {
				return nil, err
			}
			if c != nil {
				items = append(items, *entityToCompanyResponse(c))
			}
		}
		return &dto.CompanyListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(items)}}, nil
	}
	list, err := uc.deps.Repos.Companies.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *entityToCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// ChangePlan cambia el plan de la empresa. Los recursos ya creados no se revalidan:
// el nuevo límite solo aplica a las creaciones siguientes.
func (uc *CompanyUseCase) ChangePlan(ctx context.Context, p tenant.Principal, id string, in dto.ChangePlanRequest) (*dto.CompanyResponse, error) {
	if !p.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	var out *entity.Company
	err := uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
		company, err := repos.Companies.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if company == nil {
			return domain.ErrNotFound
		}
		plan, err := repos.Plans.GetByID(ctx, in.PlanID)
		if err != nil {
			return err
		}
		if plan == nil {
			return fmt.Errorf("plan: %w", domain.ErrNotFound)
		}
		now := uc.deps.Clock.Now()
		if err := repos.Companies.UpdatePlan(ctx, id, plan.ID, in.PlanExpiresAt, now); err != nil {
			return err
		}
		company.PlanID = plan.ID
		company.PlanExpiresAt = in.PlanExpiresAt
		company.UpdatedAt = now
		out = company
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.deps.Logger.Info().Str("company_id", id).Str("plan_id", in.PlanID).Msg("plan de empresa actualizado")
	return entityToCompanyResponse(out), nil
}

func entityToCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:            c.ID,
		Code:          c.Code,
		Name:          c.Name,
		TaxID:         c.TaxID,
		PlanID:        c.PlanID,
		PlanExpiresAt: c.PlanExpiresAt,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/quota"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

// BranchUseCase filiales de una empresa. Crear consume la cuota branch del plan.
type BranchUseCase struct {
	deps  Deps
	guard QuotaGuard
}

// NewBranchUseCase construye el caso de uso.
func NewBranchUseCase(deps Deps) *BranchUseCase {
	deps = deps.WithDefaults()
	return &BranchUseCase{deps: deps, guard: NewQuotaGuard(deps.Metrics)}
}

// Create crea una filial en la empresa del principal (super_admin indica company_id).
func (uc *BranchUseCase) Create(ctx context.Context, p tenant.Principal, in dto.CreateBranchRequest) (*dto.BranchResponse, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	companyID, err := TargetCompany(p, in.CompanyID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	code := strings.TrimSpace(in.Code)
	if name == "" || code == "" {
		return nil, domain.ErrInvalidInput
	}

	var branch *entity.Branch
	err = RetryOnConflict(ctx, func() error {
		return uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
			if err := uc.guard.Reserve(ctx, repos, companyID, quota.KindBranch); err != nil {
				return err
			}
			now := uc.deps.Clock.Now()
			branch = &entity.Branch{
				ID:        uuid.New().String(),
				CompanyID: companyID,
				Name:      name,
				Code:      code,
				Active:    true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return repos.Branches.Create(ctx, branch)
		})
	})
	if err != nil {
		return nil, err
	}
	return entityToBranchResponse(branch), nil
}

// GetByID obtiene una filial visible para el principal.
func (uc *BranchUseCase) GetByID(ctx context.Context, p tenant.Principal, id string) (*dto.BranchResponse, error) {
	b, err := uc.deps.Repos.Branches.GetByID(ctx, tenant.Resolve(p, tenant.ResourceBranch), id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	return entityToBranchResponse(b), nil
}

// List lista las filiales visibles.
func (uc *BranchUseCase) List(ctx context.Context, p tenant.Principal, page dto.PageRequest) (*dto.BranchListResponse, error) {
	page.DefaultPage()
	list, err := uc.deps.Repos.Branches.List(ctx, tenant.Resolve(p, tenant.ResourceBranch), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.BranchResponse, 0, len(list))
	for _, b := range list {
		items = append(items, *entityToBranchResponse(b))
	}
	return &dto.BranchListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// Delete baja lógica de una filial (libera cuota).
func (uc *BranchUseCase) Delete(ctx context.Context, p tenant.Principal, id string) error {
	if !p.IsAdmin() {
		return domain.ErrForbidden
	}
	scope := tenant.Resolve(p, tenant.ResourceBranch)
	return uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
		return repos.Branches.SoftDelete(ctx, scope, id, uc.deps.Clock.Now())
	})
}

// TargetCompany resuelve la empresa destino de una creación: la propia del principal,
// o la indicada si es super_admin. Un admin no puede crear en otra empresa.
func TargetCompany(p tenant.Principal, requested string) (string, error) {
	if p.IsSuperAdmin() {
		if requested == "" {
			return "", domain.ErrInvalidInput
		}
		return requested, nil
	}
	if p.CompanyID == "" {
		return "", domain.ErrForbidden
	}
	if requested != "" && requested != p.CompanyID {
		return "", domain.ErrForbidden
	}
	return p.CompanyID, nil
}

func entityToBranchResponse(b *entity.Branch) *dto.BranchResponse {
	return &dto.BranchResponse{
		ID:        b.ID,
		CompanyID: b.CompanyID,
		Name:      b.Name,
		Code:      b.Code,
		Active:    b.Active,
		CreatedAt: b.CreatedAt,
	}
}

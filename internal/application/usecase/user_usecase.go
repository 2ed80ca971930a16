package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/quota"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

const minPasswordLen = 8

// UserUseCase aplica reglas de negocio para usuarios.
type UserUseCase struct {
	deps  Deps
	guard QuotaGuard
}

// NewUserUseCase construye el caso de uso.
func NewUserUseCase(deps Deps) *UserUseCase {
	deps = deps.WithDefaults()
	return &UserUseCase{deps: deps, guard: NewQuotaGuard(deps.Metrics)}
}

// Create crea un usuario: valida rol y filial, hashea el password con bcrypt y consume la cuota user.
// Solo super_admin crea super_admin; un company_admin crea admins o suscriptores de su empresa.
func (uc *UserUseCase) Create(ctx context.Context, p tenant.Principal, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !entity.IsValidRole(in.Role) {
		return nil, domain.ErrInvalidInput
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := norm.NFC.String(strings.TrimSpace(in.Name))
	if email == "" || !strings.Contains(email, "@") || len(in.Password) < minPasswordLen {
		return nil, domain.ErrInvalidInput
	}
	if name == "" {
		name = email
	}

	var companyID string
	if in.Role == entity.RoleSuperAdmin {
		if !p.IsSuperAdmin() {
			return nil, domain.ErrForbidden
		}
		if in.CompanyID != "" || in.BranchID != "" {
			return nil, domain.ErrInvalidInput
		}
	} else {
		var err error
		if companyID, err = TargetCompany(p, in.CompanyID); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user *entity.User
	err = RetryOnConflict(ctx, func() error {
		return uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
			if companyID != "" {
				if err := uc.guard.Reserve(ctx, repos, companyID, quota.KindUser); err != nil {
					return err
				}
			}
			if in.BranchID != "" {
				b, err := repos.Branches.GetByID(ctx, tenant.Scope{CompanyID: companyID}, in.BranchID)
				if err != nil {
					return err
				}
				if b == nil {
					return domain.ErrInvalidInput
				}
			}
			now := uc.deps.Clock.Now()
			user = &entity.User{
				ID:           uuid.New().String(),
				Email:        email,
				PasswordHash: string(hash),
				Name:         name,
				Role:         in.Role,
				Status:       "active",
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if companyID != "" {
				user.CompanyID = &companyID
			}
			if in.BranchID != "" {
				branchID := in.BranchID
				user.BranchID = &branchID
			}
			return repos.Users.Create(ctx, user)
		})
	})
	if err != nil {
		return nil, err
	}
	return entityToUserResponse(user), nil
}

// GetByID obtiene un usuario visible para el principal.
func (uc *UserUseCase) GetByID(ctx context.Context, p tenant.Principal, id string) (*dto.UserResponse, error) {
	user, err := uc.deps.Repos.Users.GetByID(ctx, tenant.Resolve(p, tenant.ResourceUser), id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return entityToUserResponse(user), nil
}

// List lista usuarios visibles con paginación.
func (uc *UserUseCase) List(ctx context.Context, p tenant.Principal, page dto.PageRequest) (*dto.UserListResponse, error) {
	page.DefaultPage()
	list, err := uc.deps.Repos.Users.List(ctx, tenant.Resolve(p, tenant.ResourceUser), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *entityToUserResponse(u))
	}
	return &dto.UserListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// Delete baja lógica de un usuario. Nadie se da de baja a sí mismo.
func (uc *UserUseCase) Delete(ctx context.Context, p tenant.Principal, id string) error {
	if !p.IsAdmin() {
		return domain.ErrForbidden
	}
	if id == p.UserID {
		return domain.ErrInvalidInput
	}
	scope := tenant.Resolve(p, tenant.ResourceUser)
	return uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
		return repos.Users.SoftDelete(ctx, scope, id, uc.deps.Clock.Now())
	})
}

// EntityToUserResponse convierte un usuario de dominio en su DTO (sin password).
func EntityToUserResponse(u *entity.User) *dto.UserResponse {
	return entityToUserResponse(u)
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyIDValue(),
		BranchID:  u.BranchIDValue(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

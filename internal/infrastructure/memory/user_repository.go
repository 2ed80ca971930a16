package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria.
type UserRepo struct {
	s *Store
}

func userAttrs(u entity.User) tenant.Attributes {
	return tenant.Attributes{ID: u.ID, CompanyID: u.CompanyIDValue(), BranchID: u.BranchIDValue()}
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := strings.ToLower(u.Email)
	for _, existing := range r.s.data.users {
		if existing.ID == u.ID {
			return domain.ErrDuplicate
		}
		if existing.DeletedAt == nil && existing.Email == email {
			return domain.ErrEmailAlreadyExists
		}
	}
	stored := cloneUser(*u)
	stored.Email = email
	r.s.data.users[u.ID] = stored
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, scope tenant.Scope, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.data.users[id]
	if !ok || u.DeletedAt != nil || !scope.Permits(userAttrs(u)) {
		return nil, nil
	}
	out := cloneUser(u)
	return &out, nil
}

func (r *UserRepo) List(_ context.Context, scope tenant.Scope, limit, offset int) ([]*entity.User, error) {
	r.s.mu.RLock()
	var all []entity.User
	for _, u := range r.s.data.users {
		if u.DeletedAt == nil && scope.Permits(userAttrs(u)) {
			all = append(all, cloneUser(u))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	var out []*entity.User
	for _, u := range paginate(all, limit, offset) {
		u := u
		out = append(out, &u)
	}
	return out, nil
}

func (r *UserRepo) SoftDelete(_ context.Context, scope tenant.Scope, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok || u.DeletedAt != nil || !scope.Permits(userAttrs(u)) {
		return domain.ErrNotFound
	}
	u.DeletedAt = &at
	u.UpdatedAt = at
	u.Status = "inactive"
	r.s.data.users[id] = u
	return nil
}

func (r *UserRepo) CountActive(_ context.Context, companyID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, u := range r.s.data.users {
		if u.CompanyIDValue() == companyID && u.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.data.users {
		if u.DeletedAt == nil && u.Email == email {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, nil
}

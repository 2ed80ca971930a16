package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

var _ repository.BranchRepository = (*BranchRepo)(nil)

// BranchRepo filiales en memoria.
type BranchRepo struct {
	s *Store
}

func branchAttrs(b entity.Branch) tenant.Attributes {
	return tenant.Attributes{ID: b.ID, CompanyID: b.CompanyID, BranchID: b.ID}
}

func (r *BranchRepo) Create(_ context.Context, b *entity.Branch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.branches {
		if existing.ID == b.ID {
			return domain.ErrDuplicate
		}
		if existing.DeletedAt == nil && existing.CompanyID == b.CompanyID && existing.Code == b.Code {
			return domain.ErrDuplicate
		}
	}
	r.s.data.branches[b.ID] = cloneBranch(*b)
	return nil
}

func (r *BranchRepo) GetByID(_ context.Context, scope tenant.Scope, id string) (*entity.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.data.branches[id]
	if !ok || b.DeletedAt != nil || !scope.Permits(branchAttrs(b)) {
		return nil, nil
	}
	out := cloneBranch(b)
	return &out, nil
}

func (r *BranchRepo) List(_ context.Context, scope tenant.Scope, limit, offset int) ([]*entity.Branch, error) {
	r.s.mu.RLock()
	var all []entity.Branch
	for _, b := range r.s.data.branches {
		if b.DeletedAt == nil && scope.Permits(branchAttrs(b)) {
			all = append(all, cloneBranch(b))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Name == all[j].Name {
			return all[i].ID < all[j].ID
		}
		return all[i].Name < all[j].Name
	})
	var out []*entity.Branch
	for _, b := range paginate(all, limit, offset) {
		b := b
		out = append(out, &b)
	}
	return out, nil
}

func (r *BranchRepo) SoftDelete(_ context.Context, scope tenant.Scope, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.branches[id]
	if !ok || b.DeletedAt != nil || !scope.Permits(branchAttrs(b)) {
		return domain.ErrNotFound
	}
	b.DeletedAt = &at
	b.UpdatedAt = at
	b.Active = false
	r.s.data.branches[id] = b
	return nil
}

func (r *BranchRepo) CountActive(_ context.Context, companyID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, b := range r.s.data.branches {
		if b.CompanyID == companyID && b.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo empresas en memoria.
type CompanyRepo struct {
	s *Store
}

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.companies {
		if existing.ID == c.ID || existing.Code == c.Code || (c.TaxID != "" && existing.TaxID == c.TaxID) {
			return domain.ErrDuplicate
		}
	}
	r.s.data.companies[c.ID] = cloneCompany(*c)
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.data.companies[id]
	if !ok {
		return nil, nil
	}
	out := cloneCompany(c)
	return &out, nil
}

func (r *CompanyRepo) GetByCode(_ context.Context, code string) (*entity.Company, error) {
	return r.find(func(c entity.Company) bool { return c.Code == code }), nil
}

func (r *CompanyRepo) GetByTaxID(_ context.Context, taxID string) (*entity.Company, error) {
	return r.find(func(c entity.Company) bool { return c.TaxID == taxID }), nil
}

func (r *CompanyRepo) find(match func(entity.Company) bool) *entity.Company {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.data.companies {
		if match(c) {
			out := cloneCompany(c)
			return &out
		}
	}
	return nil
}

func (r *CompanyRepo) List(_ context.Context, limit, offset int) ([]*entity.Company, error) {
	r.s.mu.RLock()
	all := make([]entity.Company, 0, len(r.s.data.companies))
	for _, c := range r.s.data.companies {
		all = append(all, cloneCompany(c))
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	var out []*entity.Company
	for _, c := range paginate(all, limit, offset) {
		c := c
		out = append(out, &c)
	}
	return out, nil
}

// LockByID en memoria la exclusión ya la garantiza Store.Run.
func (r *CompanyRepo) LockByID(ctx context.Context, id string) (*entity.Company, error) {
	return r.GetByID(ctx, id)
}

func (r *CompanyRepo) UpdatePlan(_ context.Context, id, planID string, expiresAt *time.Time, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.companies[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.PlanID = planID
	c.PlanExpiresAt = clonePtr(expiresAt)
	c.UpdatedAt = at
	r.s.data.companies[id] = c
	return nil
}

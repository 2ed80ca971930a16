package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

// PlanRepo planes en memoria.
type PlanRepo struct {
	s *Store
}

func (r *PlanRepo) Create(_ context.Context, p *entity.Plan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.plans {
		if existing.ID == p.ID || existing.Name == p.Name {
			return domain.ErrDuplicate
		}
	}
	r.s.data.plans[p.ID] = *p
	return nil
}

func (r *PlanRepo) GetByID(_ context.Context, id string) (*entity.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.data.plans[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *PlanRepo) List(_ context.Context, limit, offset int) ([]*entity.Plan, error) {
	r.s.mu.RLock()
	all := make([]entity.Plan, 0, len(r.s.data.plans))
	for _, p := range r.s.data.plans {
		all = append(all, p)
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if c := all[i].MonthlyPrice.Cmp(all[j].MonthlyPrice); c != 0 {
			return c < 0
		}
		return all[i].Name < all[j].Name
	})
	var out []*entity.Plan
	for _, p := range paginate(all, limit, offset) {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

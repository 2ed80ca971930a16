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

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo documentos en memoria.
type DocumentRepo struct {
	s *Store
}

func documentAttrs(d *entity.Document) tenant.Attributes {
	return tenant.Attributes{
		ID:        d.ID,
		CompanyID: d.CompanyID,
		BranchID:  d.BranchIDValue(),
		CreatedBy: d.CreatedBy,
		Assignees: d.InternalSignerIDs(),
	}
}

func (r *DocumentRepo) Create(_ context.Context, d *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.documents {
		if existing.ID == d.ID || existing.AccessHash == d.AccessHash {
			return domain.ErrDuplicate
		}
	}
	seen := map[string]bool{}
	for _, s := range d.InternalSigners {
		if seen[s.UserID] {
			return domain.ErrDuplicate
		}
		seen[s.UserID] = true
	}
	stored := cloneDocument(*d)
	for i := range stored.InternalSigners {
		stored.InternalSigners[i].DocumentID = d.ID
	}
	r.s.data.documents[d.ID] = stored
	return nil
}

func (r *DocumentRepo) visible(scope tenant.Scope, id string) (entity.Document, bool) {
	d, ok := r.s.data.documents[id]
	if !ok || d.DeletedAt != nil || !scope.Permits(documentAttrs(&d)) {
		return entity.Document{}, false
	}
	return d, true
}

func (r *DocumentRepo) GetByID(_ context.Context, scope tenant.Scope, id string) (*entity.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.visible(scope, id)
	if !ok {
		return nil, nil
	}
	out := cloneDocument(d)
	return &out, nil
}

func (r *DocumentRepo) GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error) {
	return r.GetByID(ctx, scope, id)
}

func (r *DocumentRepo) List(_ context.Context, scope tenant.Scope, filter repository.DocumentFilter, limit, offset int) ([]*entity.Document, int, error) {
	r.s.mu.RLock()
	var all []entity.Document
	for id := range r.s.data.documents {
		d, ok := r.visible(scope, id)
		if !ok {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.BranchID != "" && d.BranchIDValue() != filter.BranchID {
			continue
		}
		all = append(all, cloneDocument(d))
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	var out []*entity.Document
	for _, d := range paginate(all, limit, offset) {
		d := d
		out = append(out, &d)
	}
	return out, len(all), nil
}

func (r *DocumentRepo) UpdateStatus(_ context.Context, id, from, to string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.data.documents[id]
	if !ok || d.DeletedAt != nil || d.Status != from {
		return domain.ErrConflict
	}
	d.Status = to
	d.UpdatedAt = at
	r.s.data.documents[id] = d
	return nil
}

func (r *DocumentRepo) UpdateInternalSigner(_ context.Context, s *entity.InternalSigner) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.data.documents[s.DocumentID]
	if !ok {
		return domain.ErrNotFound
	}
	d = cloneDocument(d)
	for i := range d.InternalSigners {
		if d.InternalSigners[i].UserID == s.UserID {
			d.InternalSigners[i] = cloneInternalSigner(*s)
			r.s.data.documents[d.ID] = d
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *DocumentRepo) SoftDelete(_ context.Context, scope tenant.Scope, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.visible(scope, id)
	if !ok {
		return domain.ErrNotFound
	}
	d.DeletedAt = &at
	d.UpdatedAt = at
	r.s.data.documents[id] = d
	return nil
}

func (r *DocumentRepo) CountActive(_ context.Context, companyID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, d := range r.s.data.documents {
		if d.CompanyID == companyID && d.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

func (r *DocumentRepo) GetByAccessHash(_ context.Context, accessHash string) (*entity.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.data.documents {
		if d.DeletedAt == nil && d.AccessHash == accessHash {
			out := cloneDocument(d)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *DocumentRepo) LockByCapability(_ context.Context, id string) (*entity.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.data.documents[id]
	if !ok || d.DeletedAt != nil {
		return nil, nil
	}
	out := cloneDocument(d)
	return &out, nil
}

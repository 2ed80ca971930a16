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

var _ repository.SignatureRequestRepository = (*SignatureRequestRepo)(nil)

// SignatureRequestRepo solicitudes de firma en memoria.
type SignatureRequestRepo struct {
	s *Store
}

func isActiveRequest(r entity.SignatureRequest) bool {
	return r.DeletedAt == nil &&
		(r.Status == entity.RequestStatusPending || r.Status == entity.RequestStatusSigned)
}

// attrs requiere el lock de lectura tomado; los asignados son los firmantes internos del documento.
func (r *SignatureRequestRepo) attrs(req entity.SignatureRequest) tenant.Attributes {
	a := tenant.Attributes{
		ID:        req.ID,
		CompanyID: req.CompanyID,
		CreatedBy: req.CreatedBy,
	}
	if req.BranchID != nil {
		a.BranchID = *req.BranchID
	}
	if d, ok := r.s.data.documents[req.DocumentID]; ok {
		a.Assignees = d.InternalSignerIDs()
	}
	return a
}

func (r *SignatureRequestRepo) Create(_ context.Context, req *entity.SignatureRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	hashes := map[string]bool{}
	for _, s := range req.Signers {
		hashes[s.TokenHash] = true
	}
	for _, existing := range r.s.data.requests {
		if existing.ID == req.ID {
			return domain.ErrDuplicate
		}
		if existing.DocumentID == req.DocumentID && isActiveRequest(existing) && isActiveRequest(*req) {
			return domain.ErrConflict
		}
		for _, s := range existing.Signers {
			if hashes[s.TokenHash] {
				return domain.ErrConflict
			}
		}
	}
	stored := cloneRequest(*req)
	for i := range stored.Signers {
		stored.Signers[i].RequestID = req.ID
	}
	r.s.data.requests[req.ID] = stored
	return nil
}

func (r *SignatureRequestRepo) visible(scope tenant.Scope, id string) (entity.SignatureRequest, bool) {
	req, ok := r.s.data.requests[id]
	if !ok || req.DeletedAt != nil || !scope.Permits(r.attrs(req)) {
		return entity.SignatureRequest{}, false
	}
	return req, true
}

func (r *SignatureRequestRepo) GetByID(_ context.Context, scope tenant.Scope, id string) (*entity.SignatureRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.visible(scope, id)
	if !ok {
		return nil, nil
	}
	out := cloneRequest(req)
	return &out, nil
}

func (r *SignatureRequestRepo) GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.SignatureRequest, error) {
	return r.GetByID(ctx, scope, id)
}

func (r *SignatureRequestRepo) ListByDocument(_ context.Context, scope tenant.Scope, documentID string) ([]*entity.SignatureRequest, error) {
	r.s.mu.RLock()
	var all []entity.SignatureRequest
	for id, req := range r.s.data.requests {
		if req.DocumentID != documentID {
			continue
		}
		if v, ok := r.visible(scope, id); ok {
			all = append(all, cloneRequest(v))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	out := make([]*entity.SignatureRequest, 0, len(all))
	for i := range all {
		out = append(out, &all[i])
	}
	return out, nil
}

func (r *SignatureRequestRepo) FindActiveByDocument(_ context.Context, documentID string) (*entity.SignatureRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, req := range r.s.data.requests {
		if req.DocumentID == documentID && isActiveRequest(req) {
			out := cloneRequest(req)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *SignatureRequestRepo) FindLatestByDocument(_ context.Context, documentID string) (*entity.SignatureRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *entity.SignatureRequest
	for _, req := range r.s.data.requests {
		if req.DocumentID != documentID || req.DeletedAt != nil || req.Status == entity.RequestStatusCancelled {
			continue
		}
		if isActiveRequest(req) {
			out := cloneRequest(req)
			return &out, nil
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) ||
			(req.CreatedAt.Equal(latest.CreatedAt) && req.ID > latest.ID) {
			out := cloneRequest(req)
			latest = &out
		}
	}
	return latest, nil
}

func (r *SignatureRequestRepo) UpdateStatus(_ context.Context, req *entity.SignatureRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.data.requests[req.ID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrConflict
	}
	stored.Status = req.Status
	stored.CompletedAt = clonePtr(req.CompletedAt)
	stored.CancelledAt = clonePtr(req.CancelledAt)
	stored.UpdatedAt = req.UpdatedAt
	r.s.data.requests[req.ID] = stored
	return nil
}

func (r *SignatureRequestRepo) UpdateSigner(_ context.Context, s *entity.Signer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.data.requests[s.RequestID]
	if !ok {
		return domain.ErrNotFound
	}
	req = cloneRequest(req)
	for i := range req.Signers {
		if req.Signers[i].ID == s.ID {
			updated := cloneSigner(*s)
			updated.TokenHash = req.Signers[i].TokenHash
			req.Signers[i] = updated
			r.s.data.requests[req.ID] = req
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *SignatureRequestRepo) SoftDelete(_ context.Context, scope tenant.Scope, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.visible(scope, id)
	if !ok {
		return domain.ErrNotFound
	}
	req.DeletedAt = &at
	req.UpdatedAt = at
	r.s.data.requests[id] = req
	return nil
}

func (r *SignatureRequestRepo) CountActive(_ context.Context, companyID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, req := range r.s.data.requests {
		if req.CompanyID == companyID && req.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

func (r *SignatureRequestRepo) ExpireOverdue(_ context.Context, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, req := range r.s.data.requests {
		if req.DeletedAt == nil && req.Status == entity.RequestStatusPending && !now.Before(req.ExpiresAt) {
			req.Status = entity.RequestStatusExpired
			req.UpdatedAt = now
			r.s.data.requests[id] = req
			n++
		}
	}
	return n, nil
}

func (r *SignatureRequestRepo) FindSignerByTokenHash(_ context.Context, tokenHash string) (*entity.Signer, error) {
	if tokenHash == "" {
		return nil, nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, req := range r.s.data.requests {
		if req.DeletedAt != nil {
			continue
		}
		for _, s := range req.Signers {
			if s.TokenHash == tokenHash {
				out := cloneSigner(s)
				return &out, nil
			}
		}
	}
	return nil, nil
}

func (r *SignatureRequestRepo) LockByCapability(_ context.Context, id string) (*entity.SignatureRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.data.requests[id]
	if !ok || req.DeletedAt != nil {
		return nil, nil
	}
	out := cloneRequest(req)
	return &out, nil
}

// Package memory implementa los repositorios y el TxRunner en memoria.
// Las transacciones se serializan con un mutex y se revierten restaurando una copia del estado.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
)

var _ ports.TxRunner = (*Store)(nil)

// Store almacén en memoria. Todas las escrituras de la aplicación pasan por Run.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
}

type state struct {
	companies map[string]entity.Company
	plans     map[string]entity.Plan
	branches  map[string]entity.Branch
	users     map[string]entity.User
	documents map[string]entity.Document
	requests  map[string]entity.SignatureRequest
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

func newState() *state {
	return &state{
		companies: map[string]entity.Company{},
		plans:     map[string]entity.Plan{},
		branches:  map[string]entity.Branch{},
		users:     map[string]entity.User{},
		documents: map[string]entity.Document{},
		requests:  map[string]entity.SignatureRequest{},
	}
}

// Repos devuelve los repositorios fuera de transacción (lecturas y seeds).
func (s *Store) Repos() repository.Set {
	return repository.Set{
		Companies: &CompanyRepo{s: s},
		Plans:     &PlanRepo{s: s},
		Branches:  &BranchRepo{s: s},
		Users:     &UserRepo{s: s},
		Documents: &DocumentRepo{s: s},
		Requests:  &SignatureRequestRepo{s: s},
	}
}

// Run ejecuta fn en exclusión mutua con las demás transacciones. Si fn falla, el estado vuelve al previo.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Set) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s.Repos()); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (st *state) clone() *state {
	out := newState()
	for k, v := range st.companies {
		out.companies[k] = cloneCompany(v)
	}
	for k, v := range st.plans {
		out.plans[k] = v
	}
	for k, v := range st.branches {
		out.branches[k] = cloneBranch(v)
	}
	for k, v := range st.users {
		out.users[k] = cloneUser(v)
	}
	for k, v := range st.documents {
		out.documents[k] = cloneDocument(v)
	}
	for k, v := range st.requests {
		out.requests[k] = cloneRequest(v)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneCompany(c entity.Company) entity.Company {
	c.PlanExpiresAt = clonePtr(c.PlanExpiresAt)
	return c
}

func cloneBranch(b entity.Branch) entity.Branch {
	b.DeletedAt = clonePtr(b.DeletedAt)
	return b
}

func cloneUser(u entity.User) entity.User {
	u.CompanyID = clonePtr(u.CompanyID)
	u.BranchID = clonePtr(u.BranchID)
	u.DeletedAt = clonePtr(u.DeletedAt)
	return u
}

func cloneInternalSigner(s entity.InternalSigner) entity.InternalSigner {
	s.FirstViewedAt = clonePtr(s.FirstViewedAt)
	s.SignedAt = clonePtr(s.SignedAt)
	s.RejectedAt = clonePtr(s.RejectedAt)
	return s
}

func cloneDocument(d entity.Document) entity.Document {
	d.BranchID = clonePtr(d.BranchID)
	d.DeletedAt = clonePtr(d.DeletedAt)
	if d.InternalSigners != nil {
		signers := make([]entity.InternalSigner, len(d.InternalSigners))
		for i, s := range d.InternalSigners {
			signers[i] = cloneInternalSigner(s)
		}
		d.InternalSigners = signers
	}
	return d
}

func cloneSigner(s entity.Signer) entity.Signer {
	s.Token = ""
	s.FirstViewedAt = clonePtr(s.FirstViewedAt)
	s.SignedAt = clonePtr(s.SignedAt)
	s.RejectedAt = clonePtr(s.RejectedAt)
	return s
}

func cloneRequest(r entity.SignatureRequest) entity.SignatureRequest {
	r.BranchID = clonePtr(r.BranchID)
	r.CompletedAt = clonePtr(r.CompletedAt)
	r.CancelledAt = clonePtr(r.CancelledAt)
	r.DeletedAt = clonePtr(r.DeletedAt)
	if r.Signers != nil {
		signers := make([]entity.Signer, len(r.Signers))
		for i, s := range r.Signers {
			signers[i] = cloneSigner(s)
		}
		sort.Slice(signers, func(i, j int) bool { return signers[i].Sequence < signers[j].Sequence })
		r.Signers = signers
	}
	return r
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

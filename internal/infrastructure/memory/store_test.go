package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestStore_RunRevierteSiFalla(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	boom := errors.New("boom")
	err := s.Run(ctx, func(repos repository.Set) error {
		require.NoError(t, repos.Plans.Create(ctx, &entity.Plan{ID: "p1", Name: "Básico"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := s.Repos().Plans.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p, "la escritura debe revertirse")

	require.NoError(t, s.Run(ctx, func(repos repository.Set) error {
		return repos.Plans.Create(ctx, &entity.Plan{ID: "p1", Name: "Básico"})
	}))
	p, err = s.Repos().Plans.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestDocumentRepo_AlcanceDelSuscriptor(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repos()

	own := &entity.Document{ID: "d1", CompanyID: "c1", CreatedBy: "u1", AccessHash: "h1", Status: entity.DocumentStatusDraft, CreatedAt: t0}
	assigned := &entity.Document{ID: "d2", CompanyID: "c1", CreatedBy: "admin", AccessHash: "h2", Status: entity.DocumentStatusSent, CreatedAt: t0.Add(time.Minute),
		InternalSigners: []entity.InternalSigner{{UserID: "u1", Status: entity.InternalSignerPending}}}
	other := &entity.Document{ID: "d3", CompanyID: "c1", CreatedBy: "u2", AccessHash: "h3", Status: entity.DocumentStatusDraft, CreatedAt: t0}
	foreign := &entity.Document{ID: "d4", CompanyID: "c2", CreatedBy: "u1", AccessHash: "h4", Status: entity.DocumentStatusDraft, CreatedAt: t0}
	for _, d := range []*entity.Document{own, assigned, other, foreign} {
		require.NoError(t, repos.Documents.Create(ctx, d))
	}

	scope := tenant.Resolve(tenant.Principal{UserID: "u1", CompanyID: "c1", Role: entity.RoleSubscriber}, tenant.ResourceDocument)
	list, total, err := repos.Documents.List(ctx, scope, repository.DocumentFilter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "d2", list[0].ID, "más recientes primero")
	assert.Equal(t, "d1", list[1].ID)

	got, err := repos.Documents.GetByID(ctx, scope, "d3")
	require.NoError(t, err)
	assert.Nil(t, got, "fuera del alcance se comporta como inexistente")

	admin := tenant.Resolve(tenant.Principal{UserID: "a", CompanyID: "c1", Role: entity.RoleCompanyAdmin}, tenant.ResourceDocument)
	_, total, err = repos.Documents.List(ctx, admin, repository.DocumentFilter{Status: entity.DocumentStatusDraft}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestDocumentRepo_UpdateStatusCondicional(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repos()
	require.NoError(t, repos.Documents.Create(ctx, &entity.Document{ID: "d1", CompanyID: "c1", AccessHash: "h", Status: entity.DocumentStatusDraft}))

	require.NoError(t, repos.Documents.UpdateStatus(ctx, "d1", entity.DocumentStatusDraft, entity.DocumentStatusSent, t0))
	err := repos.Documents.UpdateStatus(ctx, "d1", entity.DocumentStatusDraft, entity.DocumentStatusCancelled, t0)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSignatureRequestRepo_UnaActivaPorDocumento(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repos()

	newReq := func(id, hash string) *entity.SignatureRequest {
		return &entity.SignatureRequest{
			ID: id, DocumentID: "d1", CompanyID: "c1", Status: entity.RequestStatusPending, ExpiresAt: t0.Add(time.Hour),
			Signers: []entity.Signer{{ID: id + "-s1", Sequence: 1, Status: entity.SignerStatusPending, TokenHash: hash, Token: "plain"}},
		}
	}
	require.NoError(t, repos.Requests.Create(ctx, newReq("r1", "h1")))
	assert.ErrorIs(t, repos.Requests.Create(ctx, newReq("r2", "h2")), domain.ErrConflict)

	n, err := repos.Requests.ExpireOverdue(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "expires_at == now ya está vencida")

	require.NoError(t, repos.Requests.Create(ctx, newReq("r2", "h2")), "una solicitud expirada libera el documento")

	s, err := repos.Requests.FindSignerByTokenHash(ctx, "h2")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "r2", s.RequestID)
	assert.Empty(t, s.Token, "el token en claro nunca se almacena")

	count, err := repos.Requests.CountActive(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUserRepo_EmailUnicoYAlcance(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repos()

	u := &entity.User{ID: "u1", CompanyID: strPtr("c1"), Email: "Ana@Example.com", Role: entity.RoleSubscriber, Status: "active"}
	require.NoError(t, repos.Users.Create(ctx, u))
	err := repos.Users.Create(ctx, &entity.User{ID: "u2", CompanyID: strPtr("c1"), Email: "ana@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	found, err := repos.Users.FindByEmail(ctx, " ANA@example.com ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.ID)

	self := tenant.Resolve(tenant.Principal{UserID: "u9", CompanyID: "c1", Role: entity.RoleSubscriber}, tenant.ResourceUser)
	got, err := repos.Users.GetByID(ctx, self, "u1")
	require.NoError(t, err)
	assert.Nil(t, got, "un suscriptor solo se ve a sí mismo")
}

package document_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Firmador-api/internal/application/apptest"
	appdocument "github.com/jhoicas/Firmador-api/internal/application/document"
	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

var pdf = []byte("%PDF-1.7 acta")

func newUseCase(env *apptest.Env) *appdocument.DocumentUseCase {
	return appdocument.NewDocumentUseCase(env.Deps, appdocument.Config{MaxInternalSigners: 3, MaxUploadBytes: 1024})
}

func input(signers ...string) dto.CreateDocumentInput {
	return dto.CreateDocumentInput{
		Title:             "  Acta de directorio ",
		FileName:          "../acta.pdf",
		ContentType:       "application/pdf",
		Data:              pdf,
		InternalSignerIDs: signers,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_DraftConArchivo(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	uc := newUseCase(env)

	doc, err := uc.Create(context.Background(), tn.Admin, input())
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusDraft, doc.Status)
	assert.Equal(t, "Acta de directorio", doc.Title)
	assert.Equal(t, tn.Company.ID, doc.CompanyID)
	assert.Equal(t, tn.Admin.UserID, doc.CreatedBy)
	assert.Equal(t, int64(len(pdf)), doc.SizeBytes)
	assert.NotEmpty(t, doc.AccessHash)
	assert.False(t, doc.RequiresInternalSigners)
	assert.Equal(t, 1, env.CountFiles(t))
}

func TestCreate_EntradaInvalida(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	uc := newUseCase(env)
	ctx := context.Background()

	in := input()
	in.Title = "   "
	_, err := uc.Create(ctx, tn.Admin, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = input()
	in.Data = nil
	_, err = uc.Create(ctx, tn.Admin, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = input()
	in.Data = make([]byte, 2048)
	_, err = uc.Create(ctx, tn.Admin, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "supera el tamaño máximo")

	_, err = uc.Create(ctx, tn.Admin, input("a", "b", "c", "d"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "demasiados firmantes internos")

	assert.Equal(t, 0, env.CountFiles(t))
}

func TestCreate_CuotaDocumentLimpiaArchivo(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{Documents: 1})
	uc := newUseCase(env)
	ctx := context.Background()

	_, err := uc.Create(ctx, tn.Admin, input())
	require.NoError(t, err)

	_, err = uc.Create(ctx, tn.Admin, input())
	var qe *domain.QuotaError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "document", qe.Kind)
	assert.Equal(t, 1, qe.Limit)
	assert.Equal(t, 1, env.CountFiles(t), "el archivo de la tx fallida se elimina")

	_, _, rejects := env.Metrics.Snapshot()
	assert.Equal(t, []string{"document"}, rejects)
}

func TestCreate_FilialOFirmanteAjenoLimpiaArchivo(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	other := env.SeedTenant(t, apptest.Limits{})
	foreignBranch := env.SeedBranch(t, other.Company.ID)
	uc := newUseCase(env)
	ctx := context.Background()

	in := input()
	in.BranchID = foreignBranch.ID
	_, err := uc.Create(ctx, tn.Admin, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, tn.Admin, input(other.Admin.UserID))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, 0, env.CountFiles(t))
}

func TestCreate_SubscriberQuedaEnSuFilial(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	branch := env.SeedBranch(t, tn.Company.ID)
	otherBranch := env.SeedBranch(t, tn.Company.ID)
	sub := env.SeedUser(t, tn.Company.ID, branch.ID, entity.RoleSubscriber)
	uc := newUseCase(env)
	ctx := context.Background()

	doc, err := uc.Create(ctx, sub, input())
	require.NoError(t, err)
	assert.Equal(t, branch.ID, doc.BranchID)

	in := input()
	in.BranchID = otherBranch.ID
	_, err = uc.Create(ctx, sub, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Alcance y listados
// ──────────────────────────────────────────────────────────────────────────────

func TestList_SubscriberVeSoloLoSuyoYAsignado(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	sub := env.SeedUser(t, tn.Company.ID, "", entity.RoleSubscriber)
	uc := newUseCase(env)
	ctx := context.Background()

	own, err := uc.Create(ctx, sub, input())
	require.NoError(t, err)
	assigned, err := uc.Create(ctx, tn.Admin, input(sub.UserID))
	require.NoError(t, err)
	hidden, err := uc.Create(ctx, tn.Admin, input())
	require.NoError(t, err)

	list, err := uc.List(ctx, sub, dto.DocumentFilterRequest{}, dto.PageRequest{})
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, d := range list.Items {
		ids[d.ID] = true
	}
	assert.True(t, ids[own.ID])
	assert.True(t, ids[assigned.ID])
	assert.False(t, ids[hidden.ID])
	assert.Equal(t, 2, list.Page.Total)
	assert.Equal(t, 20, list.Page.Limit)

	_, err = uc.GetByID(ctx, sub, hidden.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := uc.List(ctx, tn.Admin, dto.DocumentFilterRequest{Status: entity.DocumentStatusDraft}, dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Page.Total)

	_, err = uc.List(ctx, tn.Admin, dto.DocumentFilterRequest{Status: "borrador"}, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetByID_OtraEmpresaNoEncuentra(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	other := env.SeedTenant(t, apptest.Limits{})
	uc := newUseCase(env)
	ctx := context.Background()

	doc, err := uc.Create(ctx, tn.Admin, input())
	require.NoError(t, err)

	_, err = uc.GetByID(ctx, other.Admin, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := uc.GetByID(ctx, apptest.SuperAdmin(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestTransition_ReglasDelCicloDeVida(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	uc := newUseCase(env)
	ctx := context.Background()

	doc, err := uc.Create(ctx, tn.Admin, input())
	require.NoError(t, err)

	_, err = uc.Transition(ctx, tn.Admin, doc.ID, "enviado")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Transition(ctx, tn.Admin, doc.ID, entity.DocumentStatusSigned)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "signed nunca se pide explícitamente")

	sent, err := uc.Transition(ctx, tn.Admin, doc.ID, entity.DocumentStatusSent)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusSent, sent.Status)

	_, err = uc.Transition(ctx, tn.Admin, doc.ID, entity.DocumentStatusDraft)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	archived, err := uc.Transition(ctx, tn.Admin, doc.ID, entity.DocumentStatusArchived)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusArchived, archived.Status)

	transitions, _, _ := env.Metrics.Snapshot()
	assert.Equal(t, []string{"draft->sent", "sent->archived"}, transitions)
}

func TestTransition_SubscriberNoGestionaDocumentoAsignado(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	sub := env.SeedUser(t, tn.Company.ID, "", entity.RoleSubscriber)
	uc := newUseCase(env)
	ctx := context.Background()

	doc, err := uc.Create(ctx, tn.Admin, input(sub.UserID))
	require.NoError(t, err)

	_, err = uc.Transition(ctx, sub, doc.ID, entity.DocumentStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTransition_EnviarExigeFirmantesInternosSiSeRequieren(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	uc := newUseCase(env)
	ctx := context.Background()

	in := input()
	in.RequiresInternalSigners = true
	doc, err := uc.Create(ctx, tn.Admin, in)
	require.NoError(t, err)

	_, err = uc.Transition(ctx, tn.Admin, doc.ID, entity.DocumentStatusSent)
	var te *domain.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, entity.DocumentStatusDraft, te.From)
}

// ──────────────────────────────────────────────────────────────────────────────
// Firmantes internos
// ──────────────────────────────────────────────────────────────────────────────

func TestInternos_TodosFirmanYElDocumentoQuedaSigned(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	a := env.SeedUser(t, tn.Company.ID, "", entity.RoleSubscriber)
	b := env.SeedUser(t, tn.Company.ID, "", entity.RoleSubscriber)
	uc := newUseCase(env)
	ctx := context.Background()

	doc, err := uc.Create(ctx, tn.Admin, input(a.UserID, b.UserID, a.UserID))
	require.NoError(t, err)
	require.Len(t, doc.InternalSigners, 2, "ids duplicados se descartan")
	assert.True(t, doc.RequiresInternalSigners)

	_, err = uc.SignInternal(ctx, a, doc.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "en draft no se firma")

	_, err = uc.Transition(ctx, tn.Admin, doc.ID, entity.DocumentStatusSent)
	require.NoError(t, err)

	viewed, err := uc.ViewInternal(ctx, a, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InternalSignerViewed, signerStatus(viewed, a.UserID))

	res, err := uc.SignInternal(ctx, a, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusSent, res.Status)

	res, err = uc.SignInternal(ctx, a, doc.ID)
	require.NoError(t, err, "firmar de nuevo es un no-op")
	assert.Equal(t, entity.DocumentStatusSent, res.Status)

	res, err = uc.SignInternal(ctx, b, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusSigned, res.Status)

	_, err = uc.SignInternal(ctx, tn.Admin, doc.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "el admin no está asignado")

	transitions, actions, _ := env.Metrics.Snapshot()
	assert.Contains(t, transitions, "sent->signed")
	assert.Contains(t, actions, "internal_sign:ok")
	assert.Contains(t, actions, "internal_sign:forbidden")
}

func TestInternos_RechazoImpideCompletar(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	a := env.SeedUser(t, tn.Company.ID, "", entity.RoleSubscriber)
	b := env.SeedUser(t, tn.Company.ID, "", entity.RoleSubscriber)
	uc := newUseCase(env)
	ctx := context.Background()

	doc, err := uc.Create(ctx, tn.Admin, input(a.UserID, b.UserID))
	require.NoError(t, err)
	_, err = uc.Transition(ctx, tn.Admin, doc.ID, entity.DocumentStatusSent)
	require.NoError(t, err)

	res, err := uc.RejectInternal(ctx, a, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InternalSignerRejected, signerStatus(res, a.UserID))

	_, err = uc.RejectInternal(ctx, a, doc.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = uc.SignInternal(ctx, a, doc.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	res, err = uc.SignInternal(ctx, b, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusSent, res.Status, "con un rechazo nunca llega a signed")
}

func signerStatus(doc *dto.DocumentResponse, userID string) string {
	for _, s := range doc.InternalSigners {
		if s.UserID == userID {
			return s.Status
		}
	}
	return ""
}

// ──────────────────────────────────────────────────────────────────────────────
// Archivo y acceso público
// ──────────────────────────────────────────────────────────────────────────────

func TestOpenByAccessHash(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	uc := newUseCase(env)
	ctx := context.Background()

	doc, err := uc.Create(ctx, tn.Admin, input())
	require.NoError(t, err)

	file, err := uc.OpenByAccessHash(ctx, doc.AccessHash)
	require.NoError(t, err)
	assert.Equal(t, pdf, file.Data)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "Acta de directorio.pdf", file.Name)

	_, err = uc.OpenByAccessHash(ctx, "no-es-un-hash")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Transition(ctx, tn.Admin, doc.ID, entity.DocumentStatusCancelled)
	require.NoError(t, err)
	_, err = uc.OpenByAccessHash(ctx, doc.AccessHash)
	assert.ErrorIs(t, err, domain.ErrNotFound, "cancelado responde igual que inexistente")
}

func TestDownloadFile_RespetaAlcance(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	sub := env.SeedUser(t, tn.Company.ID, "", entity.RoleSubscriber)
	uc := newUseCase(env)
	ctx := context.Background()

	doc, err := uc.Create(ctx, tn.Admin, input())
	require.NoError(t, err)

	file, err := uc.DownloadFile(ctx, tn.Admin, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, pdf, file.Data)

	_, err = uc.DownloadFile(ctx, sub, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_SoloAdminsYLiberaCuota(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{Documents: 1})
	sub := env.SeedUser(t, tn.Company.ID, "", entity.RoleSubscriber)
	uc := newUseCase(env)
	ctx := context.Background()

	doc, err := uc.Create(ctx, sub, input())
	require.NoError(t, err)

	assert.ErrorIs(t, uc.Delete(ctx, sub, doc.ID), domain.ErrForbidden)
	require.NoError(t, uc.Delete(ctx, tn.Admin, doc.ID))

	_, err = uc.GetByID(ctx, tn.Admin, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Create(ctx, tn.Admin, input())
	assert.NoError(t, err, "la baja libera la cuota document")

	assert.ErrorIs(t, uc.Delete(ctx, tenant.Principal{Role: entity.RoleCompanyAdmin, CompanyID: tn.Company.ID}, "no-existe"), domain.ErrNotFound)
}

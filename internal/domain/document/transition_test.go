package document_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/document"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
)

var now = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func draftDoc() *entity.Document {
	return &entity.Document{
		ID:          "d1",
		CompanyID:   "c1",
		CreatedBy:   "u1",
		Status:      entity.DocumentStatusDraft,
		StoragePath: "2026/04/file.pdf",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones explícitas
// ──────────────────────────────────────────────────────────────────────────────

func TestTransition_Permitidas(t *testing.T) {
	cases := []struct{ from, to string }{
		{entity.DocumentStatusDraft, entity.DocumentStatusSent},
		{entity.DocumentStatusDraft, entity.DocumentStatusCancelled},
		{entity.DocumentStatusSent, entity.DocumentStatusCancelled},
		{entity.DocumentStatusSent, entity.DocumentStatusArchived},
	}
	for _, c := range cases {
		doc := draftDoc()
		doc.Status = c.from
		require.NoError(t, document.Transition(doc, c.to, 20), "%s -> %s", c.from, c.to)
		assert.Equal(t, c.to, doc.Status)
	}
}

func TestTransition_Rechazadas(t *testing.T) {
	cases := []struct{ from, to string }{
		{entity.DocumentStatusDraft, entity.DocumentStatusArchived},
		{entity.DocumentStatusSent, entity.DocumentStatusDraft},
		{entity.DocumentStatusSigned, entity.DocumentStatusCancelled},
		{entity.DocumentStatusCancelled, entity.DocumentStatusSent},
		{entity.DocumentStatusArchived, entity.DocumentStatusSent},
		{entity.DocumentStatusSent, entity.DocumentStatusSigned},
		{entity.DocumentStatusDraft, "published"},
	}
	for _, c := range cases {
		doc := draftDoc()
		doc.Status = c.from
		err := document.Transition(doc, c.to, 20)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "%s -> %s", c.from, c.to)
		assert.Equal(t, c.from, doc.Status, "el estado no cambia si se rechaza")
	}
}

func TestTransition_EnviarRequierePrecondiciones(t *testing.T) {
	doc := draftDoc()
	doc.StoragePath = ""
	assert.ErrorIs(t, document.Transition(doc, entity.DocumentStatusSent, 20), domain.ErrInvalidStateTransition)

	doc = draftDoc()
	doc.CreatedBy = ""
	assert.ErrorIs(t, document.Transition(doc, entity.DocumentStatusSent, 20), domain.ErrInvalidStateTransition)

	doc = draftDoc()
	doc.RequiresInternalSigners = true
	err := document.Transition(doc, entity.DocumentStatusSent, 20)
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "firmantes internos requeridos", te.Reason)

	doc.InternalSigners = []entity.InternalSigner{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}}
	assert.Error(t, document.Transition(doc, entity.DocumentStatusSent, 2), "supera el techo configurado")
	assert.NoError(t, document.Transition(doc, entity.DocumentStatusSent, 3))
}

func TestMarkSigned(t *testing.T) {
	doc := draftDoc()
	_, err := document.MarkSigned(doc)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "un borrador no puede firmarse")

	doc.Status = entity.DocumentStatusSent
	changed, err := document.MarkSigned(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, entity.DocumentStatusSigned, doc.Status)

	changed, err = document.MarkSigned(doc)
	require.NoError(t, err)
	assert.False(t, changed, "repetir es un no-op")
}

// ──────────────────────────────────────────────────────────────────────────────
// Firmantes internos
// ──────────────────────────────────────────────────────────────────────────────

func sentWithInternal() *entity.Document {
	doc := draftDoc()
	doc.Status = entity.DocumentStatusSent
	doc.RequiresInternalSigners = true
	doc.InternalSigners = []entity.InternalSigner{
		{DocumentID: "d1", UserID: "u2", Status: entity.InternalSignerPending},
		{DocumentID: "d1", UserID: "u3", Status: entity.InternalSignerPending},
	}
	return doc
}

func TestInternalSigners_FlujoCompleto(t *testing.T) {
	doc := sentWithInternal()

	changed, err := document.ViewInternal(doc, "u2", now)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = document.ViewInternal(doc, "u2", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed, "solo la primera lectura cuenta")
	assert.Equal(t, now, *doc.FindInternalSigner("u2").FirstViewedAt)

	_, err = document.SignInternal(doc, "u2", now)
	require.NoError(t, err)
	assert.False(t, document.InternalTrackComplete(doc))

	_, err = document.SignInternal(doc, "u3", now)
	require.NoError(t, err)
	assert.True(t, document.InternalTrackComplete(doc))

	changed, err = document.SignInternal(doc, "u3", now)
	require.NoError(t, err)
	assert.False(t, changed, "firmar de nuevo es idempotente")
}

func TestInternalSigners_UsuarioNoListado(t *testing.T) {
	doc := sentWithInternal()
	_, err := document.SignInternal(doc, "intruso", now)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestInternalSigners_SoloConDocumentoEnviado(t *testing.T) {
	doc := sentWithInternal()
	doc.Status = entity.DocumentStatusDraft
	_, err := document.SignInternal(doc, "u2", now)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestInternalSigners_Rechazo(t *testing.T) {
	doc := sentWithInternal()
	require.NoError(t, document.RejectInternal(doc, "u2", now))
	assert.Equal(t, entity.DocumentStatusSent, doc.Status, "el documento sigue enviado")
	assert.ErrorIs(t, document.RejectInternal(doc, "u2", now), domain.ErrInvalidStateTransition)

	_, err := document.SignInternal(doc, "u2", now)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "no se firma tras rechazar")
	assert.False(t, document.InternalTrackComplete(doc))
}

func TestReadyToSign(t *testing.T) {
	doc := sentWithInternal()
	signedReq := &entity.SignatureRequest{Status: entity.RequestStatusSigned}
	pendingReq := &entity.SignatureRequest{Status: entity.RequestStatusPending}
	rejectedReq := &entity.SignatureRequest{Status: entity.RequestStatusRejected}
	expiredReq := &entity.SignatureRequest{Status: entity.RequestStatusExpired}

	assert.False(t, document.ReadyToSign(doc, nil), "internos pendientes")

	for i := range doc.InternalSigners {
		doc.InternalSigners[i].Status = entity.InternalSignerSigned
	}
	assert.True(t, document.ReadyToSign(doc, nil), "solo pista interna, completa")
	assert.False(t, document.ReadyToSign(doc, pendingReq), "falta la solicitud externa")
	assert.True(t, document.ReadyToSign(doc, signedReq))
	assert.False(t, document.ReadyToSign(doc, rejectedReq), "el rechazo externo bloquea la firma")
	assert.False(t, document.ReadyToSign(doc, expiredReq), "el vencimiento bloquea la firma")

	bare := draftDoc()
	bare.Status = entity.DocumentStatusSent
	assert.False(t, document.ReadyToSign(bare, nil), "sin ninguna pista no hay firma")
	assert.True(t, document.ReadyToSign(bare, signedReq))

	bare.Status = entity.DocumentStatusArchived
	assert.False(t, document.ReadyToSign(bare, signedReq), "solo desde sent")
}

package signing_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/signing"
)

var now = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func seqTokens() signing.TokenFunc {
	n := 0
	return func() (string, string, error) {
		n++
		return fmt.Sprintf("tok-%d", n), fmt.Sprintf("hash-%d", n), nil
	}
}

func newRequest(t *testing.T, signers ...signing.SignerInput) *entity.SignatureRequest {
	t.Helper()
	if len(signers) == 0 {
		signers = []signing.SignerInput{
			{Name: "Ana", Email: "ana@example.com"},
			{Name: "Bruno", Email: "bruno@example.com"},
		}
	}
	req, err := signing.NewRequest(signing.NewRequestParams{
		Document:  &entity.Document{ID: "d1", CompanyID: "c1"},
		CreatedBy: "u1",
		Signers:   signers,
		Now:       now,
		ExpiresAt: now.Add(15 * 24 * time.Hour),
		NewToken:  seqTokens(),
	})
	require.NoError(t, err)
	return req
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación
// ──────────────────────────────────────────────────────────────────────────────

func TestNewRequest_SecuenciaYTokens(t *testing.T) {
	req := newRequest(t,
		signing.SignerInput{Name: " Ana ", Email: " ANA@Example.com "},
		signing.SignerInput{Name: "Bruno", Email: "bruno@example.com"},
		signing.SignerInput{Name: "Carla", Email: "carla@example.com"},
	)

	assert.Equal(t, entity.RequestStatusPending, req.Status)
	assert.Equal(t, "c1", req.CompanyID)
	require.Len(t, req.Signers, 3)
	for i, s := range req.Signers {
		assert.Equal(t, i+1, s.Sequence, "secuencias 1..N contiguas")
		assert.Equal(t, entity.SignerStatusPending, s.Status)
		assert.NotEmpty(t, s.Token)
		assert.NotEqual(t, s.Token, s.TokenHash)
	}
	assert.Equal(t, "Ana", req.Signers[0].Name)
	assert.Equal(t, "ana@example.com", req.Signers[0].Email)
	assert.True(t, signing.SignedPrefix(req))
}

func TestNewRequest_EntradaInvalida(t *testing.T) {
	base := signing.NewRequestParams{
		Document:  &entity.Document{ID: "d1", CompanyID: "c1"},
		Signers:   []signing.SignerInput{{Name: "Ana", Email: "ana@example.com"}},
		Now:       now,
		ExpiresAt: now.Add(time.Hour),
		NewToken:  seqTokens(),
	}

	p := base
	p.Signers = nil
	_, err := signing.NewRequest(p)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin firmantes")

	p = base
	p.ExpiresAt = now
	_, err = signing.NewRequest(p)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "vencimiento no futuro")

	p = base
	p.Signers = []signing.SignerInput{{Name: "Ana", Email: "no-es-email"}}
	_, err = signing.NewRequest(p)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "email inválido")
}

// ──────────────────────────────────────────────────────────────────────────────
// Turnos y firma
// ──────────────────────────────────────────────────────────────────────────────

func TestSign_RespetaElOrden(t *testing.T) {
	req := newRequest(t)
	first, second := req.Signers[0].ID, req.Signers[1].ID

	_, err := signing.Sign(req, second, now, signing.Audit{})
	assert.ErrorIs(t, err, domain.ErrSignerNotReady, "el segundo no puede firmar antes que el primero")
	assert.Equal(t, entity.SignerStatusPending, req.Signers[1].Status)

	completed, err := signing.Sign(req, first, now, signing.Audit{IPAddress: "10.0.0.1", UserAgent: "curl"})
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, "10.0.0.1", req.Signers[0].IPAddress)
	assert.True(t, signing.SignedPrefix(req))
	assert.Equal(t, second, signing.NextPending(req).ID)

	completed, err = signing.Sign(req, second, now.Add(time.Hour), signing.Audit{})
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, entity.RequestStatusSigned, req.Status)
	require.NotNil(t, req.CompletedAt)
	assert.Nil(t, signing.NextPending(req))
}

func TestSign_NoFirmaDosVeces(t *testing.T) {
	req := newRequest(t)
	_, err := signing.Sign(req, req.Signers[0].ID, now, signing.Audit{})
	require.NoError(t, err)
	_, err = signing.Sign(req, req.Signers[0].ID, now, signing.Audit{})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestView_SoloPrimeraLectura(t *testing.T) {
	req := newRequest(t)
	id := req.Signers[0].ID

	changed, err := signing.View(req, id, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, entity.SignerStatusViewed, req.Signers[0].Status)

	changed, err = signing.View(req, id, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, now, *req.Signers[0].FirstViewedAt)

	_, err = signing.View(req, req.Signers[1].ID, now)
	assert.ErrorIs(t, err, domain.ErrSignerNotReady, "ver también respeta el turno")
}

func TestReject_DetieneLaSolicitud(t *testing.T) {
	req := newRequest(t)
	require.NoError(t, signing.Reject(req, req.Signers[0].ID, now, "  no estoy de acuerdo ", signing.Audit{}))
	assert.Equal(t, entity.RequestStatusRejected, req.Status)
	assert.Equal(t, "no estoy de acuerdo", req.Signers[0].RejectionReason)

	_, err := signing.Sign(req, req.Signers[1].ID, now, signing.Audit{})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "nadie firma una solicitud rechazada")
}

func TestSignerDesconocido(t *testing.T) {
	req := newRequest(t)
	_, err := signing.Sign(req, "no-existe", now, signing.Audit{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Vencimiento y cancelación
// ──────────────────────────────────────────────────────────────────────────────

func TestIsOverdue_LimiteInclusivo(t *testing.T) {
	req := newRequest(t)
	assert.False(t, signing.IsOverdue(req, req.ExpiresAt.Add(-time.Nanosecond)))
	assert.True(t, signing.IsOverdue(req, req.ExpiresAt), "now == expires_at ya venció")

	req.Status = entity.RequestStatusSigned
	assert.False(t, signing.IsOverdue(req, req.ExpiresAt.Add(time.Hour)), "solo pending vence")
}

func TestSign_SolicitudVencidaAunNoBarrida(t *testing.T) {
	req := newRequest(t)
	_, err := signing.Sign(req, req.Signers[0].ID, req.ExpiresAt, signing.Audit{})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Equal(t, entity.RequestStatusPending, req.Status, "la acción no muta el estado")
}

func TestExpire_ConservaFirmasPrevias(t *testing.T) {
	req := newRequest(t)
	_, err := signing.Sign(req, req.Signers[0].ID, now, signing.Audit{})
	require.NoError(t, err)

	assert.False(t, signing.Expire(req, now))
	assert.True(t, signing.Expire(req, req.ExpiresAt))
	assert.Equal(t, entity.RequestStatusExpired, req.Status)
	assert.Equal(t, entity.SignerStatusSigned, req.Signers[0].Status)
}

func TestCancel(t *testing.T) {
	req := newRequest(t)
	require.NoError(t, signing.Cancel(req, now))
	assert.Equal(t, entity.RequestStatusCancelled, req.Status)
	require.NotNil(t, req.CancelledAt)

	assert.ErrorIs(t, signing.Cancel(req, now), domain.ErrInvalidStateTransition, "cancelar es terminal")

	signed := newRequest(t, signing.SignerInput{Name: "Ana", Email: "ana@example.com"})
	_, err := signing.Sign(signed, signed.Signers[0].ID, now, signing.Audit{})
	require.NoError(t, err)
	assert.ErrorIs(t, signing.Cancel(signed, now), domain.ErrInvalidStateTransition, "una solicitud firmada no se cancela")
}

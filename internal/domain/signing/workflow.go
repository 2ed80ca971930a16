// Package signing modela el flujo ordenado de firma externa: secuencia, turnos y vencimiento.
package signing

import (
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
)

const (
	requestEntity = "signature_request"
	signerEntity  = "signer"
)

// SignerInput datos de un firmante al crear la solicitud (el orden de la lista es el orden de firma).
type SignerInput struct {
	Name  string
	Email string
}

// Audit datos append-only registrados al firmar o rechazar.
type Audit struct {
	IPAddress string
	UserAgent string
}

// TokenFunc genera un token no adivinable y su hash persistible.
type TokenFunc func() (token, hash string, err error)

// NewRequestParams parámetros de creación de una solicitud.
type NewRequestParams struct {
	Document  *entity.Document
	CreatedBy string
	Signers   []SignerInput
	Now       time.Time
	ExpiresAt time.Time
	NewToken  TokenFunc
}

// NewRequest construye la solicitud en pending con secuencias 1..N y un token por firmante.
func NewRequest(p NewRequestParams) (*entity.SignatureRequest, error) {
	if p.Document == nil || len(p.Signers) == 0 || p.NewToken == nil {
		return nil, domain.ErrInvalidInput
	}
	if !p.ExpiresAt.After(p.Now) {
		return nil, domain.ErrInvalidInput
	}
	req := &entity.SignatureRequest{
		ID:         uuid.New().String(),
		DocumentID: p.Document.ID,
		CompanyID:  p.Document.CompanyID,
		BranchID:   p.Document.BranchID,
		CreatedBy:  p.CreatedBy,
		Status:     entity.RequestStatusPending,
		ExpiresAt:  p.ExpiresAt,
		CreatedAt:  p.Now,
		UpdatedAt:  p.Now,
	}
	for i, in := range p.Signers {
		name := strings.TrimSpace(in.Name)
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if name == "" || email == "" {
			return nil, domain.ErrInvalidInput
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.ErrInvalidInput
		}
		token, hash, err := p.NewToken()
		if err != nil {
			return nil, err
		}
		req.Signers = append(req.Signers, entity.Signer{
			ID:        uuid.New().String(),
			RequestID: req.ID,
			Name:      name,
			Email:     email,
			Sequence:  i + 1,
			Status:    entity.SignerStatusPending,
			Token:     token,
			TokenHash: hash,
			CreatedAt: p.Now,
			UpdatedAt: p.Now,
		})
	}
	return req, nil
}

// IsOverdue predicado puro del barrido de vencimiento: pending y expires_at ya pasó.
func IsOverdue(req *entity.SignatureRequest, now time.Time) bool {
	return req.Status == entity.RequestStatusPending && !now.Before(req.ExpiresAt)
}

// SortSigners ordena los firmantes por secuencia.
func SortSigners(req *entity.SignatureRequest) {
	sort.Slice(req.Signers, func(i, j int) bool { return req.Signers[i].Sequence < req.Signers[j].Sequence })
}

// CheckTurn falla con ErrSignerNotReady si algún firmante anterior aún no firmó.
func CheckTurn(req *entity.SignatureRequest, signer *entity.Signer) error {
	for _, s := range req.Signers {
		if s.Sequence < signer.Sequence && s.Status != entity.SignerStatusSigned {
			return domain.ErrSignerNotReady
		}
	}
	return nil
}

// CheckActionable valida que la solicitud admita acciones: pending y no vencida.
func CheckActionable(req *entity.SignatureRequest, now time.Time) error {
	if req.Status != entity.RequestStatusPending {
		return domain.NewTransitionError(requestEntity, req.Status, req.Status, "solicitud no pendiente")
	}
	if IsOverdue(req, now) {
		return domain.NewTransitionError(requestEntity, req.Status, entity.RequestStatusExpired, "solicitud vencida")
	}
	return nil
}

// View registra la primera lectura del firmante (pending→viewed). Lecturas posteriores no cambian nada.
func View(req *entity.SignatureRequest, signerID string, now time.Time) (bool, error) {
	s, err := actionable(req, signerID, now)
	if err != nil {
		return false, err
	}
	if s.Status != entity.SignerStatusPending {
		return false, nil
	}
	t := now
	s.Status = entity.SignerStatusViewed
	s.FirstViewedAt = &t
	s.UpdatedAt = now
	req.UpdatedAt = now
	return true, nil
}

// Sign firma en nombre del firmante. Devuelve completed=true si era el último pendiente,
// en cuyo caso la solicitud pasa a signed.
func Sign(req *entity.SignatureRequest, signerID string, now time.Time, audit Audit) (bool, error) {
	s, err := actionable(req, signerID, now)
	if err != nil {
		return false, err
	}
	if s.Status != entity.SignerStatusPending && s.Status != entity.SignerStatusViewed {
		return false, domain.NewTransitionError(signerEntity, s.Status, entity.SignerStatusSigned, "")
	}
	t := now
	s.Status = entity.SignerStatusSigned
	s.SignedAt = &t
	s.IPAddress = audit.IPAddress
	s.UserAgent = audit.UserAgent
	s.UpdatedAt = now
	req.UpdatedAt = now

	if !AllSigned(req) {
		return false, nil
	}
	req.Status = entity.RequestStatusSigned
	req.CompletedAt = &t
	return true, nil
}

// Reject rechaza en nombre del firmante; detiene toda la solicitud.
func Reject(req *entity.SignatureRequest, signerID string, now time.Time, reason string, audit Audit) error {
	s, err := actionable(req, signerID, now)
	if err != nil {
		return err
	}
	if s.Status != entity.SignerStatusPending && s.Status != entity.SignerStatusViewed {
		return domain.NewTransitionError(signerEntity, s.Status, entity.SignerStatusRejected, "")
	}
	t := now
	s.Status = entity.SignerStatusRejected
	s.RejectedAt = &t
	s.RejectionReason = strings.TrimSpace(reason)
	s.IPAddress = audit.IPAddress
	s.UserAgent = audit.UserAgent
	s.UpdatedAt = now
	req.Status = entity.RequestStatusRejected
	req.UpdatedAt = now
	return nil
}

// Cancel cancela una solicitud pendiente. signed y los demás estados finales no se cancelan.
func Cancel(req *entity.SignatureRequest, now time.Time) error {
	if req.Status != entity.RequestStatusPending {
		return domain.NewTransitionError(requestEntity, req.Status, entity.RequestStatusCancelled, "")
	}
	t := now
	req.Status = entity.RequestStatusCancelled
	req.CancelledAt = &t
	req.UpdatedAt = now
	return nil
}

// Expire marca como expired una solicitud vencida. No toca a los firmantes que ya firmaron.
func Expire(req *entity.SignatureRequest, now time.Time) bool {
	if !IsOverdue(req, now) {
		return false
	}
	req.Status = entity.RequestStatusExpired
	req.UpdatedAt = now
	return true
}

// AllSigned informa si todos los firmantes firmaron.
func AllSigned(req *entity.SignatureRequest) bool {
	if len(req.Signers) == 0 {
		return false
	}
	for _, s := range req.Signers {
		if s.Status != entity.SignerStatusSigned {
			return false
		}
	}
	return true
}

// NextPending devuelve el primer firmante (por secuencia) que aún no firmó, o nil.
func NextPending(req *entity.SignatureRequest) *entity.Signer {
	var next *entity.Signer
	for i := range req.Signers {
		s := &req.Signers[i]
		if s.Status == entity.SignerStatusSigned {
			continue
		}
		if next == nil || s.Sequence < next.Sequence {
			next = s
		}
	}
	return next
}

// SignedPrefix informa si los firmantes en signed forman un prefijo de la secuencia (sin huecos).
func SignedPrefix(req *entity.SignatureRequest) bool {
	bySeq := make(map[int]string, len(req.Signers))
	for _, s := range req.Signers {
		bySeq[s.Sequence] = s.Status
	}
	gap := false
	for seq := 1; seq <= len(req.Signers); seq++ {
		status, ok := bySeq[seq]
		if !ok {
			return false
		}
		if status == entity.SignerStatusSigned {
			if gap {
				return false
			}
			continue
		}
		gap = true
	}
	return true
}

func actionable(req *entity.SignatureRequest, signerID string, now time.Time) (*entity.Signer, error) {
	s := req.FindSigner(signerID)
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if err := CheckActionable(req, now); err != nil {
		return nil, err
	}
	if err := CheckTurn(req, s); err != nil {
		return nil, err
	}
	return s, nil
}

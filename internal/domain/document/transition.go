// Package document contiene la máquina de estados del documento y de sus firmantes internos.
package document

import (
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
)

const entityName = "document"

// transiciones permitidas por llamada explícita del cliente. "signed" nunca aparece aquí:
// es un estado derivado (ver MarkSigned).
var allowed = map[string]map[string]bool{
	entity.DocumentStatusDraft: {
		entity.DocumentStatusSent:      true,
		entity.DocumentStatusCancelled: true,
	},
	entity.DocumentStatusSent: {
		entity.DocumentStatusCancelled: true,
		entity.DocumentStatusArchived:  true,
	},
}

// IsValidStatus informa si el estado existe.
func IsValidStatus(s string) bool {
	switch s {
	case entity.DocumentStatusDraft, entity.DocumentStatusSent, entity.DocumentStatusSigned,
		entity.DocumentStatusCancelled, entity.DocumentStatusArchived:
		return true
	}
	return false
}

// IsTerminal informa si el documento ya no admite cambios de flujo.
func IsTerminal(s string) bool {
	return s == entity.DocumentStatusSigned || s == entity.DocumentStatusCancelled || s == entity.DocumentStatusArchived
}

// Transition aplica una transición pedida por el cliente (draft→sent, *→cancelled, sent→archived).
// maxInternalSigners es el techo configurado de firmantes internos por documento.
func Transition(doc *entity.Document, to string, maxInternalSigners int) error {
	from := doc.Status
	if to == entity.DocumentStatusSigned {
		return domain.NewTransitionError(entityName, from, to, "el estado signed se deriva de la firma")
	}
	if !allowed[from][to] {
		return domain.NewTransitionError(entityName, from, to, "")
	}
	if to == entity.DocumentStatusSent {
		if err := CheckSendable(doc, maxInternalSigners); err != nil {
			return err
		}
	}
	doc.Status = to
	return nil
}

// CheckSendable valida las precondiciones de draft→sent.
func CheckSendable(doc *entity.Document, maxInternalSigners int) error {
	if doc.CreatedBy == "" {
		return domain.NewTransitionError(entityName, doc.Status, entity.DocumentStatusSent, "creador requerido")
	}
	if doc.StoragePath == "" {
		return domain.NewTransitionError(entityName, doc.Status, entity.DocumentStatusSent, "archivo requerido")
	}
	if doc.RequiresInternalSigners {
		if len(doc.InternalSigners) == 0 {
			return domain.NewTransitionError(entityName, doc.Status, entity.DocumentStatusSent, "firmantes internos requeridos")
		}
		if maxInternalSigners > 0 && len(doc.InternalSigners) > maxInternalSigners {
			return domain.NewTransitionError(entityName, doc.Status, entity.DocumentStatusSent, "demasiados firmantes internos")
		}
	}
	return nil
}

// MarkSigned lleva el documento a signed. Solo la completitud de la firma lo invoca.
// Repetirlo sobre un documento ya firmado es un no-op (changed=false).
func MarkSigned(doc *entity.Document) (bool, error) {
	switch doc.Status {
	case entity.DocumentStatusSigned:
		return false, nil
	case entity.DocumentStatusSent:
		doc.Status = entity.DocumentStatusSigned
		return true, nil
	}
	return false, domain.NewTransitionError(entityName, doc.Status, entity.DocumentStatusSigned, "")
}

// InternalTrackComplete informa si todos los firmantes internos firmaron (o no hay ninguno).
func InternalTrackComplete(doc *entity.Document) bool {
	for _, s := range doc.InternalSigners {
		if s.Status != entity.InternalSignerSigned {
			return false
		}
	}
	return true
}

// ViewInternal registra la primera visualización de un firmante interno.
func ViewInternal(doc *entity.Document, userID string, now time.Time) (bool, error) {
	s, err := internalSigner(doc, userID)
	if err != nil {
		return false, err
	}
	if s.Status != entity.InternalSignerPending {
		return false, nil
	}
	if doc.Status != entity.DocumentStatusSent {
		return false, domain.NewTransitionError("internal_signer", s.Status, entity.InternalSignerViewed, "documento no enviado")
	}
	s.Status = entity.InternalSignerViewed
	if s.FirstViewedAt == nil {
		t := now
		s.FirstViewedAt = &t
	}
	return true, nil
}

// SignInternal registra la firma de un firmante interno. Firmar de nuevo es un no-op.
func SignInternal(doc *entity.Document, userID string, now time.Time) (bool, error) {
	s, err := internalSigner(doc, userID)
	if err != nil {
		return false, err
	}
	if s.Status == entity.InternalSignerSigned {
		return false, nil
	}
	if s.Status == entity.InternalSignerRejected {
		return false, domain.NewTransitionError("internal_signer", s.Status, entity.InternalSignerSigned, "")
	}
	if doc.Status != entity.DocumentStatusSent {
		return false, domain.NewTransitionError("internal_signer", s.Status, entity.InternalSignerSigned, "documento no enviado")
	}
	t := now
	s.Status = entity.InternalSignerSigned
	s.SignedAt = &t
	return true, nil
}

// RejectInternal registra el rechazo de un firmante interno. El documento sigue en sent.
func RejectInternal(doc *entity.Document, userID string, now time.Time) error {
	s, err := internalSigner(doc, userID)
	if err != nil {
		return err
	}
	if s.Status == entity.InternalSignerSigned || s.Status == entity.InternalSignerRejected {
		return domain.NewTransitionError("internal_signer", s.Status, entity.InternalSignerRejected, "")
	}
	if doc.Status != entity.DocumentStatusSent {
		return domain.NewTransitionError("internal_signer", s.Status, entity.InternalSignerRejected, "documento no enviado")
	}
	t := now
	s.Status = entity.InternalSignerRejected
	s.RejectedAt = &t
	return nil
}

func internalSigner(doc *entity.Document, userID string) (*entity.InternalSigner, error) {
	s := doc.FindInternalSigner(userID)
	if s == nil {
		return nil, domain.ErrForbidden
	}
	return s, nil
}

// ReadyToSign informa si el documento debe pasar a signed: está enviado, tiene al menos una pista
// de firma y todas las presentes terminaron (firmantes internos y, si existe, la última solicitud
// no cancelada). Una solicitud rechazada o vencida bloquea la firma hasta que otra la reemplace.
func ReadyToSign(doc *entity.Document, latest *entity.SignatureRequest) bool {
	if doc.Status != entity.DocumentStatusSent {
		return false
	}
	if len(doc.InternalSigners) == 0 && latest == nil {
		return false
	}
	if !InternalTrackComplete(doc) {
		return false
	}
	return latest == nil || latest.Status == entity.RequestStatusSigned
}

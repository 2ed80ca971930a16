package entity

import "time"

// Estados del documento.
const (
	DocumentStatusDraft     = "draft"
	DocumentStatusSent      = "sent"
	DocumentStatusSigned    = "signed"
	DocumentStatusCancelled = "cancelled"
	DocumentStatusArchived  = "archived"
)

// Estados de un firmante interno.
const (
	InternalSignerPending  = "pending"
	InternalSignerViewed   = "viewed"
	InternalSignerSigned   = "signed"
	InternalSignerRejected = "rejected"
)

// Document es el artefacto gestionado: metadatos, puntero al archivo y firmantes internos.
type Document struct {
	ID                      string
	CompanyID               string
	BranchID                *string
	CreatedBy               string
	Title                   string
	Description             string
	Status                  string
	AccessHash              string // inmutable, generado en la creación
	StoragePath             string
	ContentType             string
	SizeBytes               int64
	RequiresInternalSigners bool
	InternalSigners         []InternalSigner
	CreatedAt               time.Time
	UpdatedAt               time.Time
	DeletedAt               *time.Time
}

// InternalSigner usuario de la empresa que debe dar conformidad dentro de la app autenticada.
type InternalSigner struct {
	DocumentID    string
	UserID        string
	Status        string
	FirstViewedAt *time.Time
	SignedAt      *time.Time
	RejectedAt    *time.Time
}

// BranchIDValue devuelve el branch_id o "".
func (d *Document) BranchIDValue() string {
	if d == nil || d.BranchID == nil {
		return ""
	}
	return *d.BranchID
}

// InternalSignerIDs devuelve los IDs de usuario de los firmantes internos.
func (d *Document) InternalSignerIDs() []string {
	ids := make([]string, 0, len(d.InternalSigners))
	for _, s := range d.InternalSigners {
		ids = append(ids, s.UserID)
	}
	return ids
}

// FindInternalSigner devuelve el firmante interno del usuario o nil.
func (d *Document) FindInternalSigner(userID string) *InternalSigner {
	for i := range d.InternalSigners {
		if d.InternalSigners[i].UserID == userID {
			return &d.InternalSigners[i]
		}
	}
	return nil
}

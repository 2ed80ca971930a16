package entity

import "time"

// Estados de la solicitud de firma.
const (
	RequestStatusPending   = "pending"
	RequestStatusSigned    = "signed"
	RequestStatusRejected  = "rejected"
	RequestStatusExpired   = "expired"
	RequestStatusCancelled = "cancelled"
)

// Estados de un firmante externo.
const (
	SignerStatusPending  = "pending"
	SignerStatusViewed   = "viewed"
	SignerStatusSigned   = "signed"
	SignerStatusRejected = "rejected"
)

// SignatureRequest flujo ordenado y tokenizado de firma externa sobre un Document.
type SignatureRequest struct {
	ID          string
	DocumentID  string
	CompanyID   string
	BranchID    *string
	CreatedBy   string
	Status      string
	ExpiresAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	Signers     []Signer
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Signer participante de una SignatureRequest, identificado por un token portador.
// Token solo está presente en memoria al crear la solicitud; se persiste TokenHash.
type Signer struct {
	ID              string
	RequestID       string
	Name            string
	Email           string
	Sequence        int
	Status          string
	Token           string
	TokenHash       string
	FirstViewedAt   *time.Time
	SignedAt        *time.Time
	RejectedAt      *time.Time
	RejectionReason string
	IPAddress       string
	UserAgent       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FindSigner devuelve el firmante por ID o nil.
func (r *SignatureRequest) FindSigner(id string) *Signer {
	for i := range r.Signers {
		if r.Signers[i].ID == id {
			return &r.Signers[i]
		}
	}
	return nil
}

// SignerEmails devuelve los emails de los firmantes, en orden de secuencia.
func (r *SignatureRequest) SignerEmails() []string {
	out := make([]string, 0, len(r.Signers))
	for _, s := range r.Signers {
		out = append(out, s.Email)
	}
	return out
}

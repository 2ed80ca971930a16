package dto

import "time"

// SignerRequest un firmante en el orden de la lista.
type SignerRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Email string `json:"email" validate:"required,email"`
}

// CreateSignatureRequestRequest entrada para crear una solicitud de firma.
// Si ExpiresAt es nil se usa el horizonte configurado.
type CreateSignatureRequestRequest struct {
	Signers   []SignerRequest `json:"signers" validate:"required,min=1,dive"`
	ExpiresAt *time.Time      `json:"expires_at"`
}

// SignerResponse estado de un firmante (nunca incluye el token).
type SignerResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Sequence        int        `json:"sequence"`
	Status          string     `json:"status"`
	FirstViewedAt   *time.Time `json:"first_viewed_at,omitempty"`
	SignedAt        *time.Time `json:"signed_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// SignatureRequestResponse salida de una solicitud de firma.
type SignatureRequestResponse struct {
	ID          string           `json:"id"`
	DocumentID  string           `json:"document_id"`
	CompanyID   string           `json:"company_id"`
	CreatedBy   string           `json:"created_by"`
	Status      string           `json:"status"`
	ExpiresAt   time.Time        `json:"expires_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	CancelledAt *time.Time       `json:"cancelled_at,omitempty"`
	Signers     []SignerResponse `json:"signers"`
	CreatedAt   time.Time        `json:"created_at"`
}

// SignerLink enlace público de un firmante. Solo se devuelve una vez, al crear la solicitud.
type SignerLink struct {
	SignerID string `json:"signer_id"`
	Sequence int    `json:"sequence"`
	Link     string `json:"link"`
}

// SignatureRequestCreatedResponse solicitud recién creada con los enlaces de firma.
type SignatureRequestCreatedResponse struct {
	SignatureRequestResponse
	Links []SignerLink `json:"links"`
}

// SignatureRequestListResponse solicitudes de un documento.
type SignatureRequestListResponse struct {
	Items []SignatureRequestResponse `json:"items"`
}

// SigningSessionResponse lo que ve un firmante al abrir su enlace.
type SigningSessionResponse struct {
	DocumentID          string    `json:"document_id"`
	DocumentTitle       string    `json:"document_title"`
	DocumentDescription string    `json:"document_description,omitempty"`
	ContentType         string    `json:"content_type"`
	SignerName          string    `json:"signer_name"`
	Sequence            int       `json:"sequence"`
	TotalSigners        int       `json:"total_signers"`
	SignerStatus        string    `json:"signer_status"`
	ExpiresAt           time.Time `json:"expires_at"`
}

// RejectSignatureRequest motivo opcional de rechazo.
type RejectSignatureRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// SignerActionResponse resultado de firmar o rechazar.
type SignerActionResponse struct {
	SignerStatus  string `json:"signer_status"`
	RequestStatus string `json:"request_status"`
	Completed     bool   `json:"completed"`
}

// ExpireResponse resultado del barrido de vencimiento.
type ExpireResponse struct {
	Expired int `json:"expired"`
}

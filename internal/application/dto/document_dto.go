package dto

import "time"

// CreateDocumentInput entrada de alta de documento, armada por el handler a partir del multipart.
type CreateDocumentInput struct {
	CompanyID               string
	BranchID                string
	Title                   string
	Description             string
	RequiresInternalSigners bool
	InternalSignerIDs       []string
	FileName                string
	ContentType             string
	Data                    []byte
}

// TransitionDocumentRequest transición explícita pedida por el cliente.
type TransitionDocumentRequest struct {
	Status string `json:"status" validate:"required,oneof=sent cancelled archived"`
}

// DocumentFilterRequest filtros del listado.
type DocumentFilterRequest struct {
	Status   string `query:"status"`
	BranchID string `query:"branch_id"`
}

// InternalSignerResponse estado de un firmante interno.
type InternalSignerResponse struct {
	UserID        string     `json:"user_id"`
	Status        string     `json:"status"`
	FirstViewedAt *time.Time `json:"first_viewed_at,omitempty"`
	SignedAt      *time.Time `json:"signed_at,omitempty"`
	RejectedAt    *time.Time `json:"rejected_at,omitempty"`
}

// DocumentResponse salida de un documento.
type DocumentResponse struct {
	ID                      string                   `json:"id"`
	CompanyID               string                   `json:"company_id"`
	BranchID                string                   `json:"branch_id,omitempty"`
	CreatedBy               string                   `json:"created_by"`
	Title                   string                   `json:"title"`
	Description             string                   `json:"description,omitempty"`
	Status                  string                   `json:"status"`
	AccessHash              string                   `json:"access_hash"`
	ContentType             string                   `json:"content_type"`
	SizeBytes               int64                    `json:"size_bytes"`
	RequiresInternalSigners bool                     `json:"requires_internal_signers"`
	InternalSigners         []InternalSignerResponse `json:"internal_signers"`
	CreatedAt               time.Time                `json:"created_at"`
	UpdatedAt               time.Time                `json:"updated_at"`
}

// DocumentListResponse lista paginada de documentos.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

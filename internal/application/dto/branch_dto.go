package dto

import "time"

// CreateBranchRequest entrada para crear una filial. CompanyID solo lo usa super_admin.
type CreateBranchRequest struct {
	CompanyID string `json:"company_id" validate:"omitempty,uuid"`
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Code      string `json:"code" validate:"required,min=1,max=50"`
}

// BranchResponse salida de una filial.
type BranchResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// BranchListResponse lista paginada de filiales.
type BranchListResponse struct {
	Items []BranchResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

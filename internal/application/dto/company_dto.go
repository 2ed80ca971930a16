package dto

import "time"

// CreateCompanyRequest entrada para crear una empresa (solo super_admin).
type CreateCompanyRequest struct {
	Code          string     `json:"code" validate:"required,min=1,max=50"`
	Name          string     `json:"name" validate:"required,min=1,max=200"`
	TaxID         string     `json:"tax_id" validate:"required"`
	PlanID        string     `json:"plan_id" validate:"required,uuid"`
	PlanExpiresAt *time.Time `json:"plan_expires_at"`
}

// ChangePlanRequest cambio de plan. No revalida los recursos existentes.
type ChangePlanRequest struct {
	PlanID        string     `json:"plan_id" validate:"required,uuid"`
	PlanExpiresAt *time.Time `json:"plan_expires_at"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	TaxID         string     `json:"tax_id"`
	PlanID        string     `json:"plan_id"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePlanRequest entrada para crear un plan. 0 en un límite significa ilimitado.
type CreatePlanRequest struct {
	Name          string          `json:"name" validate:"required,min=1,max=100"`
	MaxUsers      int             `json:"max_users" validate:"min=0"`
	MaxDocuments  int             `json:"max_documents" validate:"min=0"`
	MaxSignatures int             `json:"max_signatures" validate:"min=0"`
	MaxBranches   int             `json:"max_branches" validate:"min=0"`
	MonthlyPrice  decimal.Decimal `json:"monthly_price"`
}

// PlanResponse salida de un plan.
type PlanResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	MaxUsers      int             `json:"max_users"`
	MaxDocuments  int             `json:"max_documents"`
	MaxSignatures int             `json:"max_signatures"`
	MaxBranches   int             `json:"max_branches"`
	MonthlyPrice  decimal.Decimal `json:"monthly_price"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PlanListResponse lista de planes.
type PlanListResponse struct {
	Items []PlanResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

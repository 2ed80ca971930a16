package entity

import "time"

// Company representa una organización/tenant del sistema.
// Tiene exactamente un plan vigente; PlanExpiresAt es informativo y nunca se aplica desde el núcleo.
type Company struct {
	ID            string
	Code          string // código único legible
	Name          string
	TaxID         string // CNPJ normalizado (solo dígitos)
	PlanID        string
	PlanExpiresAt *time.Time
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

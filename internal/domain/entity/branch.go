package entity

import "time"

// Branch representa una filial de una Company. CompanyID no cambia después de creada.
type Branch struct {
	ID        string
	CompanyID string
	Name      string
	Code      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

package entity

import "time"

// Roles válidos para User.
const (
	RoleSuperAdmin   = "super_admin"
	RoleCompanyAdmin = "company_admin"
	RoleSubscriber   = "subscriber"
)

// IsValidRole informa si el rol es uno de los soportados.
func IsValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleCompanyAdmin, RoleSubscriber:
		return true
	}
	return false
}

// User representa un usuario del sistema.
// CompanyID es nil solo para super_admin; BranchID, si existe, pertenece a la misma empresa.
type User struct {
	ID           string
	CompanyID    *string
	BranchID     *string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// CompanyIDValue devuelve el company_id o "" si es nil.
func (u *User) CompanyIDValue() string {
	if u == nil || u.CompanyID == nil {
		return ""
	}
	return *u.CompanyID
}

// BranchIDValue devuelve el branch_id o "" si es nil.
func (u *User) BranchIDValue() string {
	if u == nil || u.BranchID == nil {
		return ""
	}
	return *u.BranchID
}

// Package tenant deriva el alcance (scope) de acceso de un usuario autenticado.
// Toda lectura o escritura sobre Document, SignatureRequest, Branch y User pasa por Resolve.
package tenant

import "github.com/jhoicas/Firmador-api/internal/domain/entity"

// Resource tipo de recurso sobre el que se resuelve el alcance.
type Resource string

const (
	ResourceDocument         Resource = "document"
	ResourceSignatureRequest Resource = "signature_request"
	ResourceBranch           Resource = "branch"
	ResourceUser             Resource = "user"
)

// Principal identidad autenticada (claims del JWT).
type Principal struct {
	UserID    string
	CompanyID string
	BranchID  string
	Role      string
}

// IsSuperAdmin informa si el principal es super_admin.
func (p Principal) IsSuperAdmin() bool { return p.Role == entity.RoleSuperAdmin }

// IsAdmin informa si el principal administra su empresa (o es super_admin).
func (p Principal) IsAdmin() bool {
	return p.Role == entity.RoleSuperAdmin || p.Role == entity.RoleCompanyAdmin
}

// Scope predicado de filtrado. Deny=true significa conjunto vacío (fail closed).
//   - Global: sin restricción.
//   - CompanyID: company_id = CompanyID.
//   - BranchID: branch_id = BranchID (opcional).
//   - ActorID: created_by = ActorID o ActorID está entre los asignados del recurso.
//   - SelfID: para User/Branch, id = SelfID.
type Scope struct {
	Deny      bool
	Global    bool
	CompanyID string
	BranchID  string
	ActorID   string
	SelfID    string
}

// Attributes atributos del recurso que el predicado necesita evaluar.
type Attributes struct {
	ID        string
	CompanyID string
	BranchID  string
	CreatedBy string
	Assignees []string
}

// Resolve produce el alcance para el principal y el tipo de recurso.
func Resolve(p Principal, r Resource) Scope {
	switch p.Role {
	case entity.RoleSuperAdmin:
		return Scope{Global: true}
	case entity.RoleCompanyAdmin:
		if p.CompanyID == "" {
			return Scope{Deny: true}
		}
		return Scope{CompanyID: p.CompanyID}
	case entity.RoleSubscriber:
		if p.CompanyID == "" || p.UserID == "" {
			return Scope{Deny: true}
		}
		switch r {
		case ResourceDocument, ResourceSignatureRequest:
			return Scope{CompanyID: p.CompanyID, ActorID: p.UserID}
		case ResourceUser:
			return Scope{CompanyID: p.CompanyID, SelfID: p.UserID}
		case ResourceBranch:
			if p.BranchID == "" {
				return Scope{Deny: true}
			}
			return Scope{CompanyID: p.CompanyID, SelfID: p.BranchID}
		}
	}
	return Scope{Deny: true}
}

// WithBranch restringe el alcance a una filial. Un alcance denegado sigue denegado.
func (s Scope) WithBranch(branchID string) Scope {
	if s.Deny || branchID == "" {
		return s
	}
	s.BranchID = branchID
	return s
}

// Permits evalúa el predicado sobre un recurso concreto.
func (s Scope) Permits(a Attributes) bool {
	if s.Deny {
		return false
	}
	if s.BranchID != "" && a.BranchID != s.BranchID {
		return false
	}
	if s.Global {
		return true
	}
	if s.CompanyID == "" || a.CompanyID != s.CompanyID {
		return false
	}
	if s.SelfID != "" && a.ID != s.SelfID {
		return false
	}
	if s.ActorID != "" {
		if a.CreatedBy == s.ActorID {
			return true
		}
		for _, id := range a.Assignees {
			if id == s.ActorID {
				return true
			}
		}
		return false
	}
	return true
}

// CanManage informa si el principal puede cancelar/archivar un recurso visible creado por createdBy.
// Solo admins de la empresa, super_admin o el creador original.
func CanManage(p Principal, createdBy string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.UserID != "" && p.UserID == createdBy
}

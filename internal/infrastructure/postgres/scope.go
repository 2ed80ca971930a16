package postgres

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

// args acumula parámetros posicionales ($1, $2, ...) de una consulta.
type args struct {
	values []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

// scopeColumns columnas sobre las que se traduce el alcance del tenant.
// assignees es una subconsulta con un %s para el parámetro del actor; vacío si el recurso no tiene asignados.
type scopeColumns struct {
	id        string
	company   string
	branch    string
	createdBy string
	assignees string
}

// scopeWhere traduce un tenant.Scope a un predicado SQL. Un alcance denegado produce FALSE.
func scopeWhere(s tenant.Scope, cols scopeColumns, a *args) string {
	if s.Deny {
		return "FALSE"
	}
	var conds []string
	if s.BranchID != "" {
		if cols.branch == "" {
			return "FALSE"
		}
		conds = append(conds, cols.branch+" = "+a.add(s.BranchID))
	}
	if !s.Global {
		if s.CompanyID == "" || cols.company == "" {
			return "FALSE"
		}
		conds = append(conds, cols.company+" = "+a.add(s.CompanyID))
		if s.SelfID != "" {
			conds = append(conds, cols.id+" = "+a.add(s.SelfID))
		}
		if s.ActorID != "" {
			if cols.createdBy == "" {
				return "FALSE"
			}
			actor := a.add(s.ActorID)
			cond := cols.createdBy + " = " + actor
			if cols.assignees != "" {
				cond = "(" + cond + " OR " + fmt.Sprintf(cols.assignees, actor) + ")"
			}
			conds = append(conds, cond)
		}
	}
	if len(conds) == 0 {
		return "TRUE"
	}
	return strings.Join(conds, " AND ")
}

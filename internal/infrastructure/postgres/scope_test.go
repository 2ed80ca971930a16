package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

func TestScopeWhere(t *testing.T) {
	tests := []struct {
		name     string
		scope    tenant.Scope
		cols     scopeColumns
		want     string
		wantArgs []any
	}{
		{
			name:  "denegado",
			scope: tenant.Scope{Deny: true},
			cols:  documentScope,
			want:  "FALSE",
		},
		{
			name:  "global",
			scope: tenant.Scope{Global: true},
			cols:  documentScope,
			want:  "TRUE",
		},
		{
			name:     "global con filial",
			scope:    tenant.Scope{Global: true, BranchID: "b1"},
			cols:     documentScope,
			want:     "d.branch_id = $1",
			wantArgs: []any{"b1"},
		},
		{
			name:     "empresa",
			scope:    tenant.Scope{CompanyID: "c1"},
			cols:     documentScope,
			want:     "d.company_id = $1",
			wantArgs: []any{"c1"},
		},
		{
			name:  "suscriptor ve lo propio y lo asignado",
			scope: tenant.Scope{CompanyID: "c1", ActorID: "u1"},
			cols:  documentScope,
			want: "d.company_id = $1 AND (d.created_by = $2 OR EXISTS (SELECT 1 FROM document_internal_signers dis " +
				"WHERE dis.document_id = d.id AND dis.user_id = $2))",
			wantArgs: []any{"c1", "u1"},
		},
		{
			name:     "usuario propio",
			scope:    tenant.Scope{CompanyID: "c1", SelfID: "u1"},
			cols:     userScope,
			want:     "u.company_id = $1 AND u.id = $2",
			wantArgs: []any{"c1", "u1"},
		},
		{
			name:  "filial sobre recurso sin columna de filial",
			scope: tenant.Scope{CompanyID: "c1", BranchID: "b1"},
			cols:  branchScope,
			want:  "FALSE",
		},
		{
			name:  "empresa vacía falla cerrado",
			scope: tenant.Scope{},
			cols:  documentScope,
			want:  "FALSE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &args{}
			got := scopeWhere(tt.scope, tt.cols, a)
			assert.Equal(t, tt.want, got)
			if tt.wantArgs != nil {
				assert.Equal(t, tt.wantArgs, a.values)
			}
		})
	}
}

func TestArgs_NumeracionContinua(t *testing.T) {
	a := &args{}
	assert.Equal(t, "$1", a.add("x"))
	where := scopeWhere(tenant.Scope{CompanyID: "c1"}, documentScope, a)
	assert.Equal(t, "d.company_id = $2", where)
	assert.Equal(t, "$3", a.add(20))
	assert.Equal(t, []any{"x", "c1", 20}, a.values)
}

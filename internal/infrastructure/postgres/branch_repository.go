package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

var _ repository.BranchRepository = (*BranchRepo)(nil)

const branchColumns = `b.id, b.company_id, b.name, b.code, b.active, b.created_at, b.updated_at, b.deleted_at`

var branchScope = scopeColumns{id: "b.id", company: "b.company_id"}

// BranchRepo implementación de BranchRepository sobre PostgreSQL.
type BranchRepo struct {
	q Querier
}

// NewBranchRepository construye el adaptador de filiales.
func NewBranchRepository(q Querier) *BranchRepo {
	return &BranchRepo{q: q}
}

// Create persiste una filial.
func (r *BranchRepo) Create(ctx context.Context, b *entity.Branch) error {
	query := `
		INSERT INTO branches (id, company_id, name, code, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, b.ID, b.CompanyID, b.Name, b.Code, b.Active, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert branch", err)
	}
	return nil
}

// GetByID obtiene una filial visible en el alcance.
func (r *BranchRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Branch, error) {
	a := &args{}
	query := `SELECT ` + branchColumns + ` FROM branches b
		WHERE b.id = ` + a.add(id) + ` AND b.deleted_at IS NULL AND ` + scopeWhere(scope, branchScope, a)
	b, err := scanBranch(r.q.QueryRow(ctx, query, a.values...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get branch", err)
	}
	return b, nil
}

// List lista las filiales visibles en el alcance.
func (r *BranchRepo) List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*entity.Branch, error) {
	a := &args{}
	query := `SELECT ` + branchColumns + ` FROM branches b
		WHERE b.deleted_at IS NULL AND ` + scopeWhere(scope, branchScope, a) + `
		ORDER BY b.name LIMIT ` + a.add(limit) + ` OFFSET ` + a.add(offset)
	rows, err := r.q.Query(ctx, query, a.values...)
	if err != nil {
		return nil, wrapErr("list branches", err)
	}
	defer rows.Close()

	var list []*entity.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, wrapErr("scan branch", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// SoftDelete marca deleted_at; fuera del alcance se reporta como no encontrada.
func (r *BranchRepo) SoftDelete(ctx context.Context, scope tenant.Scope, id string, at time.Time) error {
	a := &args{}
	query := `UPDATE branches b SET deleted_at = ` + a.add(at) + `, updated_at = ` + a.add(at) + `, active = FALSE
		WHERE b.id = ` + a.add(id) + ` AND b.deleted_at IS NULL AND ` + scopeWhere(scope, branchScope, a)
	cmd, err := r.q.Exec(ctx, query, a.values...)
	if err != nil {
		return wrapErr("delete branch", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountActive cuenta las filiales no eliminadas de la empresa.
func (r *BranchRepo) CountActive(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM branches WHERE company_id = $1 AND deleted_at IS NULL`, companyID).Scan(&n)
	if err != nil {
		return 0, wrapErr("count branches", err)
	}
	return n, nil
}

func scanBranch(row rowScanner) (*entity.Branch, error) {
	var b entity.Branch
	if err := row.Scan(&b.ID, &b.CompanyID, &b.Name, &b.Code, &b.Active, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

package postgres

import (
	"context"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

const planColumns = `id, name, max_users, max_documents, max_signatures, max_branches, monthly_price, active, created_at, updated_at`

// PlanRepo implementación de PlanRepository sobre PostgreSQL.
type PlanRepo struct {
	q Querier
}

// NewPlanRepository construye el adaptador de planes.
func NewPlanRepository(q Querier) *PlanRepo {
	return &PlanRepo{q: q}
}

// Create persiste un plan.
func (r *PlanRepo) Create(ctx context.Context, p *entity.Plan) error {
	query := `
		INSERT INTO plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.MaxUsers, p.MaxDocuments, p.MaxSignatures, p.MaxBranches,
		p.MonthlyPrice, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert plan", err)
	}
	return nil
}

// GetByID obtiene un plan por ID.
func (r *PlanRepo) GetByID(ctx context.Context, id string) (*entity.Plan, error) {
	p, err := scanPlan(r.q.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get plan", err)
	}
	return p, nil
}

// List devuelve los planes ordenados por precio.
func (r *PlanRepo) List(ctx context.Context, limit, offset int) ([]*entity.Plan, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+planColumns+` FROM plans ORDER BY monthly_price, name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, wrapErr("list plans", err)
	}
	defer rows.Close()

	var list []*entity.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, wrapErr("scan plan", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanPlan(row rowScanner) (*entity.Plan, error) {
	var p entity.Plan
	err := row.Scan(&p.ID, &p.Name, &p.MaxUsers, &p.MaxDocuments, &p.MaxSignatures, &p.MaxBranches,
		&p.MonthlyPrice, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

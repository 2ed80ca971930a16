package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

const companyColumns = `id, code, name, tax_id, plan_id, plan_expires_at, active, created_at, updated_at`

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas. Pasar pool o tx.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste una nueva empresa.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Code, c.Name, c.TaxID, c.PlanID, c.PlanExpiresAt, c.Active, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert company", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	return r.getOne(ctx, "get company", `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
}

// GetByCode obtiene una empresa por su código.
func (r *CompanyRepo) GetByCode(ctx context.Context, code string) (*entity.Company, error) {
	return r.getOne(ctx, "get company by code", `SELECT `+companyColumns+` FROM companies WHERE code = $1`, code)
}

// GetByTaxID obtiene una empresa por CNPJ normalizado.
func (r *CompanyRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.Company, error) {
	return r.getOne(ctx, "get company by tax id", `SELECT `+companyColumns+` FROM companies WHERE tax_id = $1`, taxID)
}

// LockByID lee la empresa con SELECT ... FOR UPDATE.
func (r *CompanyRepo) LockByID(ctx context.Context, id string) (*entity.Company, error) {
	return r.getOne(ctx, "lock company", `SELECT `+companyColumns+` FROM companies WHERE id = $1 FOR UPDATE`, id)
}

// List devuelve empresas con paginación.
func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, wrapErr("list companies", err)
	}
	defer rows.Close()

	var list []*entity.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, wrapErr("scan company", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// UpdatePlan asigna un nuevo plan. No revalida los recursos existentes contra los nuevos límites.
func (r *CompanyRepo) UpdatePlan(ctx context.Context, id, planID string, expiresAt *time.Time, at time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE companies SET plan_id = $2, plan_expires_at = $3, updated_at = $4 WHERE id = $1`,
		id, planID, expiresAt, at,
	)
	if err != nil {
		return wrapErr("update company plan", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CompanyRepo) getOne(ctx context.Context, op, query string, arg any) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*entity.Company, error) {
	var c entity.Company
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.TaxID, &c.PlanID, &c.PlanExpiresAt, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

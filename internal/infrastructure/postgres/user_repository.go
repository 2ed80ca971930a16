package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `u.id, u.company_id, u.branch_id, u.email, u.password_hash, u.name, u.role, u.status,
	u.created_at, u.updated_at, u.deleted_at`

var userScope = scopeColumns{id: "u.id", company: "u.company_id", branch: "u.branch_id"}

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, company_id, branch_id, email, password_hash, name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		user.ID, user.CompanyID, user.BranchID, strings.ToLower(user.Email), user.PasswordHash,
		user.Name, user.Role, user.Status, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return wrapErr("insert user", err)
	}
	return nil
}

// GetByID obtiene un usuario visible en el alcance.
func (r *UserRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.User, error) {
	a := &args{}
	query := `SELECT ` + userColumns + ` FROM users u
		WHERE u.id = ` + a.add(id) + ` AND u.deleted_at IS NULL AND ` + scopeWhere(scope, userScope, a)
	u, err := scanUser(r.q.QueryRow(ctx, query, a.values...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get user by id", err)
	}
	return u, nil
}

// List lista usuarios visibles en el alcance.
func (r *UserRepo) List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*entity.User, error) {
	a := &args{}
	query := `SELECT ` + userColumns + ` FROM users u
		WHERE u.deleted_at IS NULL AND ` + scopeWhere(scope, userScope, a) + `
		ORDER BY u.created_at DESC LIMIT ` + a.add(limit) + ` OFFSET ` + a.add(offset)
	rows, err := r.q.Query(ctx, query, a.values...)
	if err != nil {
		return nil, wrapErr("list users", err)
	}
	defer rows.Close()

	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr("scan user", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// SoftDelete marca deleted_at e inactiva al usuario.
func (r *UserRepo) SoftDelete(ctx context.Context, scope tenant.Scope, id string, at time.Time) error {
	a := &args{}
	query := `UPDATE users u SET deleted_at = ` + a.add(at) + `, updated_at = ` + a.add(at) + `, status = 'inactive'
		WHERE u.id = ` + a.add(id) + ` AND u.deleted_at IS NULL AND ` + scopeWhere(scope, userScope, a)
	cmd, err := r.q.Exec(ctx, query, a.values...)
	if err != nil {
		return wrapErr("delete user", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountActive cuenta los usuarios no eliminados de la empresa.
func (r *UserRepo) CountActive(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE company_id = $1 AND deleted_at IS NULL`, companyID).Scan(&n)
	if err != nil {
		return 0, wrapErr("count users", err)
	}
	return n, nil
}

// FindByEmail obtiene un usuario no eliminado por email (cualquier empresa).
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1 AND u.deleted_at IS NULL LIMIT 1`
	u, err := scanUser(r.q.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get user by email", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.CompanyID, &u.BranchID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Status,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

const documentColumns = `d.id, d.company_id, d.branch_id, d.created_by, d.title, d.description, d.status,
	d.access_hash, d.storage_path, d.content_type, d.size_bytes, d.requires_internal_signers,
	d.created_at, d.updated_at, d.deleted_at`

var documentScope = scopeColumns{
	id:        "d.id",
	company:   "d.company_id",
	branch:    "d.branch_id",
	createdBy: "d.created_by",
	assignees: "EXISTS (SELECT 1 FROM document_internal_signers dis WHERE dis.document_id = d.id AND dis.user_id = %s)",
}

// DocumentRepo implementación de DocumentRepository sobre PostgreSQL.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador de documentos. Pasar pool o tx.
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// Create persiste el documento y sus firmantes internos.
func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	query := `
		INSERT INTO documents (id, company_id, branch_id, created_by, title, description, status,
			access_hash, storage_path, content_type, size_bytes, requires_internal_signers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.CompanyID, d.BranchID, d.CreatedBy, d.Title, d.Description, d.Status,
		d.AccessHash, d.StoragePath, d.ContentType, d.SizeBytes, d.RequiresInternalSigners,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert document", err)
	}
	for _, s := range d.InternalSigners {
		_, err := r.q.Exec(ctx, `
			INSERT INTO document_internal_signers (document_id, user_id, status, first_viewed_at, signed_at, rejected_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ID, s.UserID, s.Status, s.FirstViewedAt, s.SignedAt, s.RejectedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return wrapErr("insert internal signer", err)
		}
	}
	return nil
}

// GetByID obtiene un documento visible en el alcance, con sus firmantes internos.
func (r *DocumentRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error) {
	return r.getScoped(ctx, scope, id, "")
}

// GetForUpdate igual que GetByID pero bloquea la fila (SELECT ... FOR UPDATE).
func (r *DocumentRepo) GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.Document, error) {
	return r.getScoped(ctx, scope, id, " FOR UPDATE OF d")
}

func (r *DocumentRepo) getScoped(ctx context.Context, scope tenant.Scope, id, lock string) (*entity.Document, error) {
	a := &args{}
	query := `SELECT ` + documentColumns + ` FROM documents d
		WHERE d.id = ` + a.add(id) + ` AND d.deleted_at IS NULL AND ` + scopeWhere(scope, documentScope, a) + lock
	return r.getOne(ctx, "get document", query, a.values...)
}

// List lista documentos visibles, más recientes primero, y el total sin paginar.
func (r *DocumentRepo) List(ctx context.Context, scope tenant.Scope, filter repository.DocumentFilter, limit, offset int) ([]*entity.Document, int, error) {
	a := &args{}
	where := `d.deleted_at IS NULL AND ` + scopeWhere(scope, documentScope, a)
	if filter.Status != "" {
		where += ` AND d.status = ` + a.add(filter.Status)
	}
	if filter.BranchID != "" {
		where += ` AND d.branch_id = ` + a.add(filter.BranchID)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM documents d WHERE `+where, a.values...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count documents", err)
	}

	query := `SELECT ` + documentColumns + ` FROM documents d WHERE ` + where +
		` ORDER BY d.created_at DESC, d.id LIMIT ` + a.add(limit) + ` OFFSET ` + a.add(offset)
	rows, err := r.q.Query(ctx, query, a.values...)
	if err != nil {
		return nil, 0, wrapErr("list documents", err)
	}
	defer rows.Close()

	var (
		list []*entity.Document
		ids  []string
	)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, wrapErr("scan document", err)
		}
		list = append(list, d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr("list documents", err)
	}
	if err := r.attachInternalSigners(ctx, list, ids); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// UpdateStatus cambia el estado solo si el documento sigue en from.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, id, from, to string, at time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE documents SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2 AND deleted_at IS NULL`,
		id, from, to, at,
	)
	if err != nil {
		return wrapErr("update document status", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// UpdateInternalSigner persiste el estado y las marcas de tiempo de un firmante interno.
func (r *DocumentRepo) UpdateInternalSigner(ctx context.Context, s *entity.InternalSigner) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE document_internal_signers
		   SET status = $3, first_viewed_at = $4, signed_at = $5, rejected_at = $6
		 WHERE document_id = $1 AND user_id = $2`,
		s.DocumentID, s.UserID, s.Status, s.FirstViewedAt, s.SignedAt, s.RejectedAt,
	)
	if err != nil {
		return wrapErr("update internal signer", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete marca deleted_at sobre un documento visible en el alcance.
func (r *DocumentRepo) SoftDelete(ctx context.Context, scope tenant.Scope, id string, at time.Time) error {
	a := &args{}
	query := `UPDATE documents d SET deleted_at = ` + a.add(at) + `, updated_at = ` + a.add(at) + `
		WHERE d.id = ` + a.add(id) + ` AND d.deleted_at IS NULL AND ` + scopeWhere(scope, documentScope, a)
	cmd, err := r.q.Exec(ctx, query, a.values...)
	if err != nil {
		return wrapErr("delete document", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountActive cuenta los documentos no eliminados de la empresa (cualquier estado).
func (r *DocumentRepo) CountActive(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE company_id = $1 AND deleted_at IS NULL`, companyID).Scan(&n)
	if err != nil {
		return 0, wrapErr("count documents", err)
	}
	return n, nil
}

// GetByAccessHash obtiene un documento por su hash de acceso público.
func (r *DocumentRepo) GetByAccessHash(ctx context.Context, accessHash string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.access_hash = $1 AND d.deleted_at IS NULL`
	return r.getOne(ctx, "get document by access hash", query, accessHash)
}

// LockByCapability bloquea un documento alcanzado por un token de firmante; sin filtro de tenant.
func (r *DocumentRepo) LockByCapability(ctx context.Context, id string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.id = $1 AND d.deleted_at IS NULL FOR UPDATE`
	return r.getOne(ctx, "lock document", query, id)
}

func (r *DocumentRepo) getOne(ctx context.Context, op, query string, params ...any) (*entity.Document, error) {
	d, err := scanDocument(r.q.QueryRow(ctx, query, params...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	if err := r.attachInternalSigners(ctx, []*entity.Document{d}, []string{d.ID}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DocumentRepo) attachInternalSigners(ctx context.Context, docs []*entity.Document, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT document_id, user_id, status, first_viewed_at, signed_at, rejected_at
		  FROM document_internal_signers
		 WHERE document_id = ANY($1::uuid[])
		 ORDER BY document_id, user_id`, ids)
	if err != nil {
		return wrapErr("list internal signers", err)
	}
	defer rows.Close()

	byDoc := make(map[string][]entity.InternalSigner, len(docs))
	for rows.Next() {
		var s entity.InternalSigner
		if err := rows.Scan(&s.DocumentID, &s.UserID, &s.Status, &s.FirstViewedAt, &s.SignedAt, &s.RejectedAt); err != nil {
			return wrapErr("scan internal signer", err)
		}
		byDoc[s.DocumentID] = append(byDoc[s.DocumentID], s)
	}
	if err := rows.Err(); err != nil {
		return wrapErr("list internal signers", err)
	}
	for _, d := range docs {
		d.InternalSigners = byDoc[d.ID]
	}
	return nil
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(&d.ID, &d.CompanyID, &d.BranchID, &d.CreatedBy, &d.Title, &d.Description, &d.Status,
		&d.AccessHash, &d.StoragePath, &d.ContentType, &d.SizeBytes, &d.RequiresInternalSigners,
		&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

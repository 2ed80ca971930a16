package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

var _ repository.SignatureRequestRepository = (*SignatureRequestRepo)(nil)

const requestColumns = `sr.id, sr.document_id, sr.company_id, sr.branch_id, sr.created_by, sr.status,
	sr.expires_at, sr.completed_at, sr.cancelled_at, sr.created_at, sr.updated_at, sr.deleted_at`

const signerColumns = `id, request_id, name, email, sequence, status, token_hash, first_viewed_at, signed_at,
	rejected_at, rejection_reason, ip_address, user_agent, created_at, updated_at`

const signerColumnsPrefixed = `s.id, s.request_id, s.name, s.email, s.sequence, s.status, s.token_hash,
	s.first_viewed_at, s.signed_at, s.rejected_at, s.rejection_reason, s.ip_address, s.user_agent,
	s.created_at, s.updated_at`

var requestScope = scopeColumns{
	id:        "sr.id",
	company:   "sr.company_id",
	branch:    "sr.branch_id",
	createdBy: "sr.created_by",
	assignees: "EXISTS (SELECT 1 FROM document_internal_signers dis WHERE dis.document_id = sr.document_id AND dis.user_id = %s)",
}

// SignatureRequestRepo implementación de SignatureRequestRepository sobre PostgreSQL.
type SignatureRequestRepo struct {
	q Querier
}

// NewSignatureRequestRepository construye el adaptador de solicitudes de firma.
func NewSignatureRequestRepository(q Querier) *SignatureRequestRepo {
	return &SignatureRequestRepo{q: q}
}

// Create persiste la solicitud y sus firmantes (solo el hash del token).
// El índice único parcial sobre solicitudes activas convierte una carrera en domain.ErrConflict.
func (r *SignatureRequestRepo) Create(ctx context.Context, req *entity.SignatureRequest) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO signature_requests (id, document_id, company_id, branch_id, created_by, status,
			expires_at, completed_at, cancelled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.DocumentID, req.CompanyID, req.BranchID, req.CreatedBy, req.Status,
		req.ExpiresAt, req.CompletedAt, req.CancelledAt, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return wrapErr("insert signature request", err)
	}
	for _, s := range req.Signers {
		_, err := r.q.Exec(ctx, `
			INSERT INTO signature_request_signers (`+signerColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			s.ID, req.ID, s.Name, s.Email, s.Sequence, s.Status, s.TokenHash, s.FirstViewedAt, s.SignedAt,
			s.RejectedAt, s.RejectionReason, s.IPAddress, s.UserAgent, s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return wrapErr("insert signer", err)
		}
	}
	return nil
}

// GetByID obtiene una solicitud visible en el alcance, con firmantes ordenados por secuencia.
func (r *SignatureRequestRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.SignatureRequest, error) {
	return r.getScoped(ctx, scope, id, "")
}

// GetForUpdate igual que GetByID pero bloquea la fila de la solicitud.
func (r *SignatureRequestRepo) GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.SignatureRequest, error) {
	return r.getScoped(ctx, scope, id, " FOR UPDATE OF sr")
}

func (r *SignatureRequestRepo) getScoped(ctx context.Context, scope tenant.Scope, id, lock string) (*entity.SignatureRequest, error) {
	a := &args{}
	query := `SELECT ` + requestColumns + ` FROM signature_requests sr
		WHERE sr.id = ` + a.add(id) + ` AND sr.deleted_at IS NULL AND ` + scopeWhere(scope, requestScope, a) + lock
	return r.getOne(ctx, "get signature request", query, a.values...)
}

// ListByDocument lista las solicitudes visibles de un documento, más recientes primero.
func (r *SignatureRequestRepo) ListByDocument(ctx context.Context, scope tenant.Scope, documentID string) ([]*entity.SignatureRequest, error) {
	a := &args{}
	query := `SELECT ` + requestColumns + ` FROM signature_requests sr
		WHERE sr.document_id = ` + a.add(documentID) + ` AND sr.deleted_at IS NULL AND ` + scopeWhere(scope, requestScope, a) + `
		ORDER BY sr.created_at DESC, sr.id`
	rows, err := r.q.Query(ctx, query, a.values...)
	if err != nil {
		return nil, wrapErr("list signature requests", err)
	}
	defer rows.Close()

	var list []*entity.SignatureRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, wrapErr("scan signature request", err)
		}
		list = append(list, req)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list signature requests", err)
	}
	for _, req := range list {
		if err := r.loadSigners(ctx, req); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// FindActiveByDocument devuelve la solicitud pending/signed del documento, o nil.
func (r *SignatureRequestRepo) FindActiveByDocument(ctx context.Context, documentID string) (*entity.SignatureRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM signature_requests sr
		WHERE sr.document_id = $1 AND sr.status IN ('pending', 'signed') AND sr.deleted_at IS NULL
		LIMIT 1`
	return r.getOne(ctx, "find active signature request", query, documentID)
}

// FindLatestByDocument la activa primero; a igual prioridad, la más reciente.
func (r *SignatureRequestRepo) FindLatestByDocument(ctx context.Context, documentID string) (*entity.SignatureRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM signature_requests sr
		WHERE sr.document_id = $1 AND sr.status <> 'cancelled' AND sr.deleted_at IS NULL
		ORDER BY (sr.status IN ('pending', 'signed')) DESC, sr.created_at DESC, sr.id DESC
		LIMIT 1`
	return r.getOne(ctx, "find latest signature request", query, documentID)
}

// UpdateStatus persiste el estado de la solicitud y sus marcas de cierre.
func (r *SignatureRequestRepo) UpdateStatus(ctx context.Context, req *entity.SignatureRequest) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE signature_requests
		   SET status = $2, completed_at = $3, cancelled_at = $4, updated_at = $5
		 WHERE id = $1 AND deleted_at IS NULL`,
		req.ID, req.Status, req.CompletedAt, req.CancelledAt, req.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update signature request", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// UpdateSigner persiste estado, marcas de tiempo y datos de auditoría del firmante.
func (r *SignatureRequestRepo) UpdateSigner(ctx context.Context, s *entity.Signer) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE signature_request_signers
		   SET status = $2, first_viewed_at = $3, signed_at = $4, rejected_at = $5,
		       rejection_reason = $6, ip_address = $7, user_agent = $8, updated_at = $9
		 WHERE id = $1`,
		s.ID, s.Status, s.FirstViewedAt, s.SignedAt, s.RejectedAt,
		s.RejectionReason, s.IPAddress, s.UserAgent, s.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update signer", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete marca deleted_at sobre una solicitud visible en el alcance.
func (r *SignatureRequestRepo) SoftDelete(ctx context.Context, scope tenant.Scope, id string, at time.Time) error {
	a := &args{}
	query := `UPDATE signature_requests sr SET deleted_at = ` + a.add(at) + `, updated_at = ` + a.add(at) + `
		WHERE sr.id = ` + a.add(id) + ` AND sr.deleted_at IS NULL AND ` + scopeWhere(scope, requestScope, a)
	cmd, err := r.q.Exec(ctx, query, a.values...)
	if err != nil {
		return wrapErr("delete signature request", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountActive cuenta las solicitudes no eliminadas de la empresa (cualquier estado).
func (r *SignatureRequestRepo) CountActive(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM signature_requests WHERE company_id = $1 AND deleted_at IS NULL`, companyID).Scan(&n)
	if err != nil {
		return 0, wrapErr("count signature requests", err)
	}
	return n, nil
}

// ExpireOverdue pasa a expired las solicitudes pending con expires_at <= now.
func (r *SignatureRequestRepo) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE signature_requests
		   SET status = 'expired', updated_at = $1
		 WHERE status = 'pending' AND expires_at <= $1 AND deleted_at IS NULL`, now)
	if err != nil {
		return 0, wrapErr("expire signature requests", err)
	}
	return int(cmd.RowsAffected()), nil
}

// FindSignerByTokenHash busca el firmante por igualdad exacta del hash del token.
func (r *SignatureRequestRepo) FindSignerByTokenHash(ctx context.Context, tokenHash string) (*entity.Signer, error) {
	query := `SELECT ` + signerColumnsPrefixed + ` FROM signature_request_signers s
		JOIN signature_requests sr ON sr.id = s.request_id
		WHERE s.token_hash = $1 AND sr.deleted_at IS NULL`
	s, err := scanSigner(r.q.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("find signer by token", err)
	}
	return s, nil
}

// LockByCapability bloquea una solicitud alcanzada por token; sin filtro de tenant.
func (r *SignatureRequestRepo) LockByCapability(ctx context.Context, id string) (*entity.SignatureRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM signature_requests sr
		WHERE sr.id = $1 AND sr.deleted_at IS NULL FOR UPDATE`
	return r.getOne(ctx, "lock signature request", query, id)
}

func (r *SignatureRequestRepo) getOne(ctx context.Context, op, query string, params ...any) (*entity.SignatureRequest, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, query, params...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	if err := r.loadSigners(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *SignatureRequestRepo) loadSigners(ctx context.Context, req *entity.SignatureRequest) error {
	rows, err := r.q.Query(ctx,
		`SELECT `+signerColumns+` FROM signature_request_signers WHERE request_id = $1 ORDER BY sequence`, req.ID)
	if err != nil {
		return wrapErr("list signers", err)
	}
	defer rows.Close()

	req.Signers = req.Signers[:0]
	for rows.Next() {
		s, err := scanSigner(rows)
		if err != nil {
			return wrapErr("scan signer", err)
		}
		req.Signers = append(req.Signers, *s)
	}
	return rows.Err()
}

func scanRequest(row rowScanner) (*entity.SignatureRequest, error) {
	var req entity.SignatureRequest
	err := row.Scan(&req.ID, &req.DocumentID, &req.CompanyID, &req.BranchID, &req.CreatedBy, &req.Status,
		&req.ExpiresAt, &req.CompletedAt, &req.CancelledAt, &req.CreatedAt, &req.UpdatedAt, &req.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func scanSigner(row rowScanner) (*entity.Signer, error) {
	var s entity.Signer
	err := row.Scan(&s.ID, &s.RequestID, &s.Name, &s.Email, &s.Sequence, &s.Status, &s.TokenHash,
		&s.FirstViewedAt, &s.SignedAt, &s.RejectedAt, &s.RejectionReason, &s.IPAddress, &s.UserAgent,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

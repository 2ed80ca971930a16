package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

// SignatureRequestRepository persistencia de solicitudes de firma y sus firmantes.
type SignatureRequestRepository interface {
	// Create persiste la solicitud y sus firmantes. Si el documento ya tiene una solicitud
	// activa (pending/signed) devuelve domain.ErrConflict.
	Create(ctx context.Context, req *entity.SignatureRequest) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.SignatureRequest, error)
	GetForUpdate(ctx context.Context, scope tenant.Scope, id string) (*entity.SignatureRequest, error)
	ListByDocument(ctx context.Context, scope tenant.Scope, documentID string) ([]*entity.SignatureRequest, error)
	// FindActiveByDocument devuelve la solicitud pending/signed del documento, o nil.
	FindActiveByDocument(ctx context.Context, documentID string) (*entity.SignatureRequest, error)
	// FindLatestByDocument devuelve la solicitud vigente del documento, o nil: la activa si existe,
	// si no la más reciente no cancelada (rejected/expired). Las eliminadas no cuentan.
	FindLatestByDocument(ctx context.Context, documentID string) (*entity.SignatureRequest, error)
	UpdateStatus(ctx context.Context, req *entity.SignatureRequest) error
	UpdateSigner(ctx context.Context, signer *entity.Signer) error
	SoftDelete(ctx context.Context, scope tenant.Scope, id string, at time.Time) error
	CountActive(ctx context.Context, companyID string) (int, error)
	// ExpireOverdue marca expired las solicitudes pending vencidas y devuelve cuántas.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)

	// Acceso por capacidad (token del firmante): comparación exacta del hash, sin alcance de tenant.
	FindSignerByTokenHash(ctx context.Context, tokenHash string) (*entity.Signer, error)
	LockByCapability(ctx context.Context, id string) (*entity.SignatureRequest, error)
}

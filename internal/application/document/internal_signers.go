package document

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/application/usecase"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/document"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

// Acciones de firmante interno, usadas como etiqueta de métricas.
const (
	actionInternalView   = "internal_view"
	actionInternalSign   = "internal_sign"
	actionInternalReject = "internal_reject"
)

// ViewInternal registra que el usuario autenticado abrió el documento como firmante interno.
func (uc *DocumentUseCase) ViewInternal(ctx context.Context, p tenant.Principal, id string) (*dto.DocumentResponse, error) {
	return uc.internalAction(ctx, p, id, actionInternalView, func(repos repository.Set, doc *entity.Document, now time.Time) error {
		changed, err := document.ViewInternal(doc, p.UserID, now)
		if err != nil || !changed {
			return err
		}
		return repos.Documents.UpdateInternalSigner(ctx, doc.FindInternalSigner(p.UserID))
	})
}

// SignInternal firma como firmante interno. Si era la última pista pendiente, el documento pasa a signed.
func (uc *DocumentUseCase) SignInternal(ctx context.Context, p tenant.Principal, id string) (*dto.DocumentResponse, error) {
	return uc.internalAction(ctx, p, id, actionInternalSign, func(repos repository.Set, doc *entity.Document, now time.Time) error {
		changed, err := document.SignInternal(doc, p.UserID, now)
		if err != nil || !changed {
			return err
		}
		if err := repos.Documents.UpdateInternalSigner(ctx, doc.FindInternalSigner(p.UserID)); err != nil {
			return err
		}
		_, err = usecase.SettleDocument(ctx, repos, doc, now, uc.deps.Metrics)
		return err
	})
}

// RejectInternal rechaza como firmante interno. El documento queda en sent y ya no puede completarse.
func (uc *DocumentUseCase) RejectInternal(ctx context.Context, p tenant.Principal, id string) (*dto.DocumentResponse, error) {
	return uc.internalAction(ctx, p, id, actionInternalReject, func(repos repository.Set, doc *entity.Document, now time.Time) error {
		if err := document.RejectInternal(doc, p.UserID, now); err != nil {
			return err
		}
		return repos.Documents.UpdateInternalSigner(ctx, doc.FindInternalSigner(p.UserID))
	})
}

func (uc *DocumentUseCase) internalAction(ctx context.Context, p tenant.Principal, id, action string,
	apply func(repos repository.Set, doc *entity.Document, now time.Time) error) (*dto.DocumentResponse, error) {
	scope := tenant.Resolve(p, tenant.ResourceDocument)
	var doc *entity.Document
	err := usecase.RetryOnConflict(ctx, func() error {
		return uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
			var err error
			doc, err = repos.Documents.GetForUpdate(ctx, scope, id)
			if err != nil {
				return err
			}
			if doc == nil {
				return domain.ErrNotFound
			}
			return apply(repos, doc, uc.deps.Clock.Now())
		})
	})
	if err != nil {
		uc.deps.Metrics.SignerAction(action, usecase.ResultLabel(err))
		return nil, err
	}
	uc.deps.Metrics.SignerAction(action, usecase.ResultLabel(nil))
	return entityToDocumentResponse(doc), nil
}

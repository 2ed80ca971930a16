package usecase

import (
	"context"
	"time"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/domain/document"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
)

// SettleDocument deriva el estado signed del documento después de una firma (interna o externa).
// doc debe estar bloqueado en la tx actual. Devuelve true si el documento pasó a signed.
func SettleDocument(ctx context.Context, repos repository.Set, doc *entity.Document, now time.Time, metrics ports.Metrics) (bool, error) {
	latest, err := repos.Requests.FindLatestByDocument(ctx, doc.ID)
	if err != nil {
		return false, err
	}
	if !document.ReadyToSign(doc, latest) {
		return false, nil
	}
	from := doc.Status
	changed, err := document.MarkSigned(doc)
	if err != nil || !changed {
		return false, err
	}
	if err := repos.Documents.UpdateStatus(ctx, doc.ID, from, doc.Status, now); err != nil {
		return false, err
	}
	doc.UpdatedAt = now
	if metrics != nil {
		metrics.DocumentTransition(from, doc.Status)
	}
	return true, nil
}

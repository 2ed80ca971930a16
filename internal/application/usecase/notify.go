package usecase

import (
	"context"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
)

// NotifySigner envía un evento a un firmante después del commit.
// El fallo del notificador se registra en warn y nunca revierte la transición.
func NotifySigner(ctx context.Context, d Deps, kind ports.EventKind, req *entity.SignatureRequest, s entity.Signer, link string) {
	if d.Notifier == nil {
		return
	}
	n := ports.Notification{
		Kind: kind,
		Signer: ports.Recipient{
			SignerID: s.ID,
			Name:     s.Name,
			Email:    s.Email,
			Sequence: s.Sequence,
		},
		DocumentID: req.DocumentID,
		RequestID:  req.ID,
		Link:       link,
	}
	if err := d.Notifier.Notify(ctx, n); err != nil {
		d.Logger.Warn().Err(err).
			Str("event", string(kind)).
			Str("request_id", req.ID).
			Str("signer_id", s.ID).
			Msg("no se pudo notificar al firmante")
	}
}

// NotifySigners envía el mismo evento (sin enlace) a todos los firmantes de la solicitud.
func NotifySigners(ctx context.Context, d Deps, kind ports.EventKind, req *entity.SignatureRequest) {
	for _, s := range req.Signers {
		NotifySigner(ctx, d, kind, req, s, "")
	}
}

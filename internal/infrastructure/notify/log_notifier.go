package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier registra las notificaciones en el log. Se usa cuando no hay broker configurado.
// El enlace no se registra: contiene el token en claro.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier construye el notificador por log.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, notification ports.Notification) error {
	n.log.Info().
		Str("event", string(notification.Kind)).
		Str("request_id", notification.RequestID).
		Str("document_id", notification.DocumentID).
		Str("signer_id", notification.Signer.SignerID).
		Int("sequence", notification.Signer.Sequence).
		Bool("has_link", notification.Link != "").
		Msg("notificación de firma")
	return nil
}

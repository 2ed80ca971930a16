package ports

import "context"

// EventKind tipo de evento notificado a un firmante.
type EventKind string

const (
	EventSignatureRequested EventKind = "signature_requested"
	EventSignerTurn         EventKind = "signer_turn"
	EventRequestCompleted   EventKind = "request_completed"
	EventRequestRejected    EventKind = "request_rejected"
	EventRequestCancelled   EventKind = "request_cancelled"
)

// Recipient firmante destinatario de la notificación.
type Recipient struct {
	SignerID string
	Name     string
	Email    string
	Sequence int
}

// Notification evento enviado al notificador (email/WhatsApp fuera de alcance).
// Link solo viaja en signature_requested: el token en claro no se persiste.
type Notification struct {
	Kind       EventKind
	Signer     Recipient
	DocumentID string
	RequestID  string
	Link       string
}

// Notifier se invoca en modo fire-and-forget: su error nunca revierte la transición que lo originó.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Package notify implementaciones de ports.Notifier.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
)

var _ ports.Notifier = (*RabbitMQNotifier)(nil)

// SigningEvent mensaje publicado en el exchange de eventos de firma.
type SigningEvent struct {
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id"`
	DocumentID  string    `json:"document_id"`
	SignerID    string    `json:"signer_id"`
	SignerName  string    `json:"signer_name"`
	SignerEmail string    `json:"signer_email"`
	Sequence    int       `json:"sequence"`
	Link        string    `json:"link,omitempty"`
}

// NewSigningEvent construye el mensaje a partir de la notificación.
func NewSigningEvent(n ports.Notification, at time.Time) SigningEvent {
	return SigningEvent{
		EventType:   string(n.Kind),
		Timestamp:   at,
		RequestID:   n.RequestID,
		DocumentID:  n.DocumentID,
		SignerID:    n.Signer.SignerID,
		SignerName:  n.Signer.Name,
		SignerEmail: n.Signer.Email,
		Sequence:    n.Signer.Sequence,
		Link:        n.Link,
	}
}

// RoutingKey clave de enrutamiento del evento: signing.<tipo>.
func RoutingKey(kind ports.EventKind) string {
	return "signing." + string(kind)
}

// RabbitMQNotifier publica cada notificación en un exchange topic con confirmación del broker.
// Los consumidores (email, WhatsApp) están fuera de este servicio.
type RabbitMQNotifier struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	clock    ports.Clock
	log      zerolog.Logger
}

// NewRabbitMQNotifier conecta al broker, declara el exchange y activa el modo confirm.
func NewRabbitMQNotifier(url, exchange string, clock ports.Clock, log zerolog.Logger) (*RabbitMQNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	n := &RabbitMQNotifier{conn: conn, exchange: exchange, clock: clock, log: log}
	if err := n.openChannel(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return n, nil
}

func (n *RabbitMQNotifier) openChannel() error {
	ch, err := n.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: abrir canal: %w", err)
	}
	if err := ch.ExchangeDeclare(n.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("rabbitmq: declarar exchange %s: %w", n.exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("rabbitmq: modo confirm: %w", err)
	}
	n.channel = ch
	return nil
}

// Notify serializa y publica el evento; espera el ack del broker dentro del plazo de ctx.
func (n *RabbitMQNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	body, err := json.Marshal(NewSigningEvent(notification, n.clock.Now()))
	if err != nil {
		return fmt.Errorf("rabbitmq: serializar evento: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.channel == nil || n.channel.IsClosed() {
		if n.conn.IsClosed() {
			return errors.New("rabbitmq: conexión cerrada")
		}
		if err := n.openChannel(); err != nil {
			return err
		}
	}

	key := RoutingKey(notification.Kind)
	conf, err := n.channel.PublishWithDeferredConfirmWithContext(ctx, n.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    n.clock.Now(),
		Type:         string(notification.Kind),
		Headers: amqp.Table{
			"event_type": string(notification.Kind),
			"request_id": notification.RequestID,
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publicar %s: %w", key, err)
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq: esperar confirmación: %w", err)
	}
	if !acked {
		return fmt.Errorf("rabbitmq: el broker rechazó %s", key)
	}

	n.log.Debug().
		Str("routing_key", key).
		Str("request_id", notification.RequestID).
		Int("event_size", len(body)).
		Msg("evento de firma publicado")
	return nil
}

// Close cierra canal y conexión.
func (n *RabbitMQNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.channel != nil {
		_ = n.channel.Close()
	}
	return n.conn.Close()
}

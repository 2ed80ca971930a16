package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
)

func sampleNotification() ports.Notification {
	return ports.Notification{
		Kind:       ports.EventSignatureRequested,
		Signer:     ports.Recipient{SignerID: "s1", Name: "Ana", Email: "ana@example.com", Sequence: 1},
		DocumentID: "d1",
		RequestID:  "r1",
		Link:       "https://firmador.example.com/public/sign/tok",
	}
}

func TestNewSigningEvent_JSON(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	body, err := json.Marshal(NewSigningEvent(sampleNotification(), at))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "signature_requested", got["event_type"])
	assert.Equal(t, "r1", got["request_id"])
	assert.Equal(t, "ana@example.com", got["signer_email"])
	assert.Equal(t, float64(1), got["sequence"])
	assert.Equal(t, "https://firmador.example.com/public/sign/tok", got["link"])
}

func TestNewSigningEvent_SinLinkOmiteCampo(t *testing.T) {
	n := sampleNotification()
	n.Kind = ports.EventSignerTurn
	n.Link = ""
	body, err := json.Marshal(NewSigningEvent(n, time.Now()))
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"link"`)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "signing.request_completed", RoutingKey(ports.EventRequestCompleted))
}

func TestLogNotifier_NoRegistraElToken(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	require.NoError(t, n.Notify(context.Background(), sampleNotification()))
	assert.Contains(t, buf.String(), `"event":"signature_requested"`)
	assert.Contains(t, buf.String(), `"has_link":true`)
	assert.NotContains(t, buf.String(), "/public/sign/tok", "el enlace contiene el token en claro")
}

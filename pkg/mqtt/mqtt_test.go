package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic   string
	payload []byte
}

// fakeClient records publishes; unused methods fall through to the nil
// embedded interface
type fakeClient struct {
	paho.Client
	mu         sync.Mutex
	connected  bool
	publishErr error
	published  []published
	handlers   map[string]paho.MessageHandler
}

func newFakeClient() *fakeClient {
	return &fakeClient{connected: true, handlers: map[string]paho.MessageHandler{}}
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return doneToken{err: f.publishErr}
	}
	f.published = append(f.published, published{topic: topic, payload: payload.([]byte)})
	return doneToken{}
}

func (f *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	f.handlers[topic] = callback
	return doneToken{}
}

func TestPublishAudit(t *testing.T) {
	client := newFakeClient()
	mc := newCommunicator(client, "nucleo")
	entry := models.AuditLogEntry{ID: "a1", Event: models.AuditEventWarn, Details: "WARN [1] -> pepe", CreatedAt: time.Now().UTC()}

	require.NoError(t, mc.PublishAudit(entry))

	require.Len(t, client.published, 1)
	assert.Equal(t, "nucleo/audit/warn", client.published[0].topic)
	var got models.AuditLogEntry
	require.NoError(t, json.Unmarshal(client.published[0].payload, &got))
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, entry.Details, got.Details)
}

func TestPublishAudit_Disconnected(t *testing.T) {
	client := newFakeClient()
	client.connected = false
	mc := newCommunicator(client, "nucleo")

	assert.NoError(t, mc.PublishAudit(models.AuditLogEntry{Event: models.AuditEventInfo}))
	assert.Empty(t, client.published)
}

func TestPublish_Error(t *testing.T) {
	client := newFakeClient()
	client.publishErr = errors.New("not connected")
	mc := newCommunicator(client, "nucleo")

	assert.Error(t, mc.Publish("nucleo/x", map[string]string{"a": "b"}))
}

func TestOn_RespondsWithCorrelationID(t *testing.T) {
	client := newFakeClient()
	mc := newCommunicator(client, "nucleo")

	require.NoError(t, mc.On("status", func(payload map[string]interface{}) (interface{}, error) {
		assert.Equal(t, "status", payload["_topic"])
		return map[string]int{"words": 3}, nil
	}))
	require.NoError(t, mc.On("fail", func(map[string]interface{}) (interface{}, error) {
		return nil, errors.New("sin datos")
	}))

	deliver(t, client, "nucleo/request/status", `{"correlationId":"c1"}`)
	deliver(t, client, "nucleo/request/fail", `{"correlationId":"c2","payload":{"x":1}}`)
	deliver(t, client, "nucleo/request/status", `no es json`)

	require.Len(t, client.published, 2)
	assert.Equal(t, "nucleo/response/status/c1", client.published[0].topic)
	assert.JSONEq(t, `{"correlationId":"c1","data":{"words":3}}`, string(client.published[0].payload))
	assert.Equal(t, "nucleo/response/fail/c2", client.published[1].topic)
	assert.JSONEq(t, `{"correlationId":"c2","data":null,"error":"sin datos"}`, string(client.published[1].payload))
}

func TestAuditTopic(t *testing.T) {
	assert.Equal(t, "nucleo/audit/isolation", AuditTopic(models.AuditEventIsolation))
	assert.Equal(t, "nucleo/audit/filter", AuditTopic(models.AuditEventFilter))
}

// deliver feeds a message to the handler subscribed on topic
func deliver(t *testing.T, client *fakeClient, topic, payload string) {
	t.Helper()
	handler, ok := client.handlers[topic]
	require.True(t, ok, "no subscription on %s", topic)
	handler(nil, fakeMessage{topic: topic, payload: []byte(payload)})
}

type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

// Package mqtt mirrors audit entries to an MQTT broker and answers
// request/response calls from the dashboard.
package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	topicPrefix   = "nucleo/"
	requestPrefix = topicPrefix + "request/"
	auditPrefix   = topicPrefix + "audit/"
)

// MqttRequest represents an MQTT request message
type MqttRequest struct {
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload,omitempty"`
}

// MqttResponse represents an MQTT response message
type MqttResponse struct {
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

// MqttCommunicator handles MQTT communication
type MqttCommunicator struct {
	client   mqtt.Client
	clientID string
}

var (
	communicator *MqttCommunicator
	once         sync.Once
)

// Init initializes the global MQTT communicator
func Init(host, port, username, password, clientID string) *MqttCommunicator {
	once.Do(func() {
		communicator = NewMqttCommunicator(host, port, username, password, clientID)
	})
	return communicator
}

// Get returns the global MQTT communicator
func Get() *MqttCommunicator {
	return communicator
}

// NewMqttCommunicator creates a new MQTT communicator. Connection failures
// are logged; paho keeps retrying in the background.
func NewMqttCommunicator(host, port, username, password, clientID string) *MqttCommunicator {
	uniqueID := fmt.Sprintf("%s_%s", clientID, uuid.New().String())

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(uniqueID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", clientID), "MQTT")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	mc := newCommunicator(mqtt.NewClient(opts), clientID)

	token := mc.client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}

	return mc
}

func newCommunicator(client mqtt.Client, clientID string) *MqttCommunicator {
	return &MqttCommunicator{client: client, clientID: clientID}
}

// Destroy closes the MQTT connection
func (mc *MqttCommunicator) Destroy() {
	if mc.client != nil && mc.client.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
	} else {
		logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (mc *MqttCommunicator) IsConnected() bool {
	return mc != nil && mc.client != nil && mc.client.IsConnected()
}

// Publish sends a message to a topic
func (mc *MqttCommunicator) Publish(topic string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, 0, false, jsonData)
	token.Wait()
	return token.Error()
}

// PublishAudit mirrors one audit entry to nucleo/audit/<event>. Entries are
// dropped while the broker is unreachable.
func (mc *MqttCommunicator) PublishAudit(entry models.AuditLogEntry) error {
	if !mc.IsConnected() {
		return nil
	}
	return mc.Publish(AuditTopic(entry.Event), entry)
}

// AuditTopic is the topic an audit event is mirrored to
func AuditTopic(event models.AuditEvent) string {
	return auditPrefix + strings.ToLower(string(event))
}

// RequestHandler is a function type for handling MQTT requests
type RequestHandler func(payload map[string]interface{}) (interface{}, error)

// On answers requests published to nucleo/request/<requestTopic> on
// nucleo/response/<requestTopic>/<correlationId>
func (mc *MqttCommunicator) On(requestTopic string, callback RequestHandler) error {
	topic := requestPrefix + requestTopic

	token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		mc.handleRequest(msg.Topic(), msg.Payload(), callback)
	})

	if token.Wait() && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error subscribing to topic %s: %v", topic, token.Error()), "MQTT")
		return token.Error()
	}
	return nil
}

func (mc *MqttCommunicator) handleRequest(topic string, raw []byte, callback RequestHandler) {
	var request MqttRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		logger.Error(fmt.Sprintf("Error parsing MQTT request: %v", err), "MQTT")
		return
	}

	actualTopic := strings.TrimPrefix(topic, requestPrefix)
	responseTopic := fmt.Sprintf("%sresponse/%s/%s", topicPrefix, actualTopic, request.CorrelationID)

	payloadMap := make(map[string]interface{})
	if pm, ok := request.Payload.(map[string]interface{}); ok {
		payloadMap = pm
	}
	payloadMap["_topic"] = actualTopic

	response := MqttResponse{CorrelationID: request.CorrelationID}
	if data, err := callback(payloadMap); err != nil {
		response.Error = err.Error()
	} else {
		response.Data = data
	}

	if err := mc.Publish(responseTopic, response); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo responder en %s: %v", responseTopic, err), "MQTT")
	}
}

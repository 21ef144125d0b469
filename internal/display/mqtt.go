package display

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/toll-scenario/internal/models"
)

const publishTimeout = 5 * time.Second

// publisher is the subset of mqtt.Client the publisher needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes display events to <prefix>/<session>/<kind>.
type MQTTPublisher struct {
	client publisher
	prefix string
	qos    byte
}

// ConnectMQTT connects to the broker and returns a publisher.
func ConnectMQTT(broker, clientID, prefix string) (*MQTTPublisher, mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, nil, fmt.Errorf("mqtt connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return NewMQTTPublisher(client, prefix), client, nil
}

// NewMQTTPublisher wraps an already connected client.
func NewMQTTPublisher(client publisher, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix}
}

// Topic returns the topic an event is published on.
func (p *MQTTPublisher) Topic(event models.DisplayEvent) string {
	return fmt.Sprintf("%s/%s/%s", p.prefix, event.SessionID, event.Kind)
}

// Publish sends the event without waiting for the broker.
func (p *MQTTPublisher) Publish(event models.DisplayEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to encode display event")
		return
	}
	topic := p.Topic(event)
	token := p.client.Publish(topic, p.qos, false, data)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.WithField("topic", topic).Warn("MQTT publish timed out")
			return
		}
		if err := token.Error(); err != nil {
			log.WithError(err).WithField("topic", topic).Error("MQTT publish failed")
		}
	}()
}

// Surface returns a display surface publishing the session's events.
func (p *MQTTPublisher) Surface(sessionID string) *EventSurface {
	return NewEventSurface(sessionID, p.Publish)
}

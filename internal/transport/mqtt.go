package transport

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_node/internal/odometry"
)

// MQTT subscribes to odometry bridged onto a broker as JSON.
type MQTT struct {
	broker string
	topic  string
	opts   *mqtt.ClientOptions
	log    *logrus.Entry

	client mqtt.Client
}

func NewMQTT(broker, clientID, topic string, log *logrus.Entry) *MQTT {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	return &MQTT{
		broker: broker,
		topic:  topic,
		opts:   opts,
		log:    log.WithField("transport", "mqtt"),
	}
}

func (m *MQTT) Start(deliver odometry.Handler) error {
	client := mqtt.NewClient(m.opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", m.broker, token.Error())
	}
	m.log.Infof("connected to MQTT broker at %s", m.broker)

	token := client.Subscribe(m.topic, 0, m.onMessage(deliver))
	token.Wait()
	if token.Error() != nil {
		client.Disconnect(250)
		return fmt.Errorf("mqtt subscribe %q: %w", m.topic, token.Error())
	}
	m.log.Infof("subscribed to %s", m.topic)

	m.client = client
	return nil
}

func (m *MQTT) onMessage(deliver odometry.Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		u, err := odometry.Decode(msg.Payload())
		if err != nil {
			m.log.WithError(err).Warnf("dropping undecodable message on %s", msg.Topic())
			return
		}
		deliver(u)
	}
}

func (m *MQTT) Close() {
	if m.client != nil {
		m.client.Disconnect(250)
		m.client = nil
	}
}

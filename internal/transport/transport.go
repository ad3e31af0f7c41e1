package transport

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_node/internal/config"
	"github.com/relabs-tech/tilt_node/internal/odometry"
	"github.com/relabs-tech/tilt_node/internal/orientation"
)

// Subscriber delivers odometry updates from some upstream source.
type Subscriber interface {
	// Start opens the subscription and returns once it is live. deliver may
	// be called from any goroutine.
	Start(deliver odometry.Handler) error
	Close()
}

// New builds the subscriber selected by cfg.Transport.
func New(cfg *config.Config, log *logrus.Entry) (Subscriber, error) {
	switch cfg.Transport {
	case config.TransportROS:
		return NewROS(cfg.NodeName, cfg.ROSMasterAddress, cfg.OdomTopic, log), nil
	case config.TransportMQTT:
		return NewMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicOdom, log), nil
	case config.TransportMock:
		interval := time.Duration(cfg.MockInterval) * time.Millisecond
		return NewMock(orientation.NewMockSource(), interval, log), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

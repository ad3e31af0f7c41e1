package transport

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_node/internal/odometry"
	"github.com/relabs-tech/tilt_node/internal/orientation"
)

// Mock polls an orientation.Source at a fixed interval, standing in for an
// odometry publisher when no ROS master is around.
type Mock struct {
	src      orientation.Source
	interval time.Duration
	log      *logrus.Entry

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewMock(src orientation.Source, interval time.Duration, log *logrus.Entry) *Mock {
	return &Mock{
		src:      src,
		interval: interval,
		log:      log.WithField("transport", "mock"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (m *Mock) Start(deliver odometry.Handler) error {
	m.log.Infof("generating mock odometry every %s", m.interval)

	go func() {
		defer close(m.done)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				u, err := m.src.Next()
				if err != nil {
					m.log.WithError(err).Warn("mock source error")
					continue
				}
				deliver(&u)
			}
		}
	}()
	return nil
}

// Close stops the generator and waits for it to exit. It must only be called
// after Start.
func (m *Mock) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}

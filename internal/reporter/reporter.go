// Package reporter logs the pitch of each odometry update, so slope
// estimates can be checked by eye while the robot crosses uneven terrain.
package reporter

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_node/internal/odometry"
	"github.com/relabs-tech/tilt_node/internal/orientation"
)

const greeting = "Hello, World!"

// PitchReporter keeps no state between updates.
type PitchReporter struct {
	log logrus.FieldLogger
}

func NewPitchReporter(log logrus.FieldLogger) *PitchReporter {
	return &PitchReporter{log: log}
}

// Handle logs the greeting and then the pitch of u in degrees with six
// decimal places. Updates without a usable orientation are skipped with a
// warning and nothing else is logged for them.
func (r *PitchReporter) Handle(u *odometry.Update) {
	if u == nil {
		r.log.Warn("empty odometry update, skipping")
		return
	}

	pitch, err := orientation.PitchDegrees(u.Orientation)
	if err != nil {
		r.log.WithError(err).WithField("orientation", u.Orientation).Warn("cannot decompose orientation, skipping update")
		return
	}

	// Anything that rounds to zero at six places prints without a sign.
	if math.Abs(pitch) < 5e-7 {
		pitch = 0
	}

	r.log.Info(greeting)
	r.log.Infof("Pitch (degrees): %.6f", pitch)
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/relabs-tech/tilt_node/internal/odometry"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock odometry source for a robot driving forward
// over rolling terrain, so pitch swings smoothly between -15° and +15°.
func NewMockSource() Source {
	return newMockSource(time.Now)
}

func newMockSource(now func() time.Time) *mockSource {
	return &mockSource{start: now(), now: now}
}

func (m *mockSource) Next() (odometry.Update, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	attitude := EulerAngles{
		Roll:  Radians(5 * math.Sin(elapsed)),
		Pitch: Radians(15 * math.Cos(elapsed*0.7)),
		Yaw:   Radians(math.Mod(elapsed*10, 360)),
	}

	// 0.5 m/s along the current heading. Positive pitch is nose down.
	dist := 0.5 * elapsed
	return odometry.Update{
		Position: odometry.Point{
			X: dist * math.Cos(attitude.Yaw),
			Y: dist * math.Sin(attitude.Yaw),
			Z: -dist * math.Sin(attitude.Pitch),
		},
		Orientation: ToQuaternion(attitude),
	}, nil
}

package odometry

import (
	"encoding/json"
	"fmt"
)

// Point is a position in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is an orientation as delivered by the odometry source.
// It is expected to be unit length but is not checked here.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity is the quaternion of no rotation.
var Identity = Quaternion{W: 1}

// Update is a single pose received from the odometry stream.
type Update struct {
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Handler consumes updates. A nil update means the transport delivered a
// message without a pose.
type Handler func(*Update)

// Message mirrors the conventional odometry message shape, so a bridged
// nav_msgs/Odometry can be decoded from JSON as-is.
type Message struct {
	Header struct {
		FrameID string `json:"frame_id"`
	} `json:"header"`
	ChildFrameID string `json:"child_frame_id"`
	Pose         *struct {
		Pose       Update    `json:"pose"`
		Covariance []float64 `json:"covariance,omitempty"`
	} `json:"pose"`
}

// Update extracts the pose, or nil if the message carried none.
func (m *Message) Update() *Update {
	if m == nil || m.Pose == nil {
		return nil
	}
	u := m.Pose.Pose
	return &u
}

// Decode parses a JSON odometry message. An empty or "null" payload decodes
// to a nil update without error.
func Decode(payload []byte) (*Update, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var m *Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("decode odometry: %w", err)
	}
	return m.Update(), nil
}

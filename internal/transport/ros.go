package transport

import (
	"fmt"

	"github.com/bluenviron/goroslib/v2"
	"github.com/bluenviron/goroslib/v2/pkg/msgs/nav_msgs"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_node/internal/odometry"
)

// ROS subscribes to a nav_msgs/Odometry topic through a ROS master.
type ROS struct {
	nodeName      string
	masterAddress string
	topic         string
	log           *logrus.Entry

	node *goroslib.Node
	sub  *goroslib.Subscriber
}

func NewROS(nodeName, masterAddress, topic string, log *logrus.Entry) *ROS {
	return &ROS{
		nodeName:      nodeName,
		masterAddress: masterAddress,
		topic:         topic,
		log:           log.WithField("transport", "ros"),
	}
}

// Start registers the node with the master and subscribes to the topic.
// The callback is synchronous; queueing is left to the caller's deliver.
func (r *ROS) Start(deliver odometry.Handler) error {
	node, err := goroslib.NewNode(goroslib.NodeConf{
		Name:          r.nodeName,
		MasterAddress: r.masterAddress,
	})
	if err != nil {
		return fmt.Errorf("ros node %q at master %s: %w", r.nodeName, r.masterAddress, err)
	}
	r.log.Infof("registered node %q with ROS master at %s", r.nodeName, r.masterAddress)

	sub, err := goroslib.NewSubscriber(goroslib.SubscriberConf{
		Node:  node,
		Topic: r.topic,
		Callback: func(msg *nav_msgs.Odometry) {
			deliver(FromOdometry(msg))
		},
	})
	if err != nil {
		node.Close()
		return fmt.Errorf("ros subscribe %q: %w", r.topic, err)
	}
	r.log.Infof("subscribed to %s", r.topic)

	r.node = node
	r.sub = sub
	return nil
}

func (r *ROS) Close() {
	if r.sub != nil {
		r.sub.Close()
		r.sub = nil
	}
	if r.node != nil {
		r.node.Close()
		r.node = nil
	}
}

// FromOdometry extracts the pose of msg. The covariance is ignored.
func FromOdometry(msg *nav_msgs.Odometry) *odometry.Update {
	if msg == nil {
		return nil
	}
	p := msg.Pose.Pose
	return &odometry.Update{
		Position: odometry.Point{
			X: p.Position.X,
			Y: p.Position.Y,
			Z: p.Position.Z,
		},
		Orientation: odometry.Quaternion{
			X: p.Orientation.X,
			Y: p.Orientation.Y,
			Z: p.Orientation.Z,
			W: p.Orientation.W,
		},
	}
}

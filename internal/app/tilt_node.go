package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_node/internal/config"
	"github.com/relabs-tech/tilt_node/internal/odometry"
	"github.com/relabs-tech/tilt_node/internal/reporter"
	"github.com/relabs-tech/tilt_node/internal/transport"
)

// NewLogger builds the root logger for the node.
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(cfg.LogLevel)
	return logger
}

// RunTiltNode subscribes to odometry and logs the pitch of every update
// until SIGINT or SIGTERM.
func RunTiltNode(cfg *config.Config) error {
	logger := NewLogger(cfg)
	fields := logrus.Fields{"node": cfg.NodeName}

	sub, err := transport.New(cfg, logger.WithFields(fields).WithField("pkg", "transport"))
	if err != nil {
		return err
	}
	pitch := reporter.NewPitchReporter(logger.WithFields(fields).WithField("pkg", "reporter"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runNode(ctx, sub, pitch.Handle, logger.WithFields(fields).WithField("pkg", "app"))
}

// runNode starts sub and feeds its updates through a depth-one mailbox to h
// until ctx is done.
func runNode(ctx context.Context, sub transport.Subscriber, h odometry.Handler, log *logrus.Entry) error {
	mailbox := transport.NewMailbox()

	if err := sub.Start(mailbox.Offer); err != nil {
		return fmt.Errorf("start subscription: %w", err)
	}
	log.Info("waiting for odometry")

	mailbox.Serve(ctx, h)

	log.Info("shutting down")
	sub.Close()
	log.WithField("dropped", mailbox.Dropped()).Debug("subscription closed")
	return nil
}

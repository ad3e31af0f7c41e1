// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config loads the node's optional key=value configuration file.
// Running without the file is the normal mode: the defaults register as
// tilt_node and subscribe to odometry/filtered through the local ROS master,
// with no flags or environment variables read. The file only exists to
// override those defaults, for example to switch to the MQTT bridge.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultPath is where the node looks for its optional config file.
const DefaultPath = "tilt_config.txt"

// Transport names accepted by TRANSPORT.
const (
	TransportROS  = "ros"
	TransportMQTT = "mqtt"
	TransportMock = "mock"
)

// ErrUnknownKey is returned for keys the loader does not recognise.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds all application configuration values.
type Config struct {
	// Node
	NodeName  string
	Transport string

	// ROS
	ROSMasterAddress string
	OdomTopic        string

	// MQTT bridge
	MQTTBroker    string
	MQTTClientID  string
	MQTTTopicOdom string

	// Mock source
	MockInterval int // milliseconds

	// Logging
	LogLevel logrus.Level
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		NodeName:         "tilt_node",
		Transport:        TransportROS,
		ROSMasterAddress: "127.0.0.1:11311",
		OdomTopic:        "odometry/filtered",
		MQTTBroker:       "tcp://localhost:1883",
		MQTTClientID:     "tilt-node-subscriber",
		MQTTTopicOdom:    "odometry/filtered",
		MockInterval:     100,
		LogLevel:         logrus.InfoLevel,
	}
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
// Keys missing from the file keep their defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// LoadOrDefault behaves like Load, except that a missing file yields Default().
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse reads KEY=VALUE lines from r on top of the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Node
	case "NODE_NAME":
		c.NodeName = value
	case "TRANSPORT":
		c.Transport = strings.ToLower(value)

	// ROS
	case "ROS_MASTER_ADDRESS":
		c.ROSMasterAddress = value
	case "ODOM_TOPIC":
		c.OdomTopic = value

	// MQTT bridge
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_TOPIC_ODOM":
		c.MQTTTopicOdom = value

	// Mock source
	case "MOCK_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MOCK_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("MOCK_INTERVAL must be positive, got %d", interval)
		}
		c.MockInterval = interval

	// Logging
	case "LOG_LEVEL":
		level, err := logrus.ParseLevel(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", value, err)
		}
		c.LogLevel = level

	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	return nil
}

// validate checks that the fields required by the selected transport are set.
func (c *Config) validate() error {
	if c.NodeName == "" {
		return fmt.Errorf("NODE_NAME is required")
	}

	switch c.Transport {
	case TransportROS:
		if c.ROSMasterAddress == "" {
			return fmt.Errorf("ROS_MASTER_ADDRESS is required for transport %q", c.Transport)
		}
		if c.OdomTopic == "" {
			return fmt.Errorf("ODOM_TOPIC is required for transport %q", c.Transport)
		}
	case TransportMQTT:
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required for transport %q", c.Transport)
		}
		if c.MQTTTopicOdom == "" {
			return fmt.Errorf("MQTT_TOPIC_ODOM is required for transport %q", c.Transport)
		}
	case TransportMock:
	default:
		return fmt.Errorf("TRANSPORT must be one of %s, %s or %s, got %q",
			TransportROS, TransportMQTT, TransportMock, c.Transport)
	}
	return nil
}

// InitGlobal initializes the global configuration from file, falling back to
// defaults when the file does not exist. Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = LoadOrDefault(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config loads the flat KEY=VALUE configuration file consumed by
// cmd/monitor (the sensorcore library itself takes no config file
// and is driven entirely through its Go API).
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Device selection
	DeviceSerial string // empty = open one of the enumerated devices (which one is not defined)

	// MQTT bridge
	MQTTBroker         string
	MQTTClientID       string
	MQTTTopicIMU       string
	MQTTTopicMag       string
	MQTTTopicEnv       string
	MQTTTopicCamTemp   string
	MQTTPublishQoS     byte
	MQTTPollIntervalMS int

	// Monitor HTTP/WS dashboard
	MonitorPort int

	// Video-sync handshake
	SyncInitialOffsetNS int64

	// Poll timeout used by cmd/monitor's WebSocket feed when reading the
	// facade's LastIMU getter
	PollTimeoutUS int64
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{
		MQTTPublishQoS:     1,
		MQTTPollIntervalMS: 100,
		MonitorPort:        8089,
		PollTimeoutUS:      50_000,
	}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

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
	case "DEVICE_SERIAL":
		c.DeviceSerial = value

	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_TOPIC_IMU":
		c.MQTTTopicIMU = value
	case "MQTT_TOPIC_MAG":
		c.MQTTTopicMag = value
	case "MQTT_TOPIC_ENV":
		c.MQTTTopicEnv = value
	case "MQTT_TOPIC_CAM_TEMP":
		c.MQTTTopicCamTemp = value
	case "MQTT_PUBLISH_QOS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MQTT_PUBLISH_QOS %q: %w", value, err)
		}
		if v < 0 || v > 2 {
			return fmt.Errorf("MQTT_PUBLISH_QOS must be 0-2, got %d", v)
		}
		c.MQTTPublishQoS = byte(v)
	case "MQTT_POLL_INTERVAL_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MQTT_POLL_INTERVAL_MS %q: %w", value, err)
		}
		c.MQTTPollIntervalMS = v

	case "MONITOR_PORT":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MONITOR_PORT %q: %w", value, err)
		}
		c.MonitorPort = v

	case "SYNC_INITIAL_OFFSET_NS":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SYNC_INITIAL_OFFSET_NS %q: %w", value, err)
		}
		c.SyncInitialOffsetNS = v

	case "POLL_TIMEOUT_US":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid POLL_TIMEOUT_US %q: %w", value, err)
		}
		c.PollTimeoutUS = v

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.MQTTClientID == "" {
		return fmt.Errorf("MQTT_CLIENT_ID is required")
	}
	if c.MQTTTopicIMU == "" {
		return fmt.Errorf("MQTT_TOPIC_IMU is required")
	}
	if c.MQTTTopicMag == "" {
		return fmt.Errorf("MQTT_TOPIC_MAG is required")
	}
	if c.MQTTTopicEnv == "" {
		return fmt.Errorf("MQTT_TOPIC_ENV is required")
	}
	if c.MQTTTopicCamTemp == "" {
		return fmt.Errorf("MQTT_TOPIC_CAM_TEMP is required")
	}
	if c.MonitorPort <= 0 {
		return fmt.Errorf("MONITOR_PORT is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Safe to
// call more than once; only the first call takes effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this returns nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

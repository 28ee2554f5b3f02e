// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sensorcore.conf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, `
# comment
DEVICE_SERIAL=SN12345
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID=sensorcore-bridge
MQTT_TOPIC_IMU=zed/imu
MQTT_TOPIC_MAG=zed/mag
MQTT_TOPIC_ENV=zed/env
MQTT_TOPIC_CAM_TEMP=zed/camtemp
MQTT_PUBLISH_QOS=1
MONITOR_PORT=9090
SYNC_INITIAL_OFFSET_NS=-1500000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DeviceSerial != "SN12345" {
		t.Errorf("DeviceSerial = %q, want SN12345", cfg.DeviceSerial)
	}
	if cfg.MonitorPort != 9090 {
		t.Errorf("MonitorPort = %d, want 9090", cfg.MonitorPort)
	}
	if cfg.SyncInitialOffsetNS != -1500000 {
		t.Errorf("SyncInitialOffsetNS = %d, want -1500000", cfg.SyncInitialOffsetNS)
	}
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := writeTempConfig(t, `MQTT_BROKER=tcp://localhost:1883`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing required fields")
	}
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeTempConfig(t, `NOT_A_REAL_KEY=1`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown config key")
	}
}

func TestLoadMalformedLine(t *testing.T) {
	path := writeTempConfig(t, `THIS_LINE_HAS_NO_EQUALS`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

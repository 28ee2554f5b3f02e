// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/monitor/main.go
//
// Serves a small HTTP+WebSocket status dashboard over the sensor core,
// and optionally republishes the same samples to MQTT.
//
// Run:
//
//	go run ./cmd/monitor -config sensorcore.conf
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	sensorcore "github.com/relabs-tech/zed-sensor-core"
	"github.com/relabs-tech/zed-sensor-core/internal/config"
	"github.com/relabs-tech/zed-sensor-core/internal/logging"
	"github.com/relabs-tech/zed-sensor-core/internal/monitor"
	"github.com/relabs-tech/zed-sensor-core/internal/mqttbridge"
)

func main() {
	configPath := flag.String("config", "sensorcore.conf", "path to configuration file")
	withMQTT := flag.Bool("mqtt", false, "also republish samples to MQTT")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg := config.Get()

	logger := logging.NewStdLogger()

	sensors := sensorcore.New(logger)
	if !sensors.Init(cfg.DeviceSerial) {
		log.Fatalf("failed to initialize device %q", cfg.DeviceSerial)
	}
	defer sensors.Reset()

	if *withMQTT {
		bridge, err := mqttbridge.New(
			cfg.MQTTBroker,
			cfg.MQTTClientID,
			mqttbridge.Topics{
				IMU:     cfg.MQTTTopicIMU,
				Mag:     cfg.MQTTTopicMag,
				Env:     cfg.MQTTTopicEnv,
				CamTemp: cfg.MQTTTopicCamTemp,
			},
			cfg.MQTTPublishQoS,
			sensors.Registry(),
			logger,
			time.Duration(cfg.MQTTPollIntervalMS)*time.Millisecond,
		)
		if err != nil {
			log.Fatalf("mqttbridge: %v", err)
		}
		bridge.Start()
		defer bridge.Stop()
	}

	srv := monitor.New(sensors, logger, cfg.PollTimeoutUS)

	addr := fmt.Sprintf(":%d", cfg.MonitorPort)
	log.Printf("monitor listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatalf("monitor: %v", err)
	}
}

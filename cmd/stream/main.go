// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/stream/main.go
//
// Minimal example program: opens an enumerated stereo camera sensor
// device, prints each modality's latest sample as it arrives, and
// exits cleanly on SIGINT/SIGTERM.
//
// Run:
//
//	go run ./cmd/stream
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	sensorcore "github.com/relabs-tech/zed-sensor-core"
	"github.com/relabs-tech/zed-sensor-core/internal/logging"
)

func main() {
	serial := flag.String("serial", "", "device serial number (empty = any enumerated device)")
	flag.Parse()

	logger := logging.NewStdLogger()

	devices, err := sensorcore.Enumerate()
	if err != nil {
		log.Fatalf("enumerate: %v", err)
	}
	log.Printf("found %d device(s): %v", len(devices), devices)

	sensors := sensorcore.New(logger)
	if !sensors.Init(*serial) {
		log.Fatalf("failed to initialize device %q", *serial)
	}
	defer sensors.Reset()

	major, minor := sensors.FirmwareVersion()
	log.Printf("connected to %s (firmware %d.%d)", sensors.SerialNumber(), major, minor)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-quit:
				return
			default:
			}
			if imu, ok := sensors.LastIMU(500_000); ok {
				log.Printf("imu  t=%d accel=%+v gyro=%+v temp=%.2f", imu.TimestampNS, imu.Accel, imu.Gyro, imu.TempC)
			}
			if mag, ok := sensors.LastMag(0); ok {
				log.Printf("mag  t=%d field=%+v", mag.TimestampNS, mag.Field)
			}
			if env, ok := sensors.LastEnv(0); ok {
				log.Printf("env  t=%d temp=%.2f press=%.2f humid=%.2f", env.TimestampNS, env.TempC, env.PressureHPa, env.HumidityPct)
			}
			if ct, ok := sensors.LastCamTemp(0); ok {
				log.Printf("cam  t=%d left=%.2f right=%.2f", ct.TimestampNS, ct.LeftC, ct.RightC)
			}
		}
	}()

	<-sig
	close(quit)
	<-done
}

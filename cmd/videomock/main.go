// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/videomock/main.go
//
// Exercises the sync handshake (spec.md §4.3) end-to-end against a
// mock video collaborator that advances its "last captured frame"
// timestamp on a fixed cadence, instead of a real paired camera stream.
//
// Run:
//
//	go run ./cmd/videomock
package main

import (
	"flag"
	"log"
	"sync/atomic"
	"time"

	sensorcore "github.com/relabs-tech/zed-sensor-core"
	"github.com/relabs-tech/zed-sensor-core/internal/logging"
)

// mockVideoSource implements sensorcore.VideoFrameSource. It advances
// its reported timestamp once per frameInterval, mimicking a video
// pipeline whose capture clock runs slightly ahead of host time.
type mockVideoSource struct {
	frameInterval time.Duration
	skewNS        int64
	start         time.Time
	lastNS        atomic.Int64
}

func newMockVideoSource(frameInterval time.Duration, skewNS int64) *mockVideoSource {
	return &mockVideoSource{frameInterval: frameInterval, skewNS: skewNS, start: time.Now()}
}

func (m *mockVideoSource) run(stop <-chan struct{}) {
	ticker := time.NewTicker(m.frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case t := <-ticker.C:
			m.lastNS.Store(t.UnixNano() + m.skewNS)
		}
	}
}

func (m *mockVideoSource) LastFrameTimestampNS() uint64 {
	return uint64(m.lastNS.Load())
}

func main() {
	serial := flag.String("serial", "", "device serial number (empty = any enumerated device)")
	skewMS := flag.Int64("skew-ms", 5, "simulated video-capture clock skew, in milliseconds")
	flag.Parse()

	logger := logging.NewStdLogger()

	sensors := sensorcore.New(logger)
	if !sensors.Init(*serial) {
		log.Fatalf("failed to initialize device %q", *serial)
	}
	defer sensors.Reset()

	video := newMockVideoSource(33*time.Millisecond, *skewMS*int64(time.Millisecond))
	stop := make(chan struct{})
	go video.run(stop)
	defer close(stop)

	if err := sensors.EnableSync(video, 0); err != nil {
		log.Fatalf("enable sync: %v", err)
	}

	for i := 0; i < 20; i++ {
		if imu, ok := sensors.LastIMU(time.Second.Microseconds()); ok {
			log.Printf("imu t=%d sync=%v", imu.TimestampNS, imu.Sync)
		}
	}
}

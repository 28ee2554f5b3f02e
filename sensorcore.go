// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensorcore is the public facade over the stereo camera's HID
// sensor stream and host/device clock-synchronization pipeline. It
// enumerates devices, initializes a stream by serial, and hands
// consumers the latest sample of each modality with bounded latency.
//
// Thread safety: Init/Reset are meant to be called from a single
// controlling goroutine; the Last* getters may be called concurrently
// from any goroutine, including while the acquisition worker is
// running (spec.md §4.6).
package sensorcore

import (
	"fmt"
	"sync"
	"time"

	"github.com/relabs-tech/zed-sensor-core/internal/acquisition"
	"github.com/relabs-tech/zed-sensor-core/internal/clocksync"
	"github.com/relabs-tech/zed-sensor-core/internal/hidtransport"
	"github.com/relabs-tech/zed-sensor-core/internal/logging"
	"github.com/relabs-tech/zed-sensor-core/internal/registry"
)

// Re-export the registry's sample types so callers never need to import
// an internal package.
type (
	Vec3          = registry.Vec3
	IMUSample     = registry.IMUSample
	MagSample     = registry.MagSample
	EnvSample     = registry.EnvSample
	CamTempSample = registry.CamTempSample
)

// VideoFrameSource is the interface the paired video-capture
// collaborator implements so the sensor core can read its latest
// frame's host-aligned timestamp (spec.md §4.3 "sync handshake").
type VideoFrameSource = clocksync.VideoFrameSource

// Logger is the injected logging sink (spec.md §6).
type Logger = logging.Logger

// Sensors is the public facade (spec.md §4.6 C6). The zero value is
// uninitialized; call Init before using any getter.
type Sensors struct {
	log logging.Logger

	mu          sync.Mutex
	initialized bool
	transport   *hidtransport.Transport
	aligner     *clocksync.Aligner
	registry    *registry.Registry
	loop        *acquisition.Loop
	identity    hidtransport.DeviceIdentity
}

// New returns an uninitialized facade. A nil logger defaults to
// discarding all log output.
func New(log Logger) *Sensors {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &Sensors{log: log}
}

// Enumerate lists the serial numbers of attached devices (spec.md
// §4.6).
func Enumerate() ([]string, error) {
	devices, err := hidtransport.Enumerate()
	if err != nil {
		return nil, err
	}
	serials := make([]string, 0, len(devices))
	for s := range devices {
		serials = append(serials, s)
	}
	return serials, nil
}

// Init opens the device with the given serial (empty string picks one
// of the enumerated devices; which one is not defined when several are
// attached), enables the stream, and starts the
// acquisition worker. It returns false if the device could not be
// opened, matching spec.md §4.6's boolean-return contract.
func (s *Sensors) Init(serial string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return true
	}

	transport, identity, err := hidtransport.Open(serial)
	if err != nil {
		s.log.Error("sensorcore: init: %v", err)
		return false
	}

	if err := transport.EnableStream(true); err != nil {
		s.log.Warn("sensorcore: init: %v", err)
	}

	fwMajor, fwMinor := identity.FirmwareMajorMinor()

	s.transport = transport
	s.identity = identity
	s.aligner = clocksync.New(hostMonotonicNS)
	s.registry = registry.New()
	s.loop = acquisition.New(transport, s.aligner, s.registry, s.log, fwMajor, fwMinor)
	s.loop.Start()
	s.initialized = true
	return true
}

// FirmwareVersion returns the device's (major, minor) firmware version.
func (s *Sensors) FirmwareVersion() (major, minor byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity.FirmwareMajorMinor()
}

// SerialNumber returns the serial number of the device currently open,
// or an empty string if uninitialized.
func (s *Sensors) SerialNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity.Serial
}

// Registry exposes the underlying modality registry for internal
// components (mqttbridge, monitor) that need direct Cell access rather
// than the polling Last* getters. Returns nil if uninitialized.
func (s *Sensors) Registry() *registry.Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry
}

// EnableSync hands the aligner a read-only reference to the video
// collaborator and seeds the running sync offset (spec.md §4.3/§4.6).
func (s *Sensors) EnableSync(video VideoFrameSource, initialOffsetNS int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return fmt.Errorf("sensorcore: EnableSync called before Init")
	}
	s.aligner.EnableSync(video, initialOffsetNS)
	return nil
}

// LastIMU blocks for up to timeoutUS microseconds for a fresh IMU
// sample (spec.md §4.6).
func (s *Sensors) LastIMU(timeoutUS int64) (IMUSample, bool) {
	cell := s.imuCell()
	if cell == nil {
		return IMUSample{}, false
	}
	return cell.Poll(time.Duration(timeoutUS) * time.Microsecond)
}

// LastMag blocks for up to timeoutUS microseconds for a fresh
// magnetometer sample.
func (s *Sensors) LastMag(timeoutUS int64) (MagSample, bool) {
	cell := s.magCell()
	if cell == nil {
		return MagSample{}, false
	}
	return cell.Poll(time.Duration(timeoutUS) * time.Microsecond)
}

// LastEnv blocks for up to timeoutUS microseconds for a fresh
// environmental sample.
func (s *Sensors) LastEnv(timeoutUS int64) (EnvSample, bool) {
	cell := s.envCell()
	if cell == nil {
		return EnvSample{}, false
	}
	return cell.Poll(time.Duration(timeoutUS) * time.Microsecond)
}

// LastCamTemp blocks for up to timeoutUS microseconds for a fresh
// camera-die temperature sample.
func (s *Sensors) LastCamTemp(timeoutUS int64) (CamTempSample, bool) {
	cell := s.camTempCell()
	if cell == nil {
		return CamTempSample{}, false
	}
	return cell.Poll(time.Duration(timeoutUS) * time.Microsecond)
}

func (s *Sensors) imuCell() *registry.Cell[registry.IMUSample] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	return s.registry.IMU
}

func (s *Sensors) magCell() *registry.Cell[registry.MagSample] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	return s.registry.Mag
}

func (s *Sensors) envCell() *registry.Cell[registry.EnvSample] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	return s.registry.Env
}

func (s *Sensors) camTempCell() *registry.Cell[registry.CamTempSample] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	return s.registry.CamTemp
}

// Reset stops the acquisition worker, disables the stream, and closes
// the HID handle. Idempotent (spec.md §3 lifecycle).
func (s *Sensors) Reset() {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return
	}
	loop := s.loop
	transport := s.transport
	s.initialized = false
	s.mu.Unlock()

	loop.Stop()
	if err := transport.EnableStream(false); err != nil {
		s.log.Warn("sensorcore: reset: %v", err)
	}
	if err := transport.Close(); err != nil {
		s.log.Warn("sensorcore: reset: close: %v", err)
	}
}

// processStart is captured once so hostMonotonicNS can derive its reading
// from time.Since, which uses the runtime's monotonic clock reading and
// is immune to wall-clock steps/slews (time.Now().UnixNano() is not:
// .UnixNano() strips the monotonic reading and returns wall-clock time).
var processStart = time.Now()

func hostMonotonicNS() uint64 {
	return uint64(time.Since(processStart).Nanoseconds())
}

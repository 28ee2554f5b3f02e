// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package acquisition runs the dedicated worker goroutine that pulls HID
// reports, decodes them, aligns their timestamp, and publishes the
// result into the latest-sample registry. Grounded on the teacher's
// cmd/producer/main.go tick-and-publish cadence and on
// other_examples/*HappyZ-xreal-xr-go*'s readPacketsPeriodically
// (ticker + stop-channel select, sync.WaitGroup join).
package acquisition

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/zed-sensor-core/internal/clocksync"
	"github.com/relabs-tech/zed-sensor-core/internal/logging"
	"github.com/relabs-tech/zed-sensor-core/internal/registry"
	"github.com/relabs-tech/zed-sensor-core/internal/report"
)

// Tunables (spec.md §6).
const (
	PingInterval = 400 // iterations, ~1s at 400Hz
	ReadTimeout  = 500 * time.Millisecond
)

// Transport is the subset of hidtransport.Transport the loop needs. It's
// an interface so tests can drive the loop with a scripted fake.
type Transport interface {
	Ping() error
	ReadSample(buf []byte, timeout time.Duration) (int, error)
	SetBlocking() error
}

// Loop owns one acquisition worker goroutine (spec.md §4.5/§5).
type Loop struct {
	transport Transport
	aligner   *clocksync.Aligner
	registry  *registry.Registry
	log       logging.Logger
	fwMajor   byte
	fwMinor   byte

	stop    chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// New constructs a Loop. fwMajor/fwMinor gate the pressure/humidity
// scale selection (spec.md §4.2).
func New(t Transport, a *clocksync.Aligner, r *registry.Registry, log logging.Logger, fwMajor, fwMinor byte) *Loop {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &Loop{
		transport: t,
		aligner:   a,
		registry:  r,
		log:       log,
		fwMajor:   fwMajor,
		fwMinor:   fwMinor,
		stop:      make(chan struct{}),
	}
}

// Start spawns the worker goroutine. Call Stop to join it.
func (l *Loop) Start() {
	l.wg.Add(1)
	go l.run()
}

// Stop signals the worker to exit and blocks until it has (spec.md §5
// "reset sets an atomic stop flag; the worker observes it after the
// next read, <=500ms"). Idempotent.
func (l *Loop) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stop)
	}
	l.wg.Wait()
}

func (l *Loop) run() {
	defer l.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("acquisition: worker panic: %v", r)
		}
	}()

	buf := make([]byte, 64)
	iterations := 0

	for {
		select {
		case <-l.stop:
			return
		default:
		}

		iterations++
		if iterations%PingInterval == 0 {
			if err := l.transport.Ping(); err != nil {
				l.log.Warn("acquisition: liveness ping: %v", err)
			}
		}

		n, err := l.transport.ReadSample(buf, ReadTimeout)
		if err != nil || n < report.RecordSize {
			if err != nil {
				l.log.Warn("acquisition: read: %v", err)
			}
			if setErr := l.transport.SetBlocking(); setErr != nil {
				l.log.Warn("acquisition: set blocking after short read: %v", setErr)
			}
			continue
		}

		rec, err := report.Decode(buf[:n])
		if err != nil {
			l.log.Warn("acquisition: decode: %v", err)
			if setErr := l.transport.SetBlocking(); setErr != nil {
				l.log.Warn("acquisition: set blocking after protocol error: %v", setErr)
			}
			continue
		}

		l.ingest(rec)
	}
}

// ingest runs one decoded record through the aligner and publishes the
// results, mirroring the pseudocode in spec.md §4.5 steps d-i. Tests
// reach it through run, by driving the loop with a scripted Transport.
func (l *Loop) ingest(rec report.RawRecord) {
	mcuNS := report.TimestampNS(rec.Timestamp)
	imuNotValid := rec.IMUNotValid != 0

	alignedNS, bootstrap, ready := l.aligner.Update(mcuNS, imuNotValid, rec.FrameSync, rec.FrameSyncCount, rec.SyncCapabilities)
	if !ready || bootstrap {
		return
	}

	scaled := rec.Scale()

	l.registry.IMU.Publish(registry.IMUSample{
		TimestampNS: alignedNS,
		Valid:       !imuNotValid,
		Sync:        rec.FrameSync != 0,
		Accel:       registry.Vec3{X: scaled.AX, Y: scaled.AY, Z: scaled.AZ},
		Gyro:        registry.Vec3{X: scaled.GX, Y: scaled.GY, Z: scaled.GZ},
		TempC:       scaled.IMUTemp,
	})

	if rec.MagValid == report.MagNew {
		l.registry.Mag.Publish(registry.MagSample{
			TimestampNS: alignedNS,
			Valid:       true,
			Field:       registry.Vec3{X: scaled.MX, Y: scaled.MY, Z: scaled.MZ},
		})
	}

	if rec.EnvValid == report.EnvNew {
		pScale := report.PressureScale(l.fwMajor, l.fwMinor)
		hScale := report.HumidityScale(l.fwMajor, l.fwMinor)
		l.registry.Env.Publish(registry.EnvSample{
			TimestampNS: alignedNS,
			Valid:       true,
			TempC:       float64(rec.Temp) * report.TempScale,
			PressureHPa: float64(rec.Press) * pScale,
			HumidityPct: float64(rec.Humid) * hScale,
		})

		if rec.TempCamLeft != report.TempNotValid && rec.TempCamRight != report.TempNotValid {
			l.registry.CamTemp.Publish(registry.CamTempSample{
				TimestampNS: alignedNS,
				Valid:       true,
				LeftC:       float64(rec.TempCamLeft) * report.TempScale,
				RightC:      float64(rec.TempCamRight) * report.TempScale,
			})
		}
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package clocksync maps the device's free-running MCU timestamp onto
// the host's monotonic clock, estimates the MCU's long-term frequency
// drift against the host, and folds in an occasional offset correction
// supplied by a paired video stream. Apart from EnableSync, which the
// controlling goroutine calls and which writes only atomic fields, it is
// touched only by the acquisition worker goroutine (spec.md §5) — no
// internal locking.
package clocksync

import (
	"math"
	"sync/atomic"
)

// Tunables (spec.md §6).
const (
	DriftWindow   = 50
	NTPAdjustCT   = 3
	ScaleClampLo  = 0.8
	ScaleClampHi  = 1.2
	OffsetSamples = 3
)

// VideoFrameSource is the read-only observable the paired video
// collaborator exposes. The aligner only ever reads it; spec.md §4.3/§9
// models this as a one-way read channel, never a mutual ownership edge.
type VideoFrameSource interface {
	// LastFrameTimestampNS returns the host-aligned timestamp of the
	// most recently captured video frame.
	LastFrameTimestampNS() uint64
}

// NowFunc lets tests substitute the host monotonic clock.
type NowFunc func() uint64

// Aligner holds the clock-alignment state described in spec.md §3.
type Aligner struct {
	now NowFunc

	firstSample bool
	startHostNS uint64
	lastMCUNS   uint64
	relMCUNS    uint64
	ntpScale    float64

	// syncOffsetNS is seeded by EnableSync (controlling goroutine) and
	// updated by applyDriftUpdate (worker goroutine); atomic.Int64 for
	// the same reason video is an atomic.Pointer.
	syncOffsetNS atomic.Int64

	lastFrameSyncCount uint32

	hostTS []uint64
	mcuTS  []uint64

	ntpAdjustCount uint32

	// video is written by EnableSync (called from the controlling
	// goroutine) and read by applyDriftUpdate (called from the
	// acquisition worker), so it's the one piece of Aligner state that
	// isn't worker-exclusive; atomic.Pointer keeps that handoff race-free
	// without adding a mutex to the otherwise lock-free hot path.
	video        atomic.Pointer[VideoFrameSource]
	offsetAccum  float64
	offsetAccumN int
}

// New returns an Aligner bootstrapped for its first sample. now supplies
// host_monotonic_ns(); in production this is a wrapper around
// time.Since(ref).Nanoseconds() against a reference captured once at
// process start, so it tracks the runtime's monotonic clock reading and
// is never affected by a wall-clock step or NTP slew.
func New(now NowFunc) *Aligner {
	return &Aligner{
		now:         now,
		firstSample: true,
		ntpScale:    1.0,
		hostTS:      make([]uint64, 0, DriftWindow),
		mcuTS:       make([]uint64, 0, DriftWindow),
	}
}

// EnableSync hands the aligner a read-only reference to the video
// collaborator, and seeds the running offset with its initial value.
func (a *Aligner) EnableSync(video VideoFrameSource, initialOffsetNS int64) {
	a.video.Store(&video)
	a.syncOffsetNS.Store(initialOffsetNS)
}

// NTPScale returns the current drift multiplier (for tests/monitoring).
func (a *Aligner) NTPScale() float64 { return a.ntpScale }

// SyncOffsetNS returns the current running offset (for tests/monitoring).
func (a *Aligner) SyncOffsetNS() int64 { return a.syncOffsetNS.Load() }

// Update feeds one sample's MCU timestamp (already scaled to
// nanoseconds, per report.TimestampNS) plus its sync-related fields
// through the aligner. imuNotValid mirrors the record's own flag: only a
// sample with imuNotValid == false can trigger bootstrap (spec.md
// §4.3). It returns the host-aligned timestamp, whether this was the
// bootstrap sample, and whether the aligner has bootstrapped at all yet
// (false means: keep calling Update with fresh samples, nothing is
// ready to publish regardless of modality).
func (a *Aligner) Update(mcuNS uint64, imuNotValid bool, frameSync uint8, frameSyncCount uint32, syncCapabilities uint8) (alignedNS uint64, bootstrap bool, ready bool) {
	if a.firstSample {
		if imuNotValid {
			return 0, false, false
		}
		a.startHostNS = a.now()
		a.lastMCUNS = mcuNS
		a.firstSample = false
		a.lastFrameSyncCount = frameSyncCount
		return 0, true, true
	}

	deltaRaw := mcuNS - a.lastMCUNS
	if mcuNS < a.lastMCUNS {
		// The device's 32-bit tick counter wrapped since the previous
		// sample: add one full counter period (2^32 ticks of 39.0625 ns)
		// so the delta stays non-negative.
		const mcuWrapNS = 167_772_160_000
		deltaRaw = mcuNS + mcuWrapNS - a.lastMCUNS
	}
	a.lastMCUNS = mcuNS
	a.relMCUNS += uint64(math.Round(float64(deltaRaw) * a.ntpScale))

	alignedNS = uint64(int64(a.startHostNS) - a.syncOffsetNS.Load() + int64(a.relMCUNS))

	if syncCapabilities != 0 {
		isSyncEdge := a.lastFrameSyncCount != 0 && (frameSync != 0 || frameSyncCount > a.lastFrameSyncCount)
		if isSyncEdge {
			a.hostTS = append(a.hostTS, a.now())
			a.mcuTS = append(a.mcuTS, alignedNS)
			if len(a.hostTS) >= DriftWindow && len(a.mcuTS) >= DriftWindow {
				a.applyDriftUpdate(alignedNS)
			}
		}
	}
	a.lastFrameSyncCount = frameSyncCount

	return alignedNS, false, true
}

// applyDriftUpdate recomputes ntp_scale from the paired ring buffers and,
// every OffsetSamples updates, folds the average MCU/video discrepancy
// into sync_offset_ns. Called with both buffers at capacity (spec.md
// §4.3).
func (a *Aligner) applyDriftUpdate(lastAlignedNS uint64) {
	firstIndex := 5
	if a.ntpAdjustCount <= NTPAdjustCT {
		firstIndex = 25
	}

	last := len(a.hostTS) - 1
	hostDelta := float64(a.hostTS[last]) - float64(a.hostTS[firstIndex])
	mcuDelta := float64(a.mcuTS[last]) - float64(a.mcuTS[firstIndex])

	if mcuDelta != 0 {
		scale := hostDelta / mcuDelta
		if scale < ScaleClampLo {
			scale = ScaleClampLo
		} else if scale > ScaleClampHi {
			scale = ScaleClampHi
		}
		a.ntpScale *= scale
		if a.ntpScale < ScaleClampLo {
			a.ntpScale = ScaleClampLo
		} else if a.ntpScale > ScaleClampHi {
			a.ntpScale = ScaleClampHi
		}
	}

	a.hostTS = a.hostTS[:0]
	a.mcuTS = a.mcuTS[:0]
	a.ntpAdjustCount++

	if videoPtr := a.video.Load(); videoPtr != nil && *videoPtr != nil {
		video := *videoPtr
		a.offsetAccum += float64(int64(lastAlignedNS) - int64(video.LastFrameTimestampNS()))
		a.offsetAccumN++
		if a.offsetAccumN >= OffsetSamples {
			a.syncOffsetNS.Add(int64(math.Round(a.offsetAccum / float64(a.offsetAccumN))))
			a.offsetAccum = 0
			a.offsetAccumN = 0
		}
	}
}

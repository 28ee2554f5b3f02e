// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package clocksync

import "testing"

// fakeClock advances by a fixed step every call, so drift scenarios are
// reproducible without wall-clock sleeps.
type fakeClock struct{ t uint64 }

func (c *fakeClock) now() uint64 {
	v := c.t
	c.t += 1_000_000 // 1ms host ticks between calls, unless overridden by the test
	return v
}

func TestBootstrapWaitsForValidSample(t *testing.T) {
	clock := &fakeClock{}
	a := New(clock.now)

	_, bootstrap, ready := a.Update(0, true, 0, 1, 1)
	if ready {
		t.Fatalf("expected ready=false while imuNotValid on first sample")
	}
	if bootstrap {
		t.Fatalf("expected bootstrap=false when not ready")
	}

	_, bootstrap, ready = a.Update(100, false, 0, 2, 1)
	if !ready || !bootstrap {
		t.Fatalf("expected first valid sample to bootstrap: ready=%v bootstrap=%v", ready, bootstrap)
	}
}

func TestUpdateBelowWindowLeavesScaleUnchanged(t *testing.T) {
	clock := &fakeClock{}
	a := New(clock.now)
	a.Update(0, false, 0, 1, 1)

	for i := 0; i < DriftWindow-1; i++ {
		a.Update(uint64(i+1)*1_000_000, false, 1, uint32(i+2), 1)
	}
	if a.NTPScale() != 1.0 {
		t.Fatalf("ntp_scale drifted before window filled: got %v", a.NTPScale())
	}
}

func TestDriftScaleClampedHigh(t *testing.T) {
	// Host ticks advance 2x faster than MCU ticks between sync edges, so
	// the raw ratio (2.0) must clamp to ScaleClampHi.
	hostT := uint64(0)
	mcuT := uint64(0)
	now := func() uint64 { v := hostT; hostT += 2_000_000; return v }

	a := New(now)
	a.Update(mcuT, false, 0, 1, 1)
	mcuT += 1_000_000

	for i := 0; i < DriftWindow; i++ {
		frameSyncCount := uint32(i + 2)
		a.Update(mcuT, false, 1, frameSyncCount, 1)
		mcuT += 1_000_000
	}

	if a.NTPScale() != ScaleClampHi {
		t.Fatalf("ntp_scale not clamped to %v: got %v", ScaleClampHi, a.NTPScale())
	}
	if a.NTPScale() < ScaleClampLo || a.NTPScale() > ScaleClampHi {
		t.Fatalf("ntp_scale outside [%v,%v]: got %v", ScaleClampLo, ScaleClampHi, a.NTPScale())
	}
}

func TestSyncOffsetNotFoldedAfterOneDriftUpdate(t *testing.T) {
	clock := &fakeClock{}
	a := New(clock.now)
	a.Update(0, false, 0, 1, 1)

	fv := fakeVideo{ts: 0}
	a.EnableSync(&fv, 0)

	mcuT := uint64(1_000_000)
	for i := 0; i < DriftWindow; i++ {
		a.Update(mcuT, false, 1, uint32(i+2), 1)
		mcuT += 1_000_000
	}

	// Offset folding only fires every OffsetSamples drift updates; one
	// window fill is one drift update, so after a single window the
	// offset accumulator has 1 sample and sync offset is unchanged.
	if a.SyncOffsetNS() != 0 {
		t.Fatalf("expected no offset fold yet, got %d", a.SyncOffsetNS())
	}
}

type fakeVideo struct{ ts uint64 }

func (f *fakeVideo) LastFrameTimestampNS() uint64 { return f.ts }

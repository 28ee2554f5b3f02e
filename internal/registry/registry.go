// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package registry holds the latest sample of each sensor modality and
// hands it off to consumers with a bounded wait. Each modality is an
// independent single-slot cell — spec.md §9 explicitly warns against a
// single global lock, since modalities publish at different rates and
// must not contend with one another.
package registry

import (
	"sync"
	"time"
)

// Cell is a single-slot "newest value" store with a fresh flag,
// guarded by its own mutex and condition variable (spec.md §4.4).
type Cell[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	value   T
	fresh   bool
	version uint64 // bumped on every Publish; Poll does not read it
}

// NewCell returns a ready-to-use cell.
func NewCell[T any]() *Cell[T] {
	c := &Cell[T]{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Publish overwrites the payload, marks it fresh, and wakes any
// waiters. Publishing to one cell never touches another cell's fresh
// flag (spec.md §8).
func (c *Cell[T]) Publish(v T) {
	c.mu.Lock()
	c.value = v
	c.fresh = true
	c.version++
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Poll waits up to timeout for a fresh value. It clears the fresh flag
// on success, so the same physical record is never returned twice
// (spec.md §8 idempotence). A timeout <= 0 polls once without waiting.
func (c *Cell[T]) Poll(timeout time.Duration) (T, bool) {
	deadline := time.Now().Add(timeout)

	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if c.fresh {
			c.fresh = false
			return c.value, true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			var zero T
			return zero, false
		}
		c.waitFor(remaining)
	}
}

// waitFor blocks on the condition variable for at most d, using a timer
// goroutine to force a wakeup — sync.Cond has no native timed wait.
func (c *Cell[T]) waitFor(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		c.cond.Broadcast()
	})
	defer timer.Stop()
	c.cond.Wait()
}

// Registry holds the four independent modality cells (spec.md §3/§4.4).
type Registry struct {
	IMU     *Cell[IMUSample]
	Mag     *Cell[MagSample]
	Env     *Cell[EnvSample]
	CamTemp *Cell[CamTempSample]
}

// New returns a Registry with all cells initialized to not-fresh.
func New() *Registry {
	return &Registry{
		IMU:     NewCell[IMUSample](),
		Mag:     NewCell[MagSample](),
		Env:     NewCell[EnvSample](),
		CamTemp: NewCell[CamTempSample](),
	}
}

// Vec3 is a simple 3-axis vector, reused across modalities.
type Vec3 struct {
	X, Y, Z float64
}

// IMUSample is published for every acquired record (spec.md §3).
type IMUSample struct {
	TimestampNS uint64
	Valid       bool
	Sync        bool
	Accel       Vec3 // m/s^2
	Gyro        Vec3 // deg/s
	TempC       float64
}

// MagSample is published only when mag_valid == NEW.
type MagSample struct {
	TimestampNS uint64
	Valid       bool
	Field       Vec3 // uT
}

// EnvSample is published only when env_valid == NEW.
type EnvSample struct {
	TimestampNS uint64
	Valid       bool
	TempC       float64
	PressureHPa float64
	HumidityPct float64
}

// CamTempSample is published alongside a NEW environmental sample when
// neither sentinel is present.
type CamTempSample struct {
	TimestampNS uint64
	Valid       bool
	LeftC       float64
	RightC      float64
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package registry

import (
	"testing"
	"time"
)

func TestPollTimesOutWithoutPublish(t *testing.T) {
	c := NewCell[int]()
	_, ok := c.Poll(10 * time.Millisecond)
	if ok {
		t.Fatalf("expected timeout, got a value")
	}
}

func TestPollReturnsPublishedValueOnce(t *testing.T) {
	c := NewCell[int]()
	c.Publish(7)

	v, ok := c.Poll(time.Second)
	if !ok || v != 7 {
		t.Fatalf("Poll = (%d,%v), want (7,true)", v, ok)
	}

	_, ok = c.Poll(10 * time.Millisecond)
	if ok {
		t.Fatalf("expected second Poll to see no fresh value")
	}
}

func TestPollWakesOnLatePublish(t *testing.T) {
	c := NewCell[int]()
	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Publish(42)
	}()

	start := time.Now()
	v, ok := c.Poll(time.Second)
	elapsed := time.Since(start)

	if !ok || v != 42 {
		t.Fatalf("Poll = (%d,%v), want (42,true)", v, ok)
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("Poll took too long to wake: %v", elapsed)
	}
}

func TestModalitiesAreIndependent(t *testing.T) {
	r := New()
	r.IMU.Publish(IMUSample{TimestampNS: 1})

	if _, ok := r.Mag.Poll(5 * time.Millisecond); ok {
		t.Fatalf("publishing IMU must not mark Mag fresh")
	}
	if _, ok := r.Env.Poll(5 * time.Millisecond); ok {
		t.Fatalf("publishing IMU must not mark Env fresh")
	}

	v, ok := r.IMU.Poll(time.Second)
	if !ok || v.TimestampNS != 1 {
		t.Fatalf("IMU cell should still carry its own published value")
	}
}

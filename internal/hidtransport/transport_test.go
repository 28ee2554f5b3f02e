// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hidtransport

import (
	"errors"
	"testing"
	"time"
)

// fakeDevice is a scripted rawDevice for exercising Transport without a
// real HID handle attached.
type fakeDevice struct {
	featureSent    [][]byte
	featureGetResp []byte
	featureGetErr  error
	readResp       []byte
	readErr        error
	nonblockCalls  []bool
	closed         bool
}

func (f *fakeDevice) SendFeatureReport(data []byte) (int, error) {
	cp := append([]byte(nil), data...)
	f.featureSent = append(f.featureSent, cp)
	return len(data), nil
}

func (f *fakeDevice) GetFeatureReport(data []byte) (int, error) {
	if f.featureGetErr != nil {
		return 0, f.featureGetErr
	}
	n := copy(data, f.featureGetResp)
	return n, nil
}

func (f *fakeDevice) ReadWithTimeout(data []byte, timeout time.Duration) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	n := copy(data, f.readResp)
	return n, nil
}

func (f *fakeDevice) SetNonblock(nonblock bool) error {
	f.nonblockCalls = append(f.nonblockCalls, nonblock)
	return nil
}

func (f *fakeDevice) Close() error {
	f.closed = true
	return nil
}

func TestEnableStreamSendsFeatureReport(t *testing.T) {
	dev := &fakeDevice{}
	tr := newForTesting(dev)

	if err := tr.EnableStream(true); err != nil {
		t.Fatalf("EnableStream: %v", err)
	}
	if len(dev.featureSent) != 1 {
		t.Fatalf("expected one feature report sent, got %d", len(dev.featureSent))
	}
	if got := dev.featureSent[0]; got[0] != 0x02 || got[1] != 1 {
		t.Fatalf("unexpected feature report: %v", got)
	}
}

func TestStreamStatusRejectsShortReport(t *testing.T) {
	dev := &fakeDevice{featureGetResp: []byte{0x02}}
	tr := newForTesting(dev)

	_, err := tr.StreamStatus()
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestStreamStatusDecodesEnabled(t *testing.T) {
	dev := &fakeDevice{featureGetResp: []byte{0x02, 1}}
	tr := newForTesting(dev)

	enabled, err := tr.StreamStatus()
	if err != nil {
		t.Fatalf("StreamStatus: %v", err)
	}
	if !enabled {
		t.Fatalf("expected enabled=true")
	}
}

func TestPingSendsLivenessReport(t *testing.T) {
	dev := &fakeDevice{}
	tr := newForTesting(dev)

	if err := tr.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if len(dev.featureSent) != 1 || dev.featureSent[0][0] != 0x21 || dev.featureSent[0][1] != 0xF2 {
		t.Fatalf("unexpected ping report: %v", dev.featureSent)
	}
}

func TestCloseDelegatesToDevice(t *testing.T) {
	dev := &fakeDevice{}
	tr := newForTesting(dev)

	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !dev.closed {
		t.Fatalf("expected underlying device to be closed")
	}
}

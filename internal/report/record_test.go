// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package report

import (
	"errors"
	"testing"
)

func sampleRecord() RawRecord {
	return RawRecord{
		FrameSync:        1,
		FrameSyncCount:   42,
		IMUNotValid:      0,
		Timestamp:        1_000_000,
		GX:               100, GY: -200, GZ: 300,
		AX: -1000, AY: 2000, AZ: -3000,
		IMUTemp:          2500,
		MagValid:         MagNew,
		MX: 10, MY: -20, MZ: 30,
		EnvValid:         EnvNew,
		Temp:             2200,
		Press:            10132,
		Humid:            4500,
		TempCamLeft:      3000,
		TempCamRight:     3100,
		SyncCapabilities: 1,
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	want := sampleRecord()
	buf := Encode(want)
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestDecodeBadID(t *testing.T) {
	buf := Encode(sampleRecord())
	buf[0] = 0x99
	_, err := Decode(buf)
	if !errors.Is(err, ErrBadID) {
		t.Fatalf("expected ErrBadID, got %v", err)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	buf := Encode(sampleRecord())
	_, err := Decode(buf[:RecordSize-1])
	if !errors.Is(err, ErrShort) {
		t.Fatalf("expected ErrShort, got %v", err)
	}
}

func TestTimestampNS(t *testing.T) {
	got := TimestampNS(1_000_000)
	want := uint64(39_062_500) // 1_000_000 * 39.0625, rounded
	if got != want {
		t.Fatalf("TimestampNS(1_000_000) = %d, want %d", got, want)
	}
}

func TestPressureHumidityScaleFirmwareGate(t *testing.T) {
	cases := []struct {
		major, minor byte
		wantPress    float64
		wantHumid    float64
	}{
		{3, 8, PressScaleOld, HumidScaleOld},
		{3, 9, PressScaleNew, HumidScaleNew},
		{3, 10, PressScaleNew, HumidScaleNew},
		{4, 0, PressScaleNew, HumidScaleNew},
		{2, 99, PressScaleOld, HumidScaleOld},
	}
	for _, c := range cases {
		if got := PressureScale(c.major, c.minor); got != c.wantPress {
			t.Errorf("PressureScale(%d,%d) = %v, want %v", c.major, c.minor, got, c.wantPress)
		}
		if got := HumidityScale(c.major, c.minor); got != c.wantHumid {
			t.Errorf("HumidityScale(%d,%d) = %v, want %v", c.major, c.minor, got, c.wantHumid)
		}
	}
}

func TestTempNotValidSentinel(t *testing.T) {
	r := sampleRecord()
	r.TempCamLeft = TempNotValid
	buf := Encode(r)
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.TempCamLeft != TempNotValid {
		t.Fatalf("TempCamLeft = %d, want sentinel %d", got.TempCamLeft, TempNotValid)
	}
}

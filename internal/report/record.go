// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package report decodes the 64-byte HID sensor report into a typed
// record and applies the device's fixed-point scaling. It never knows
// about HID transport or clock alignment — it only turns bytes into
// numbers.
package report

import (
	"encoding/binary"
	"errors"
	"math"
)

// Report and feature-report IDs (spec.md §6).
const (
	StreamStatusReportID = 0x02
	SensorDataReportID   = 0x05
	RequestSetReportID   = 0x21
	PingCommand          = 0xF2
)

// RecordSize is sizeof(SensorRecord) on the wire, in bytes (the report ID
// is byte 0 of the record itself; the device pads the remainder of the
// 64-byte HID report with unused bytes).
const RecordSize = 44

// Mag/env validity codes (spec.md §3).
const (
	MagOld     = 0
	MagNew     = 1
	MagInvalid = 2

	EnvOld = 0
	EnvNew = 1
)

// TempNotValid is the sentinel for an absent camera-die temperature.
const TempNotValid = 0x7FFF

// Fixed-point scaling constants (spec.md §6).
const (
	TSScale   = 39.0625                  // ns per MCU tick
	AccScale  = 0.000244140625 * 9.80665 // +-8g over 16 bits, converted to m/s^2 per LSB
	GyroScale = 0.007629394              // deg/s per LSB (~250dps/16-bit-LSB)
	MagScale  = 0.15                     // uT per LSB
	TempScale = 0.01                     // degC per LSB

	PressScaleOld = 0.01  // hPa per LSB, firmware < 3.9
	PressScaleNew = 0.001 // hPa per LSB, firmware >= 3.9
	HumidScaleOld = 0.01  // %RH per LSB, firmware < 3.9
	HumidScaleNew = 0.001 // %RH per LSB, firmware >= 3.9
)

// ErrBadID is returned when the buffer's first byte isn't
// SensorDataReportID.
var ErrBadID = errors.New("report: unexpected report id")

// ErrShort is returned when the buffer is shorter than RecordSize.
var ErrShort = errors.New("report: buffer shorter than a sensor record")

// RawRecord is the decoded, unscaled on-wire sensor record (spec.md §3).
type RawRecord struct {
	FrameSync      uint8
	FrameSyncCount uint32
	IMUNotValid    uint8
	Timestamp      uint32 // MCU ticks

	GX, GY, GZ int16 // gyro
	AX, AY, AZ int16 // accel
	IMUTemp    int16

	MagValid   uint8
	MX, MY, MZ int16

	EnvValid uint8
	Temp     int16
	Press    int16
	Humid    int16

	TempCamLeft  int16
	TempCamRight int16

	SyncCapabilities uint8
}

// Decode parses buf into a RawRecord. It requires buf[0] ==
// SensorDataReportID and len(buf) >= RecordSize.
func Decode(buf []byte) (RawRecord, error) {
	if len(buf) < 1 {
		return RawRecord{}, ErrShort
	}
	if buf[0] != SensorDataReportID {
		return RawRecord{}, ErrBadID
	}
	if len(buf) < RecordSize {
		return RawRecord{}, ErrShort
	}

	var r RawRecord
	// Offsets below are fixed by the on-wire layout documented in
	// spec.md §3: treat the buffer as an opaque byte slice and read by
	// offset rather than by struct overlay, per spec.md §9.
	r.FrameSync = buf[1]
	r.FrameSyncCount = binary.LittleEndian.Uint32(buf[2:6])
	r.IMUNotValid = buf[6]
	r.Timestamp = binary.LittleEndian.Uint32(buf[7:11])

	r.GX = int16(binary.LittleEndian.Uint16(buf[11:13]))
	r.GY = int16(binary.LittleEndian.Uint16(buf[13:15]))
	r.GZ = int16(binary.LittleEndian.Uint16(buf[15:17]))
	r.AX = int16(binary.LittleEndian.Uint16(buf[17:19]))
	r.AY = int16(binary.LittleEndian.Uint16(buf[19:21]))
	r.AZ = int16(binary.LittleEndian.Uint16(buf[21:23]))
	r.IMUTemp = int16(binary.LittleEndian.Uint16(buf[23:25]))

	r.MagValid = buf[25]
	r.MX = int16(binary.LittleEndian.Uint16(buf[26:28]))
	r.MY = int16(binary.LittleEndian.Uint16(buf[28:30]))
	r.MZ = int16(binary.LittleEndian.Uint16(buf[30:32]))

	r.EnvValid = buf[32]
	r.Temp = int16(binary.LittleEndian.Uint16(buf[33:35]))
	r.Press = int16(binary.LittleEndian.Uint16(buf[35:37]))
	r.Humid = int16(binary.LittleEndian.Uint16(buf[37:39]))

	r.TempCamLeft = int16(binary.LittleEndian.Uint16(buf[39:41]))
	r.TempCamRight = int16(binary.LittleEndian.Uint16(buf[41:43]))
	r.SyncCapabilities = buf[43]

	return r, nil
}

// Encode is the inverse of Decode, used by tests to exercise the
// round-trip law in spec.md §8. It writes a full 64-byte HID buffer.
func Encode(r RawRecord) []byte {
	buf := make([]byte, 64)
	buf[0] = SensorDataReportID
	buf[1] = r.FrameSync
	binary.LittleEndian.PutUint32(buf[2:6], r.FrameSyncCount)
	buf[6] = r.IMUNotValid
	binary.LittleEndian.PutUint32(buf[7:11], r.Timestamp)

	binary.LittleEndian.PutUint16(buf[11:13], uint16(r.GX))
	binary.LittleEndian.PutUint16(buf[13:15], uint16(r.GY))
	binary.LittleEndian.PutUint16(buf[15:17], uint16(r.GZ))
	binary.LittleEndian.PutUint16(buf[17:19], uint16(r.AX))
	binary.LittleEndian.PutUint16(buf[19:21], uint16(r.AY))
	binary.LittleEndian.PutUint16(buf[21:23], uint16(r.AZ))
	binary.LittleEndian.PutUint16(buf[23:25], uint16(r.IMUTemp))

	buf[25] = r.MagValid
	binary.LittleEndian.PutUint16(buf[26:28], uint16(r.MX))
	binary.LittleEndian.PutUint16(buf[28:30], uint16(r.MY))
	binary.LittleEndian.PutUint16(buf[30:32], uint16(r.MZ))

	buf[32] = r.EnvValid
	binary.LittleEndian.PutUint16(buf[33:35], uint16(r.Temp))
	binary.LittleEndian.PutUint16(buf[35:37], uint16(r.Press))
	binary.LittleEndian.PutUint16(buf[37:39], uint16(r.Humid))

	binary.LittleEndian.PutUint16(buf[39:41], uint16(r.TempCamLeft))
	binary.LittleEndian.PutUint16(buf[41:43], uint16(r.TempCamRight))
	buf[43] = r.SyncCapabilities

	return buf
}

// TimestampNS converts the raw MCU tick count to nanoseconds, widening to
// 64 bits before scaling so that a full 32-bit tick count (about 168 s)
// does not overflow. A wrap of the tick counter between samples is
// compensated by the clocksync aligner, not here (spec.md §4.3
// "Monotonicity").
func TimestampNS(ticks uint32) uint64 {
	return uint64(math.Round(float64(ticks) * TSScale))
}

// PressureScale and HumidityScale are selected by the firmware-version
// predicate in spec.md §4.2/§6: fw >= 3.9 uses the finer-grained scale.
func PressureScale(fwMajor, fwMinor byte) float64 {
	if fwGE39(fwMajor, fwMinor) {
		return PressScaleNew
	}
	return PressScaleOld
}

func HumidityScale(fwMajor, fwMinor byte) float64 {
	if fwGE39(fwMajor, fwMinor) {
		return HumidScaleNew
	}
	return HumidScaleOld
}

func fwGE39(major, minor byte) bool {
	if major != 3 {
		return major > 3
	}
	return minor >= 9
}

// Scaled returns the gyro/accel/mag/temp values converted to physical
// units. Pressure/humidity need the firmware version, so they're
// converted separately by the caller via PressureScale/HumidityScale.
type Scaled struct {
	GX, GY, GZ float64 // deg/s
	AX, AY, AZ float64 // m/s^2
	IMUTemp    float64 // degC
	MX, MY, MZ float64 // uT
}

func (r RawRecord) Scale() Scaled {
	return Scaled{
		GX:      float64(r.GX) * GyroScale,
		GY:      float64(r.GY) * GyroScale,
		GZ:      float64(r.GZ) * GyroScale,
		AX:      float64(r.AX) * AccScale,
		AY:      float64(r.AY) * AccScale,
		AZ:      float64(r.AZ) * AccScale,
		IMUTemp: float64(r.IMUTemp) * TempScale,
		MX:      float64(r.MX) * MagScale,
		MY:      float64(r.MY) * MagScale,
		MZ:      float64(r.MZ) * MagScale,
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hidtransport opens a Stereolabs-vendor HID device by serial
// number, and exposes exactly the capabilities the acquisition loop
// needs: feature-report send/get, a timed interrupt read, a
// non-blocking toggle, and close. Grounded on the only HID-speaking
// code in the retrieved pack (other_examples/*HappyZ-xreal-xr-go*),
// which uses the same github.com/sstallion/go-hid library.
package hidtransport

import (
	"fmt"
	"time"

	hid "github.com/sstallion/go-hid"
)

// SLUSBVendor is the USB vendor ID used for enumeration (spec.md §6).
const SLUSBVendor = 0x2b03 // Stereolabs

// DeviceIdentity is populated by Enumerate (spec.md §3 "Device identity").
type DeviceIdentity struct {
	Serial          string
	ProductID       uint16
	FirmwareVersion uint16 // high byte = major, low byte = minor
}

func (d DeviceIdentity) FirmwareMajorMinor() (byte, byte) {
	return byte(d.FirmwareVersion >> 8), byte(d.FirmwareVersion & 0xFF)
}

// rawDevice is the subset of *hid.Device the transport depends on. It
// exists so acquisition/facade tests can substitute a fake without a
// real HID device attached.
type rawDevice interface {
	SendFeatureReport(data []byte) (int, error)
	GetFeatureReport(data []byte) (int, error)
	ReadWithTimeout(data []byte, timeout time.Duration) (int, error)
	SetNonblock(nonblock bool) error
	Close() error
}

// Transport owns one open HID handle for the lifetime between Open and
// Close (spec.md §5 "HID handle: exclusively owned by the acquisition
// worker after init").
type Transport struct {
	dev rawDevice
}

// Enumerate lists devices by serial under SLUSBVendor (spec.md §4.6).
func Enumerate() (map[string]DeviceIdentity, error) {
	out := make(map[string]DeviceIdentity)
	const anyProductID = 0x0 // hid.Enumerate treats 0 as "match any"
	err := hid.Enumerate(SLUSBVendor, anyProductID, func(info *hid.DeviceInfo) error {
		out[info.SerialNbr] = DeviceIdentity{
			Serial:          info.SerialNbr,
			ProductID:       info.ProductID,
			FirmwareVersion: info.ReleaseNbr,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnumeration, err)
	}
	if len(out) == 0 {
		return out, ErrEnumeration
	}
	return out, nil
}

// Open opens the device with the given serial. An empty serial opens
// one of the enumerated devices; when several are attached, which one
// is not defined (the choice ranges over a map).
func Open(serial string) (*Transport, DeviceIdentity, error) {
	devices, err := Enumerate()
	if err != nil {
		return nil, DeviceIdentity{}, err
	}

	var id DeviceIdentity
	if serial == "" {
		for _, v := range devices {
			id = v
			serial = v.Serial
			break
		}
	} else {
		var ok bool
		id, ok = devices[serial]
		if !ok {
			return nil, DeviceIdentity{}, fmt.Errorf("%w: serial %q", ErrOpen, serial)
		}
	}

	dev, err := hid.Open(SLUSBVendor, id.ProductID, serial)
	if err != nil {
		return nil, DeviceIdentity{}, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	return &Transport{dev: dev}, id, nil
}

// newForTesting lets tests build a Transport over a fake rawDevice.
func newForTesting(dev rawDevice) *Transport {
	return &Transport{dev: dev}
}

// EnableStream toggles the sensor stream via feature report 0x02
// (spec.md §4.1). Failures are warnings, not fatal — the caller logs
// and continues per spec.md §7.
func (t *Transport) EnableStream(enable bool) error {
	var v byte
	if enable {
		v = 1
	}
	buf := []byte{0x02, v}
	if _, err := t.dev.SendFeatureReport(buf); err != nil {
		return fmt.Errorf("%w: enable stream: %v", ErrTransport, err)
	}
	return nil
}

// StreamStatus queries stream status via a feature-report get on ID
// 0x02 (spec.md §4.1).
func (t *Transport) StreamStatus() (enabled bool, err error) {
	buf := make([]byte, 2)
	buf[0] = 0x02
	n, err := t.dev.GetFeatureReport(buf)
	if err != nil {
		return false, fmt.Errorf("%w: stream status: %v", ErrTransport, err)
	}
	if n < 2 || buf[0] != 0x02 {
		return false, fmt.Errorf("%w: stream status: short or mismatched report", ErrProtocol)
	}
	return buf[1] != 0, nil
}

// Ping sends the liveness feature report 0x21/0xF2 (spec.md §4.1).
func (t *Transport) Ping() error {
	buf := []byte{0x21, 0xF2}
	if _, err := t.dev.SendFeatureReport(buf); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrTransport, err)
	}
	return nil
}

// ReadSample reads one interrupt report with the given timeout,
// returning the number of bytes read (0 on timeout, as documented in
// spec.md §4.1).
func (t *Transport) ReadSample(buf []byte, timeout time.Duration) (int, error) {
	n, err := t.dev.ReadWithTimeout(buf, timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: read sample: %v", ErrProtocol, err)
	}
	return n, nil
}

// SetBlocking switches the handle to blocking mode, used as recovery
// after a protocol error (spec.md §4.1 error policy).
func (t *Transport) SetBlocking() error {
	if err := t.dev.SetNonblock(false); err != nil {
		return fmt.Errorf("%w: set blocking: %v", ErrTransport, err)
	}
	return nil
}

// Close releases the HID handle. Safe to call once; callers should not
// call it twice (the facade's Reset guards idempotence at a higher
// level).
func (t *Transport) Close() error {
	return t.dev.Close()
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hidtransport

import "errors"

// Sentinel error kinds, spec.md §7. Open/Enumeration errors are
// surfaced to the caller; Transport/Protocol errors are recovered
// locally by the acquisition loop and only ever logged.
var (
	ErrEnumeration = errors.New("hidtransport: no devices found")
	ErrOpen        = errors.New("hidtransport: device not found or busy")
	ErrTransport   = errors.New("hidtransport: feature report send/get failed")
	ErrProtocol    = errors.New("hidtransport: unexpected report id or short read")
)

package ble

import (
	"time"

	"github.com/google/uuid"
)

// DiscoveredDevice holds a snapshot of one scan result.
type DiscoveredDevice struct {
	// Address holds the Bluetooth device address.
	Address MacAddress `json:"address,omitempty" doc:"The Bluetooth device address."`

	// Name holds the advertised device name, if any.
	Name string `json:"name,omitempty" doc:"The advertised device name."`

	// RSSI indicates the signal strength of the advertisement.
	RSSI int16 `json:"rssi,omitempty" doc:"The signal strength of the advertisement."`

	// ServiceUUIDs holds the advertised service UUIDs.
	ServiceUUIDs []uuid.UUID `json:"service_uuids,omitempty" doc:"The advertised service UUIDs."`
}

// ScanFilter describes one discovery filter entry. The central passes
// filters through to the driver unmodified.
type ScanFilter struct {
	// Address matches a specific device address when non-nil.
	Address MacAddress

	// Name matches the advertised device name when non-empty.
	Name string

	// ServiceUUID matches an advertised service when non-nil.
	ServiceUUID uuid.UUID
}

// ScanSettings describes driver-specific discovery settings. The central
// passes settings through to the driver unmodified.
type ScanSettings struct {
	// Interval holds the requested scan interval.
	Interval time.Duration

	// Window holds the requested scan window within each interval.
	Window time.Duration

	// FilterDuplicates requests that repeated advertisements from the
	// same device are reported once.
	FilterDuplicates bool
}

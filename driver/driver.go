// Package driver defines the boundary between the central and the
// platform radio/adapter implementation. Drivers report the outcome of
// every accepted operation asynchronously through the event interfaces,
// and may do so from any goroutine.
package driver

import (
	ac "github.com/bluetuith-org/bluetooth-le/api/appfeatures"
	"github.com/bluetuith-org/bluetooth-le/api/ble"
)

// Status is an adapter status code. Zero is success; all other values
// are adapter-specific errors carried through to failure events.
type Status int32

// The adapter status codes the central interprets itself.
const (
	// StatusSuccess reports a completed operation.
	StatusSuccess Status = 0

	// StatusMtuUnchanged reports that the requested ATT payload size was
	// already in effect. The central treats it as success during
	// transfer-size negotiation.
	StatusMtuUnchanged Status = 4

	// StatusLinkError reports a transport-level link loss during an
	// active or pending connection, distinct from a clean disconnect.
	StatusLinkError Status = 133
)

// State is a connection state reported by a state-change event.
type State int32

// The different connection states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDisconnecting

	// StateLinkLost is reported by some adapters in place of a
	// disconnected state when the link was lost.
	StateLinkLost State = 133
)

// Driver describes a platform radio implementation.
type Driver interface {
	// Enabled returns if the radio adapter is powered on.
	Enabled() bool

	// Features returns the capabilities of the driver, resolved once
	// at startup.
	Features() ac.Features

	// StartScan starts device discovery. Discovery outcomes arrive
	// through the provided events interface.
	StartScan(filters []ble.ScanFilter, settings *ble.ScanSettings, events ScanEvents)

	// StopScan stops device discovery.
	StopScan()

	// Connect starts a connection attempt and returns its session handle.
	// A nil handle means the attempt was rejected synchronously; otherwise
	// all outcomes arrive through the provided events interface.
	Connect(address ble.MacAddress, events SessionEvents) Session
}

// Session describes the driver side of one connection attempt. The bool
// results report whether the operation was accepted for asynchronous
// processing; the actual outcome always arrives through SessionEvents.
type Session interface {
	// DiscoverServices starts attribute discovery.
	DiscoverServices()

	// RequestTransferSize requests an ATT payload size.
	RequestTransferSize(size int)

	// ReadCharacteristic requests a characteristic read.
	ReadCharacteristic(char ble.Characteristic) bool

	// WriteCharacteristic requests a characteristic write.
	WriteCharacteristic(char ble.Characteristic, data []byte) bool

	// SetNotify toggles local notification routing for a characteristic.
	SetNotify(char ble.Characteristic, enable bool) bool

	// WriteDescriptor requests a descriptor write.
	WriteDescriptor(desc ble.Descriptor) bool

	// ReadRssi requests a signal strength read.
	ReadRssi() bool

	// RequestPriority requests a connection parameter profile.
	RequestPriority(priority ble.ConnectionPriority) bool

	// Disconnect requests connection teardown. The terminal state change
	// arrives through SessionEvents.
	Disconnect()

	// Close releases the session handle.
	Close()
}

// ScanEvents receives discovery outcomes.
type ScanEvents interface {
	// DeviceFound reports one discovered device.
	DeviceFound(device ble.DiscoveredDevice)

	// BatchDevicesFound reports a batch of discovered devices.
	BatchDevicesFound(devices []ble.DiscoveredDevice)

	// ScanFailed reports a discovery failure.
	ScanFailed(code Status)
}

// SessionEvents receives the outcomes of one connection attempt.
type SessionEvents interface {
	// ConnectionStateChanged reports a connection state transition.
	// The session handle must be usable when a connected state is
	// reported with a success status.
	ConnectionStateChanged(s Session, status Status, state State)

	// ServicesDiscovered reports the outcome of attribute discovery.
	ServicesDiscovered(services []ble.Service, status Status)

	// TransferSizeChanged reports the outcome of an ATT payload size
	// request, or a size change initiated by the remote device.
	TransferSizeChanged(size int, status Status)

	// CharacteristicRead reports the outcome of a characteristic read.
	CharacteristicRead(char ble.Characteristic, data []byte, status Status)

	// CharacteristicWritten reports the outcome of a characteristic write.
	CharacteristicWritten(char ble.Characteristic, status Status)

	// CharacteristicChanged reports a notification or indication payload.
	CharacteristicChanged(char ble.Characteristic, data []byte)

	// DescriptorWritten reports the outcome of a descriptor write.
	DescriptorWritten(desc ble.Descriptor, status Status)

	// ReliableWriteCompleted reports the outcome of a reliable-write batch.
	ReliableWriteCompleted(status Status)

	// RssiRead reports the outcome of a signal strength read.
	RssiRead(rssi int16, status Status)

	// IntervalUpdated reports a connection interval update.
	IntervalUpdated(interval int, status Status)
}

package ble

import (
	ac "github.com/bluetuith-org/bluetooth-le/api/appfeatures"
	"github.com/bluetuith-org/bluetooth-le/api/config"
)

// Central describes a BLE central-role connection manager. All operations
// are asynchronous: outcomes are delivered through the subscriber and
// listener callbacks, never returned from the calling path.
type Central interface {
	// Start resolves the driver's capabilities and starts the central's
	// dispatch loop.
	Start(cfg config.Configuration) (*ac.FeatureSet, error)

	// Stop stops the dispatch loop and tears down all sessions.
	Stop() error

	// StartScan starts device discovery and registers the subscriber as
	// the sole receiver of scan results. If exactly one of filters and
	// settings is provided, both are discarded and an unfiltered scan is
	// started.
	StartScan(filters []ScanFilter, settings *ScanSettings, subscriber ScanSubscriber)

	// StopScan stops device discovery.
	StopScan()

	// IsScanning returns if a scan is active.
	IsScanning() bool

	// Connect starts a connection attempt to the given device address and
	// returns the connection handle under which all further events for the
	// device are delivered.
	Connect(address MacAddress, subscriber ConnectSubscriber) Connection

	// Disconnect requests the teardown of a connection. The terminal
	// OnDisconnected event arrives asynchronously.
	Disconnect(conn Connection)

	// AddListener registers a listener for the connection's events.
	// Adds are additive: registering the same listener twice delivers
	// events twice.
	AddListener(conn Connection, listener CommunicationListener)

	// RemoveListener unregisters a previously added listener. Removing a
	// listener that is not registered is a no-op.
	RemoveListener(conn Connection, listener CommunicationListener)

	// Read requests a characteristic read.
	Read(conn Connection, char Characteristic)

	// Write requests a characteristic write.
	Write(conn Connection, char Characteristic, data []byte)

	// SetNotification toggles notification delivery for a characteristic.
	SetNotification(conn Connection, char Characteristic, enable bool)

	// ReadRssi requests a signal strength read.
	ReadRssi(conn Connection)

	// RequestConnectionPriority requests a connection parameter profile.
	// Exactly one OnIntervalUpdated event follows per call, synthesized
	// if the driver cannot observe interval updates.
	RequestConnectionPriority(conn Connection, priority ConnectionPriority)
}

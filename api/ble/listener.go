package ble

// ScanSubscriber receives discovery results while it is the active scan
// subscriber.
type ScanSubscriber interface {
	// OnDiscover reports one discovered device.
	OnDiscover(device DiscoveredDevice)

	// OnScanFailure reports a scan failure.
	OnScanFailure(failure Failure)
}

// ConnectSubscriber receives the outcome of one Connect call.
type ConnectSubscriber interface {
	// OnConnected reports a completed handshake, together with the
	// discovered attribute set.
	OnConnected(conn Connection, services []Service)

	// OnConnectFailure reports a failed connect attempt or handshake step.
	OnConnectFailure(failure Failure)
}

// CommunicationListener receives the traffic and lifecycle events of one
// connection. Listeners are called in registration order. Embed
// EmptyListener to implement only the events of interest.
type CommunicationListener interface {
	// OnCharacteristicRead reports a completed characteristic read.
	OnCharacteristicRead(char Characteristic, data []byte)

	// OnCharacteristicChanged reports a notification or indication payload.
	OnCharacteristicChanged(char Characteristic, data []byte)

	// OnCharacteristicWritten reports a completed characteristic write.
	OnCharacteristicWritten(char Characteristic)

	// OnReliableWriteCompleted reports a completed reliable-write batch.
	OnReliableWriteCompleted()

	// OnNotificationStateChanged reports a completed notification toggle.
	OnNotificationStateChanged(char Characteristic)

	// OnTransferSizeChanged reports an ATT payload size change outside
	// the connect handshake.
	OnTransferSizeChanged(size int)

	// OnRssiRead reports a completed signal strength read.
	OnRssiRead(rssi int16)

	// OnIntervalUpdated reports a connection interval update. The interval
	// is IntervalUnknown when the update signal was synthesized.
	OnIntervalUpdated(interval int)

	// OnDisconnected reports the terminal teardown of the connection.
	OnDisconnected(conn Connection, status int32)

	// OnFailure reports any failure associated with the connection.
	OnFailure(failure Failure)
}

// EmptyListener is a CommunicationListener whose every handler is a no-op.
type EmptyListener struct{}

// OnCharacteristicRead does not do anything.
func (EmptyListener) OnCharacteristicRead(Characteristic, []byte) {}

// OnCharacteristicChanged does not do anything.
func (EmptyListener) OnCharacteristicChanged(Characteristic, []byte) {}

// OnCharacteristicWritten does not do anything.
func (EmptyListener) OnCharacteristicWritten(Characteristic) {}

// OnReliableWriteCompleted does not do anything.
func (EmptyListener) OnReliableWriteCompleted() {}

// OnNotificationStateChanged does not do anything.
func (EmptyListener) OnNotificationStateChanged(Characteristic) {}

// OnTransferSizeChanged does not do anything.
func (EmptyListener) OnTransferSizeChanged(int) {}

// OnRssiRead does not do anything.
func (EmptyListener) OnRssiRead(int16) {}

// OnIntervalUpdated does not do anything.
func (EmptyListener) OnIntervalUpdated(int) {}

// OnDisconnected does not do anything.
func (EmptyListener) OnDisconnected(Connection, int32) {}

// OnFailure does not do anything.
func (EmptyListener) OnFailure(Failure) {}

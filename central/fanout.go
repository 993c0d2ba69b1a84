package central

import (
	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/bluetuith-org/bluetooth-le/driver"
)

// addListener appends a listener to the connection's registry entry.
// Adds are additive: duplicates deliver events once per registration.
func (c *Central) addListener(conn ble.Connection, listener ble.CommunicationListener) {
	if listener == nil {
		return
	}

	c.listeners[conn] = append(c.listeners[conn], listener)
}

// removeListener removes one registration of the listener, if present.
func (c *Central) removeListener(conn ble.Connection, listener ble.CommunicationListener) {
	registered := c.listeners[conn]

	for i, l := range registered {
		if l == listener {
			c.listeners[conn] = append(registered[:i:i], registered[i+1:]...)
			return
		}
	}
}

// fanout delivers one event to every listener of the connection, in
// registration order.
func (c *Central) fanout(conn ble.Connection, deliver func(ble.CommunicationListener)) {
	for _, l := range c.listeners[conn] {
		deliver(l)
	}
}

// fanoutFailure delivers a failure to the connection's listeners and
// publishes it on the global event stream.
func (c *Central) fanoutFailure(conn ble.Connection, failure ble.Failure) {
	c.log.Debugf("failure on %s: %s", conn, failure)

	c.fanout(conn, func(l ble.CommunicationListener) { l.OnFailure(failure) })
	ble.ErrorEvents().Publish(ble.EventActionAdded, failure)
}

func (c *Central) characteristicRead(conn ble.Connection, char ble.Characteristic, data []byte, status driver.Status) {
	if !c.sessionLive(conn) {
		return
	}

	if status != driver.StatusSuccess {
		c.fanoutFailure(conn, ble.SystemFailure(ble.KindRead, int32(status)))
		return
	}

	if data == nil {
		c.fanoutFailure(conn, ble.IntegrityFailure("characteristic read completed without a payload"))
		return
	}

	c.log.Tracef("read: %s -> %s", char.UUID, c.payload(data))
	c.fanout(conn, func(l ble.CommunicationListener) { l.OnCharacteristicRead(char, data) })
}

func (c *Central) characteristicWritten(conn ble.Connection, char ble.Characteristic, status driver.Status) {
	if !c.sessionLive(conn) {
		return
	}

	if status != driver.StatusSuccess {
		c.fanoutFailure(conn, ble.SystemFailure(ble.KindWrite, int32(status)))
		return
	}

	c.fanout(conn, func(l ble.CommunicationListener) { l.OnCharacteristicWritten(char) })
}

func (c *Central) characteristicChanged(conn ble.Connection, char ble.Characteristic, data []byte) {
	if !c.sessionLive(conn) {
		return
	}

	if data == nil {
		c.fanoutFailure(conn, ble.IntegrityFailure("characteristic change notified without a payload"))
		return
	}

	c.log.Tracef("changed: %s -> %s", char.UUID, c.payload(data))
	c.fanout(conn, func(l ble.CommunicationListener) { l.OnCharacteristicChanged(char, data) })
}

func (c *Central) descriptorWritten(conn ble.Connection, desc ble.Descriptor, status driver.Status) {
	s, ok := c.sessions.Load(conn)
	if !ok {
		c.dropCallback(conn, "descriptor write")
		return
	}

	if status != driver.StatusSuccess {
		c.fanoutFailure(conn, ble.SystemFailure(ble.KindNotification, int32(status)))
		return
	}

	char, ok := s.findCharacteristic(desc.Characteristic)
	if !ok {
		char = ble.Characteristic{UUID: desc.Characteristic, Service: desc.Service}
	}

	c.fanout(conn, func(l ble.CommunicationListener) { l.OnNotificationStateChanged(char) })
}

func (c *Central) reliableWriteCompleted(conn ble.Connection, status driver.Status) {
	if !c.sessionLive(conn) {
		return
	}

	if status != driver.StatusSuccess {
		c.fanoutFailure(conn, ble.SystemFailure(ble.KindWrite, int32(status)))
		return
	}

	c.fanout(conn, func(l ble.CommunicationListener) { l.OnReliableWriteCompleted() })
}

func (c *Central) rssiRead(conn ble.Connection, rssi int16, status driver.Status) {
	if !c.sessionLive(conn) {
		return
	}

	if status != driver.StatusSuccess {
		c.fanoutFailure(conn, ble.SystemFailure(ble.KindRssi, int32(status)))
		return
	}

	c.fanout(conn, func(l ble.CommunicationListener) { l.OnRssiRead(rssi) })
}

func (c *Central) intervalUpdated(conn ble.Connection, interval int, status driver.Status) {
	if !c.sessionLive(conn) {
		return
	}

	if status != driver.StatusSuccess {
		c.fanoutFailure(conn, ble.SystemFailure(ble.KindBluetooth, int32(status)))
		return
	}

	c.fanout(conn, func(l ble.CommunicationListener) { l.OnIntervalUpdated(interval) })
}

// sessionLive reports whether callbacks for the connection may still be
// delivered. Stale callbacks for removed sessions are dropped.
func (c *Central) sessionLive(conn ble.Connection) bool {
	if _, ok := c.sessions.Load(conn); !ok {
		c.dropCallback(conn, "event")
		return false
	}

	return true
}

func (c *Central) dropCallback(conn ble.Connection, what string) {
	c.log.Debugf("dropped %s callback for unknown connection %s", what, conn)
}

// gattEvents funnels the driver callbacks of one connection attempt,
// which may arrive on any goroutine, through the dispatch loop. It holds
// no session state itself: every invocation resolves the session by its
// connection identity.
type gattEvents struct {
	c    *Central
	conn ble.Connection
}

var _ driver.SessionEvents = (*gattEvents)(nil)

func (e *gattEvents) ConnectionStateChanged(s driver.Session, status driver.Status, state driver.State) {
	e.c.do(func() { e.c.connectionStateChanged(e.conn, s, status, state) })
}

func (e *gattEvents) ServicesDiscovered(services []ble.Service, status driver.Status) {
	e.c.do(func() { e.c.servicesDiscovered(e.conn, services, status) })
}

func (e *gattEvents) TransferSizeChanged(size int, status driver.Status) {
	e.c.do(func() { e.c.transferSizeChanged(e.conn, size, status) })
}

func (e *gattEvents) CharacteristicRead(char ble.Characteristic, data []byte, status driver.Status) {
	e.c.do(func() { e.c.characteristicRead(e.conn, char, data, status) })
}

func (e *gattEvents) CharacteristicWritten(char ble.Characteristic, status driver.Status) {
	e.c.do(func() { e.c.characteristicWritten(e.conn, char, status) })
}

func (e *gattEvents) CharacteristicChanged(char ble.Characteristic, data []byte) {
	e.c.do(func() { e.c.characteristicChanged(e.conn, char, data) })
}

func (e *gattEvents) DescriptorWritten(desc ble.Descriptor, status driver.Status) {
	e.c.do(func() { e.c.descriptorWritten(e.conn, desc, status) })
}

func (e *gattEvents) ReliableWriteCompleted(status driver.Status) {
	e.c.do(func() { e.c.reliableWriteCompleted(e.conn, status) })
}

func (e *gattEvents) RssiRead(rssi int16, status driver.Status) {
	e.c.do(func() { e.c.rssiRead(e.conn, rssi, status) })
}

func (e *gattEvents) IntervalUpdated(interval int, status driver.Status) {
	e.c.do(func() { e.c.intervalUpdated(e.conn, interval, status) })
}

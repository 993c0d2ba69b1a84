package central

import (
	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/bluetuith-org/bluetooth-le/driver"
	"github.com/google/uuid"
	"github.com/rs/xid"
)

// phase tracks the handshake progress of a session.
type phase byte

const (
	phaseConnecting phase = iota
	phaseDiscovery
	phaseNegotiation
	phaseReady
)

// session is the live state behind a Connection while connecting or
// connected. It is owned exclusively by the dispatch goroutine; the
// driver session handle is exposed to nothing outside the central.
type session struct {
	conn   ble.Connection
	handle driver.Session

	// events is the delegate registered with the driver. It is reused
	// across retry attempts so the driver always reports back into the
	// same connection identity.
	events driver.SessionEvents

	subscriber ble.ConnectSubscriber
	attempt    xid.ID

	phase phase

	// shouldConnect is true only until the first connected callback,
	// distinguishing "first connect never completed" from "was
	// connected, now dropped".
	shouldConnect bool
	retries       int

	services []ble.Service
}

func (c *Central) connect(conn ble.Connection, subscriber ble.ConnectSubscriber) {
	if subscriber == nil {
		c.log.Warnf("connect: request for %s without a subscriber", conn)
		return
	}

	// At most one session may exist per connection.
	if _, ok := c.sessions.Load(conn); ok {
		c.log.Warnf("connect: %s already has a live session", conn)
		subscriber.OnConnectFailure(ble.NewFailure(ble.KindBluetooth, ble.ReasonOperationFailed))

		return
	}

	events := &gattEvents{c: c, conn: conn}

	handle := c.drv.Connect(conn.Address, events)
	if handle == nil {
		c.log.Warnf("connect: attempt for %s rejected by the driver", conn)
		subscriber.OnConnectFailure(ble.NewFailure(ble.KindBluetooth, ble.ReasonOperationFailed))

		return
	}

	s := &session{
		conn:          conn,
		handle:        handle,
		events:        events,
		subscriber:    subscriber,
		attempt:       xid.New(),
		phase:         phaseConnecting,
		shouldConnect: true,
	}
	c.sessions.Store(conn, s)

	c.log.Debugf("connect: attempt %s started for %s", s.attempt, conn)
}

func (c *Central) disconnect(conn ble.Connection) {
	s, ok := c.sessions.Load(conn)
	if !ok {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindBluetooth, ble.ReasonNotConnected))
		return
	}

	// Inside the retry window there is no driver handle to ask, so the
	// teardown is performed directly.
	if s.handle == nil {
		c.teardown(s, int32(driver.StatusSuccess))
		return
	}

	s.handle.Disconnect()
}

func (c *Central) connectionStateChanged(conn ble.Connection, handle driver.Session, status driver.Status, state driver.State) {
	s, ok := c.sessions.Load(conn)
	if !ok {
		c.log.Debugf("state change for unknown connection %s dropped (status %d, state %d)", conn, status, state)
		return
	}

	switch {
	case status == driver.StatusSuccess && state == driver.StateConnected:
		if handle == nil {
			c.fanoutFailure(conn, ble.IntegrityFailure("connected state reported without a session handle"))
			return
		}

		s.handle = handle
		if s.shouldConnect {
			s.shouldConnect = false
			s.retries = 0
		}

		s.phase = phaseDiscovery
		s.handle.DiscoverServices()

	case status == driver.StatusSuccess &&
		(state == driver.StateConnecting || state == driver.StateDisconnecting):
		c.log.Tracef("connect: %s transitioned to state %d", conn, state)

	default:
		linkError := status == driver.StatusLinkError || state == driver.StateLinkLost

		// Exhaustion takes precedence: once the retry budget is spent,
		// even a link-error status is terminal.
		if linkError && s.retries < c.cfg.ConnectRetries {
			c.retry(s, status)
			return
		}

		c.teardown(s, int32(status))
	}
}

// retry releases the current driver handle without notifying listeners
// and re-issues the connect attempt after a bounded pause.
func (c *Central) retry(s *session, status driver.Status) {
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}

	s.shouldConnect = false
	s.retries++
	s.phase = phaseConnecting

	c.log.Infof("connect: link error on %s (status %d), retrying (%d/%d)",
		s.conn, status, s.retries, c.cfg.ConnectRetries)

	conn := s.conn
	c.disp.submitAfter(c.cfg.RetryInterval, func() { c.reconnect(conn) })
}

func (c *Central) reconnect(conn ble.Connection) {
	s, ok := c.sessions.Load(conn)
	if !ok {
		// Torn down while the retry was pending.
		return
	}

	handle := c.drv.Connect(conn.Address, s.events)
	if handle == nil {
		// Effectively a fresh connect failure: report to the original
		// connect subscriber, not the listener fan-out.
		c.log.Warnf("connect: retry for %s rejected by the driver", conn)

		c.sessions.Delete(conn)
		delete(c.listeners, conn)
		s.subscriber.OnConnectFailure(ble.NewFailure(ble.KindBluetooth, ble.ReasonOperationFailed))

		return
	}

	s.handle = handle
}

func (c *Central) servicesDiscovered(conn ble.Connection, services []ble.Service, status driver.Status) {
	s, ok := c.sessions.Load(conn)
	if !ok {
		c.log.Debugf("service discovery result for unknown connection %s dropped", conn)
		return
	}

	if status != driver.StatusSuccess {
		// The session stays registered: the caller decides whether
		// to disconnect.
		s.subscriber.OnConnectFailure(ble.SystemFailure(ble.KindBluetooth, int32(status)))
		return
	}

	s.services = services

	if c.cfg.TransferSize > 0 {
		s.phase = phaseNegotiation
		s.handle.RequestTransferSize(c.cfg.TransferSize)

		return
	}

	c.completeHandshake(s)
}

func (c *Central) transferSizeChanged(conn ble.Connection, size int, status driver.Status) {
	s, ok := c.sessions.Load(conn)
	if !ok {
		c.log.Debugf("transfer size change for unknown connection %s dropped", conn)
		return
	}

	if s.phase == phaseNegotiation {
		// "Already in effect" is as good as success for the handshake.
		if status == driver.StatusSuccess || status == driver.StatusMtuUnchanged {
			c.completeHandshake(s)
			return
		}

		c.fanoutFailure(conn, ble.SystemFailure(ble.KindMtu, int32(status)))

		return
	}

	if status != driver.StatusSuccess {
		c.fanoutFailure(conn, ble.SystemFailure(ble.KindMtu, int32(status)))
		return
	}

	c.fanout(conn, func(l ble.CommunicationListener) { l.OnTransferSizeChanged(size) })
}

func (c *Central) completeHandshake(s *session) {
	s.phase = phaseReady

	c.log.Infof("connect: %s ready (%d services)", s.conn, len(s.services))

	s.subscriber.OnConnected(s.conn, s.services)
	ble.ConnectionEvents().Publish(ble.EventActionAdded, ble.ConnectionEventData{
		Connection: s.conn,
		Connected:  true,
	})
}

// teardown is the terminal path for a session: listeners are notified
// first, then the driver handle is released and the session, its delegate
// and its listener registry entry are removed.
func (c *Central) teardown(s *session, status int32) {
	c.log.Infof("disconnect: %s (status %d)", s.conn, status)

	c.fanout(s.conn, func(l ble.CommunicationListener) { l.OnDisconnected(s.conn, status) })

	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}

	c.sessions.Delete(s.conn)
	delete(c.listeners, s.conn)

	ble.ConnectionEvents().Publish(ble.EventActionRemoved, ble.ConnectionEventData{
		Connection: s.conn,
		Status:     status,
	})
}

// findCharacteristic resolves a characteristic from the discovered
// attribute set of a session by its UUID.
func (s *session) findCharacteristic(id uuid.UUID) (ble.Characteristic, bool) {
	for _, svc := range s.services {
		for _, char := range svc.Characteristics {
			if char.UUID == id {
				return char, true
			}
		}
	}

	return ble.Characteristic{}, false
}

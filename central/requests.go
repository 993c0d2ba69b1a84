package central

import (
	"time"

	ac "github.com/bluetuith-org/bluetooth-le/api/appfeatures"
	"github.com/bluetuith-org/bluetooth-le/api/ble"
)

// intervalFallbackDelay is the pause before a synthesized interval-update
// event is delivered on drivers that cannot observe interval changes.
const intervalFallbackDelay = 500 * time.Millisecond

// lookup resolves the session for a request. An absent session, or one
// inside the retry window, yields a kind-matched NotConnected failure to
// the connection's listeners and no driver call.
func (c *Central) lookup(conn ble.Connection, kind ble.FailureKind) (*session, bool) {
	s, ok := c.sessions.Load(conn)
	if !ok || s.handle == nil {
		c.fanoutFailure(conn, ble.NewFailure(kind, ble.ReasonNotConnected))
		return nil, false
	}

	return s, true
}

func (c *Central) read(conn ble.Connection, char ble.Characteristic) {
	s, ok := c.lookup(conn, ble.KindRead)
	if !ok {
		return
	}

	if !char.Readable() {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindRead, ble.ReasonNotSupported))
		return
	}

	if !s.handle.ReadCharacteristic(char) {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindRead, ble.ReasonOperationFailed))
	}
}

func (c *Central) write(conn ble.Connection, char ble.Characteristic, data []byte) {
	s, ok := c.lookup(conn, ble.KindWrite)
	if !ok {
		return
	}

	if !char.Writable() {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindWrite, ble.ReasonNotSupported))
		return
	}

	c.log.Debugf("write: %s <- %s", char.UUID, c.payload(data))

	if !s.handle.WriteCharacteristic(char, data) {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindWrite, ble.ReasonOperationFailed))
	}
}

func (c *Central) setNotification(conn ble.Connection, char ble.Characteristic, enable bool) {
	s, ok := c.lookup(conn, ble.KindNotification)
	if !ok {
		return
	}

	if !char.Notifiable() {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindNotification, ble.ReasonNotSupported))
		return
	}

	cccd, ok := char.ClientConfig()
	if !ok {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindNotification, ble.ReasonMissing))
		return
	}

	if !s.handle.SetNotify(char, enable) {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindNotification, ble.ReasonOperationFailed))
		return
	}

	cccd.Value = ble.DisableNotificationValue
	if enable {
		cccd.Value = ble.EnableNotificationValue
		if char.Properties.Has(ble.PropertyIndicate) && !char.Properties.Has(ble.PropertyNotify) {
			cccd.Value = ble.EnableIndicationValue
		}
	}

	if !s.handle.WriteDescriptor(cccd) {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindNotification, ble.ReasonOperationFailed))
	}
}

func (c *Central) readRssi(conn ble.Connection) {
	s, ok := c.lookup(conn, ble.KindRssi)
	if !ok {
		return
	}

	if !s.handle.ReadRssi() {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindRssi, ble.ReasonOperationFailed))
	}
}

func (c *Central) requestPriority(conn ble.Connection, priority ble.ConnectionPriority) {
	s, ok := c.lookup(conn, ble.KindBluetooth)
	if !ok {
		return
	}

	if !s.handle.RequestPriority(priority) {
		c.fanoutFailure(conn, ble.NewFailure(ble.KindBluetooth, ble.ReasonOperationFailed))
		return
	}

	c.log.Debugf("priority: requested %s for %s", priority, conn)

	// Drivers that never report interval updates get exactly one
	// synthesized update signal per accepted request.
	if c.features&ac.FeatureConnectionUpdates == 0 {
		c.disp.submitAfter(intervalFallbackDelay, func() {
			if _, live := c.sessions.Load(conn); !live {
				return
			}

			c.fanout(conn, func(l ble.CommunicationListener) { l.OnIntervalUpdated(ble.IntervalUnknown) })
		})
	}
}

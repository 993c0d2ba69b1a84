// Package central implements the BLE central-role connection manager:
// the scan controller, the per-connection session state machine with
// bounded link-error recovery, and the serialized dispatch of requests
// and driver callbacks to registered listeners.
package central

import (
	"context"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	ac "github.com/bluetuith-org/bluetooth-le/api/appfeatures"
	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/bluetuith-org/bluetooth-le/api/config"
	"github.com/bluetuith-org/bluetooth-le/api/errorkinds"
	"github.com/bluetuith-org/bluetooth-le/api/helpers/hexfmt"
	"github.com/bluetuith-org/bluetooth-le/api/helpers/logging"
	"github.com/bluetuith-org/bluetooth-le/driver"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"
)

// Central mediates all connection lifecycle and attribute traffic between
// an application and a radio driver. It implements ble.Central.
type Central struct {
	drv driver.Driver
	cfg config.Configuration

	log     logging.Logger
	payload hexfmt.Formatter

	features ac.Features
	started  atomic.Bool

	disp *dispatcher
	scan *scanController

	// sessions and listeners are mutated only from dispatched work.
	// The session map is additionally readable from any goroutine.
	sessions  *xsync.MapOf[ble.Connection, *session]
	listeners map[ble.Connection][]ble.CommunicationListener
}

var _ ble.Central = (*Central)(nil)

// NewCentral returns a central backed by the given radio driver.
func NewCentral(drv driver.Driver) *Central {
	return &Central{
		drv:       drv,
		disp:      newDispatcher(),
		sessions:  xsync.NewMapOf[ble.Connection, *session](),
		listeners: make(map[ble.Connection][]ble.CommunicationListener),
	}
}

// Start resolves the driver's capabilities and starts the dispatch loop.
func (c *Central) Start(cfg config.Configuration) (*ac.FeatureSet, error) {
	if c.drv == nil {
		return nil, fault.Wrap(errorkinds.ErrNoDriver,
			fctx.With(context.Background(), "error_at", "central-start"),
			ftag.With(ftag.InvalidArgument),
			fmsg.With("Cannot start the central"),
		)
	}

	if !c.started.CompareAndSwap(false, true) {
		return nil, fault.Wrap(errorkinds.ErrCentralStart,
			fctx.With(context.Background(), "error_at", "central-start"),
			ftag.With(ftag.Internal),
			fmsg.With("The central is already started"),
		)
	}

	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = config.DefaultRetryInterval
	}

	c.cfg = cfg

	c.log = cfg.Logger
	if c.log == nil {
		c.log = logging.NewLogger()
	}

	c.payload = cfg.PayloadFormatter
	if c.payload == nil {
		c.payload = hexfmt.Bytes
	}

	c.features = c.drv.Features()
	c.scan = newScanController(c)
	c.disp.start()

	c.log.Infof("central: started (features: %s)", c.features)

	return ac.NewFeatureSet(c.features, ac.Errors{}), nil
}

// Stop tears down every live session, stops scanning and ends the
// dispatch loop.
func (c *Central) Stop() error {
	if !c.started.CompareAndSwap(true, false) {
		return fault.Wrap(errorkinds.ErrCentralStop,
			fctx.With(context.Background(), "error_at", "central-stop"),
			ftag.With(ftag.Internal),
			fmsg.With("The central is not running"),
		)
	}

	stopped := make(chan struct{})

	ok := c.disp.submit(func() {
		defer close(stopped)

		c.scan.stop()

		c.sessions.Range(func(_ ble.Connection, s *session) bool {
			if s.handle != nil {
				s.handle.Close()
			}

			return true
		})
		c.sessions.Clear()
		c.listeners = make(map[ble.Connection][]ble.CommunicationListener)

		c.disp.stop()
	})
	if ok {
		<-stopped
	}

	c.log.Infof("central: stopped")

	return nil
}

// StartScan starts device discovery with the given subscriber as the sole
// receiver of scan results.
func (c *Central) StartScan(filters []ble.ScanFilter, settings *ble.ScanSettings, subscriber ble.ScanSubscriber) {
	c.do(func() { c.scan.start(filters, settings, subscriber) })
}

// StopScan stops device discovery.
func (c *Central) StopScan() {
	c.do(func() { c.scan.stop() })
}

// IsScanning returns if a scan is active.
func (c *Central) IsScanning() bool {
	return c.scan != nil && c.scan.active.Load()
}

// Connect starts a connection attempt to the given device address.
func (c *Central) Connect(address ble.MacAddress, subscriber ble.ConnectSubscriber) ble.Connection {
	conn := ble.NewConnection(address)
	c.do(func() { c.connect(conn, subscriber) })

	return conn
}

// Disconnect requests the teardown of a connection.
func (c *Central) Disconnect(conn ble.Connection) {
	c.do(func() { c.disconnect(conn) })
}

// AddListener registers a listener for the connection's events.
func (c *Central) AddListener(conn ble.Connection, listener ble.CommunicationListener) {
	c.do(func() { c.addListener(conn, listener) })
}

// RemoveListener unregisters a previously added listener.
func (c *Central) RemoveListener(conn ble.Connection, listener ble.CommunicationListener) {
	c.do(func() { c.removeListener(conn, listener) })
}

// Read requests a characteristic read.
func (c *Central) Read(conn ble.Connection, char ble.Characteristic) {
	c.do(func() { c.read(conn, char) })
}

// Write requests a characteristic write.
func (c *Central) Write(conn ble.Connection, char ble.Characteristic, data []byte) {
	c.do(func() { c.write(conn, char, data) })
}

// SetNotification toggles notification delivery for a characteristic.
func (c *Central) SetNotification(conn ble.Connection, char ble.Characteristic, enable bool) {
	c.do(func() { c.setNotification(conn, char, enable) })
}

// ReadRssi requests a signal strength read.
func (c *Central) ReadRssi(conn ble.Connection) {
	c.do(func() { c.readRssi(conn) })
}

// RequestConnectionPriority requests a connection parameter profile.
func (c *Central) RequestConnectionPriority(conn ble.Connection, priority ble.ConnectionPriority) {
	c.do(func() { c.requestPriority(conn, priority) })
}

// do submits one unit of work to the dispatch loop.
func (c *Central) do(fn func()) {
	if !c.disp.submit(fn) && c.log != nil {
		c.log.Debugf("central: request dropped, dispatcher is stopped")
	}
}

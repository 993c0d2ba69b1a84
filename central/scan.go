package central

import (
	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/bluetuith-org/bluetooth-le/api/helpers/logging"
	"github.com/bluetuith-org/bluetooth-le/driver"
	"go.uber.org/atomic"
)

// scanController wraps the driver's discovery primitive behind a single
// global on/off state with exactly one active subscriber. All methods run
// on the dispatch goroutine; only the active flag is readable elsewhere.
type scanController struct {
	owner *Central
	drv   driver.Driver
	log   logging.Logger

	active     atomic.Bool
	subscriber ble.ScanSubscriber
}

func newScanController(c *Central) *scanController {
	return &scanController{owner: c, drv: c.drv, log: c.log}
}

func (sc *scanController) start(filters []ble.ScanFilter, settings *ble.ScanSettings, subscriber ble.ScanSubscriber) {
	if subscriber == nil {
		sc.log.Warnf("scan: start requested without a subscriber")
		return
	}

	if sc.active.Load() {
		sc.log.Warnf("scan: already scanning, request ignored")
		return
	}

	if !sc.drv.Enabled() {
		sc.log.Warnf("scan: radio adapter is disabled")
		subscriber.OnScanFailure(ble.NewFailure(ble.KindBluetooth, ble.ReasonRadioDisabled))

		return
	}

	// Partial configuration is not allowed: fall back to a default,
	// unfiltered scan.
	if (filters == nil) != (settings == nil) {
		sc.log.Warnf("scan: partial scan configuration discarded, starting an unfiltered scan")
		filters, settings = nil, nil
	}

	sc.subscriber = subscriber
	sc.active.Store(true)
	sc.drv.StartScan(filters, settings, &scanEvents{c: sc.owner})

	sc.log.Infof("scan: started")
}

func (sc *scanController) stop() {
	if !sc.active.Load() {
		sc.log.Debugf("scan: not scanning, stop ignored")
		return
	}

	sc.subscriber = nil
	sc.active.Store(false)
	sc.drv.StopScan()

	sc.log.Infof("scan: stopped")
}

func (sc *scanController) deviceFound(device ble.DiscoveredDevice) {
	if sc.subscriber == nil {
		sc.log.Tracef("scan: dropped result for %s, no active subscriber", device.Address)
		return
	}

	sc.subscriber.OnDiscover(device)
	ble.DeviceEvents().Publish(ble.EventActionAdded, device)
}

func (sc *scanController) scanFailed(code driver.Status) {
	if sc.subscriber == nil {
		sc.log.Tracef("scan: dropped failure (status %d), no active subscriber", code)
		return
	}

	// The scanning state is kept: the caller decides whether to stop.
	failure := ble.SystemFailure(ble.KindBluetooth, int32(code))
	sc.subscriber.OnScanFailure(failure)
	ble.ErrorEvents().Publish(ble.EventActionAdded, failure)
}

// scanEvents funnels driver discovery callbacks, which may arrive on any
// goroutine, through the dispatch loop.
type scanEvents struct {
	c *Central
}

var _ driver.ScanEvents = (*scanEvents)(nil)

func (e *scanEvents) DeviceFound(device ble.DiscoveredDevice) {
	e.c.do(func() { e.c.scan.deviceFound(device) })
}

func (e *scanEvents) BatchDevicesFound(devices []ble.DiscoveredDevice) {
	e.c.do(func() {
		for _, device := range devices {
			e.c.scan.deviceFound(device)
		}
	})
}

func (e *scanEvents) ScanFailed(code driver.Status) {
	e.c.do(func() { e.c.scan.scanFailed(code) })
}

package central

import (
	"sync"
	"testing"
	"time"

	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/bluetuith-org/bluetooth-le/api/config"
	"github.com/bluetuith-org/bluetooth-le/api/helpers/logging"
	"github.com/bluetuith-org/bluetooth-le/driver"
	"github.com/bluetuith-org/bluetooth-le/driver/drivertest"
	"github.com/google/uuid"
)

var testAddress = ble.MacAddress{0x11, 0x22, 0x33, 0xAA, 0xBB, 0xCC}

func testConfig() config.Configuration {
	cfg := config.New()
	cfg.RetryInterval = 5 * time.Millisecond
	cfg.Logger = logging.Discard()

	return cfg
}

func newTestCentral(t *testing.T, drv driver.Driver, cfg config.Configuration) *Central {
	t.Helper()

	c := NewCentral(drv)
	if _, err := c.Start(cfg); err != nil {
		t.Fatalf("starting central: %v", err)
	}

	t.Cleanup(func() { _ = c.Stop() })

	return c
}

// settle waits until every unit of work queued so far has run.
func settle(t *testing.T, c *Central) {
	t.Helper()

	done := make(chan struct{})
	if !c.disp.submit(func() { close(done) }) {
		t.Fatal("dispatcher is stopped")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not settle")
	}
}

// eventually polls for a condition driven by deferred work.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(2 * time.Millisecond)
	}

	t.Fatal(msg)
}

// testService returns a service with one fully capable characteristic
// carrying a client configuration descriptor.
func testService() (ble.Service, ble.Characteristic) {
	svcUUID := uuid.MustParse("0000180f-0000-1000-8000-00805f9b34fb")
	charUUID := uuid.MustParse("00002a19-0000-1000-8000-00805f9b34fb")

	char := ble.Characteristic{
		UUID:       charUUID,
		Service:    svcUUID,
		Properties: ble.PropertyRead | ble.PropertyWrite | ble.PropertyNotify,
		Descriptors: []ble.Descriptor{
			{UUID: ble.ClientConfigUUID, Characteristic: charUUID, Service: svcUUID},
		},
	}

	return ble.Service{UUID: svcUUID, Characteristics: []ble.Characteristic{char}}, char
}

// connectReady drives a connection through the full handshake with no
// transfer-size negotiation configured.
func connectReady(t *testing.T, c *Central, drv *drivertest.Driver, sub *connectRecorder, services []ble.Service) (ble.Connection, *drivertest.Session) {
	t.Helper()

	conn := c.Connect(testAddress, sub)
	settle(t, c)

	ds := drv.LastSession()
	if ds == nil {
		t.Fatal("driver handed out no session")
	}

	ds.Events().ConnectionStateChanged(ds, driver.StatusSuccess, driver.StateConnected)
	settle(t, c)

	ds.Events().ServicesDiscovered(services, driver.StatusSuccess)
	settle(t, c)

	return conn, ds
}

type scanRecorder struct {
	mu sync.Mutex

	devices  []ble.DiscoveredDevice
	failures []ble.Failure
}

func (r *scanRecorder) OnDiscover(device ble.DiscoveredDevice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices = append(r.devices, device)
}

func (r *scanRecorder) OnScanFailure(failure ble.Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, failure)
}

func (r *scanRecorder) Devices() []ble.DiscoveredDevice {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]ble.DiscoveredDevice(nil), r.devices...)
}

func (r *scanRecorder) Failures() []ble.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]ble.Failure(nil), r.failures...)
}

type connectedEvent struct {
	conn     ble.Connection
	services []ble.Service
}

type connectRecorder struct {
	mu sync.Mutex

	connected []connectedEvent
	failures  []ble.Failure
}

func (r *connectRecorder) OnConnected(conn ble.Connection, services []ble.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connected = append(r.connected, connectedEvent{conn: conn, services: services})
}

func (r *connectRecorder) OnConnectFailure(failure ble.Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, failure)
}

func (r *connectRecorder) Connected() []connectedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]connectedEvent(nil), r.connected...)
}

func (r *connectRecorder) Failures() []ble.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]ble.Failure(nil), r.failures...)
}

// eventRecorder journals every listener event it receives.
type eventRecorder struct {
	mu sync.Mutex

	name string

	journal     []string
	payloads    [][]byte
	failures    []ble.Failure
	disconnects []int32
	intervals   []int
	rssis       []int16
	sizes       []int
}

var _ ble.CommunicationListener = (*eventRecorder)(nil)

func (r *eventRecorder) record(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.journal = append(r.journal, entry)
}

func (r *eventRecorder) OnCharacteristicRead(char ble.Characteristic, data []byte) {
	r.mu.Lock()
	r.payloads = append(r.payloads, data)
	r.mu.Unlock()

	r.record("read " + char.UUID.String())
}

func (r *eventRecorder) OnCharacteristicChanged(char ble.Characteristic, data []byte) {
	r.mu.Lock()
	r.payloads = append(r.payloads, data)
	r.mu.Unlock()

	r.record("changed " + char.UUID.String())
}

func (r *eventRecorder) OnCharacteristicWritten(char ble.Characteristic) {
	r.record("written " + char.UUID.String())
}

func (r *eventRecorder) OnReliableWriteCompleted() {
	r.record("reliable write")
}

func (r *eventRecorder) OnNotificationStateChanged(char ble.Characteristic) {
	r.record("notification " + char.UUID.String())
}

func (r *eventRecorder) OnTransferSizeChanged(size int) {
	r.mu.Lock()
	r.sizes = append(r.sizes, size)
	r.mu.Unlock()

	r.record("transfer size")
}

func (r *eventRecorder) OnRssiRead(rssi int16) {
	r.mu.Lock()
	r.rssis = append(r.rssis, rssi)
	r.mu.Unlock()

	r.record("rssi")
}

func (r *eventRecorder) OnIntervalUpdated(interval int) {
	r.mu.Lock()
	r.intervals = append(r.intervals, interval)
	r.mu.Unlock()

	r.record("interval")
}

func (r *eventRecorder) OnDisconnected(_ ble.Connection, status int32) {
	r.mu.Lock()
	r.disconnects = append(r.disconnects, status)
	r.mu.Unlock()

	r.record("disconnected")
}

func (r *eventRecorder) OnFailure(failure ble.Failure) {
	r.mu.Lock()
	r.failures = append(r.failures, failure)
	r.mu.Unlock()

	r.record("failure " + failure.Error())
}

func (r *eventRecorder) Journal() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.journal...)
}

func (r *eventRecorder) Failures() []ble.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]ble.Failure(nil), r.failures...)
}

func (r *eventRecorder) Disconnects() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int32(nil), r.disconnects...)
}

func (r *eventRecorder) Intervals() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int(nil), r.intervals...)
}

func (r *eventRecorder) Rssis() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int16(nil), r.rssis...)
}

func (r *eventRecorder) Sizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int(nil), r.sizes...)
}

package central

import (
	"errors"
	"testing"

	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/bluetuith-org/bluetooth-le/api/errorkinds"
	"github.com/bluetuith-org/bluetooth-le/driver"
	"github.com/bluetuith-org/bluetooth-le/driver/drivertest"
)

func TestListenerOrderAndRemoval(t *testing.T) {
	c, _, ds, conn, char, first := ready(t, nil)

	second := &eventRecorder{}
	c.AddListener(conn, second)
	settle(t, c)

	ds.Events().CharacteristicChanged(char, []byte{0x01})
	settle(t, c)

	if len(first.Journal()) != 1 || len(second.Journal()) != 1 {
		t.Fatalf("got journals %v / %v, want one event each", first.Journal(), second.Journal())
	}

	c.RemoveListener(conn, first)
	settle(t, c)

	ds.Events().CharacteristicChanged(char, []byte{0x02})
	settle(t, c)

	if got := first.Journal(); len(got) != 1 {
		t.Fatalf("removed listener got %d events, want 1", len(got))
	}
	if got := second.Journal(); len(got) != 2 {
		t.Fatalf("remaining listener got %d events, want 2", len(got))
	}
}

func TestListenerRemovalBeatsInFlightEvent(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	// The removal is queued ahead of the event delivery, so the
	// serialized dispatch order guarantees silence.
	c.RemoveListener(conn, listener)
	ds.Events().CharacteristicChanged(char, []byte{0x01})
	settle(t, c)

	if got := listener.Journal(); len(got) != 0 {
		t.Fatalf("got journal %v after removal, want none", got)
	}
}

func TestListenerDuplicateRegistration(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	c.AddListener(conn, listener)
	settle(t, c)

	ds.Events().CharacteristicChanged(char, []byte{0x01})
	settle(t, c)

	if got := listener.Journal(); len(got) != 2 {
		t.Fatalf("duplicate registration got %d events, want 2", len(got))
	}

	// One removal drops one registration.
	c.RemoveListener(conn, listener)
	settle(t, c)

	ds.Events().CharacteristicChanged(char, []byte{0x02})
	settle(t, c)

	if got := listener.Journal(); len(got) != 3 {
		t.Fatalf("got %d events after one removal, want 3", len(got))
	}
}

func TestRemoveListenerAbsent(t *testing.T) {
	drv := drivertest.New()
	c := newTestCentral(t, drv, testConfig())

	conn := ble.NewConnection(testAddress)
	c.RemoveListener(conn, &eventRecorder{})
	settle(t, c)
}

func TestStartWithoutDriver(t *testing.T) {
	c := NewCentral(nil)

	if _, err := c.Start(testConfig()); !errors.Is(err, errorkinds.ErrNoDriver) {
		t.Fatalf("got error %v, want ErrNoDriver", err)
	}
}

func TestStartTwice(t *testing.T) {
	drv := drivertest.New()
	c := newTestCentral(t, drv, testConfig())

	if _, err := c.Start(testConfig()); !errors.Is(err, errorkinds.ErrCentralStart) {
		t.Fatalf("got error %v, want ErrCentralStart", err)
	}
}

func TestStopClosesSessions(t *testing.T) {
	drv := drivertest.New()

	c := NewCentral(drv)
	if _, err := c.Start(testConfig()); err != nil {
		t.Fatalf("starting central: %v", err)
	}

	svc, _ := testService()
	_, ds := connectReady(t, c, drv, &connectRecorder{}, []ble.Service{svc})

	if err := c.Stop(); err != nil {
		t.Fatalf("stopping central: %v", err)
	}

	if ds.Closes() != 1 {
		t.Fatalf("driver saw %d session closes, want 1", ds.Closes())
	}

	if err := c.Stop(); !errors.Is(err, errorkinds.ErrCentralStop) {
		t.Fatalf("got error %v, want ErrCentralStop", err)
	}
}

func TestFailureSentinelMapping(t *testing.T) {
	c, _, _, conn, char, listener := ready(t, nil)

	char.Properties = ble.PropertyWrite
	c.Read(conn, char)
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}

	var err error = failures[0]
	if !errors.Is(err, errorkinds.ErrNotSupported) {
		t.Fatalf("failure %q does not unwrap to ErrNotSupported", err)
	}
}

func TestDescriptorWriteFailure(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	c.SetNotification(conn, char, true)
	settle(t, c)

	descWrites := ds.DescriptorWrites()
	if len(descWrites) != 1 {
		t.Fatalf("driver saw %d descriptor writes, want 1", len(descWrites))
	}

	ds.Events().DescriptorWritten(descWrites[0], driver.Status(3))
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindNotification, ble.ReasonSystemError)
}

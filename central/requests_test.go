package central

import (
	"bytes"
	"testing"

	ac "github.com/bluetuith-org/bluetooth-le/api/appfeatures"
	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/bluetuith-org/bluetooth-le/driver"
	"github.com/bluetuith-org/bluetooth-le/driver/drivertest"
)

// ready returns a central with a completed handshake, a registered
// listener and the discovered characteristic.
func ready(t *testing.T, cfg func(*drivertest.Driver)) (*Central, *drivertest.Driver, *drivertest.Session, ble.Connection, ble.Characteristic, *eventRecorder) {
	t.Helper()

	drv := drivertest.New()
	if cfg != nil {
		cfg(drv)
	}

	c := newTestCentral(t, drv, testConfig())

	svc, char := testService()
	conn, ds := connectReady(t, c, drv, &connectRecorder{}, []ble.Service{svc})

	listener := &eventRecorder{}
	c.AddListener(conn, listener)
	settle(t, c)

	return c, drv, ds, conn, char, listener
}

func TestRequestsWithoutSession(t *testing.T) {
	drv := drivertest.New()
	c := newTestCentral(t, drv, testConfig())

	_, char := testService()
	listener := &eventRecorder{}
	conn := ble.NewConnection(testAddress)

	c.AddListener(conn, listener)

	c.Read(conn, char)
	c.Write(conn, char, []byte{0x01})
	c.SetNotification(conn, char, true)
	c.ReadRssi(conn)
	c.RequestConnectionPriority(conn, ble.PriorityHigh)
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 5 {
		t.Fatalf("got %d failures, want one per request", len(failures))
	}

	wantKinds := []ble.FailureKind{
		ble.KindRead, ble.KindWrite, ble.KindNotification, ble.KindRssi, ble.KindBluetooth,
	}
	for i, kind := range wantKinds {
		checkFailure(t, failures[i], kind, ble.ReasonNotConnected)
	}

	if got := len(drv.Connects()); got != 0 {
		t.Fatalf("driver saw %d connect attempts, want 0", got)
	}
}

func TestReadRoundTrip(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	c.Read(conn, char)
	settle(t, c)

	if got := ds.Reads(); len(got) != 1 || got[0].UUID != char.UUID {
		t.Fatalf("driver saw reads %v, want the requested characteristic", got)
	}

	ds.Events().CharacteristicRead(char, []byte{0x0A, 0x1B}, driver.StatusSuccess)
	settle(t, c)

	journal := listener.Journal()
	if len(journal) != 1 || journal[0] != "read "+char.UUID.String() {
		t.Fatalf("got journal %v, want one read event", journal)
	}
}

func TestReadNotSupported(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	char.Properties = ble.PropertyWrite
	c.Read(conn, char)
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindRead, ble.ReasonNotSupported)

	if got := ds.Reads(); len(got) != 0 {
		t.Fatalf("driver saw reads %v, want none", got)
	}
}

func TestReadRejectedByDriver(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	ds.Accept(false)
	c.Read(conn, char)
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindRead, ble.ReasonOperationFailed)
}

func TestReadNilPayloadIntegrity(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	c.Read(conn, char)
	settle(t, c)

	ds.Events().CharacteristicRead(char, nil, driver.StatusSuccess)
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindIntegrity, ble.ReasonCallbackIntegrity)
}

func TestWriteRoundTrip(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	payload := []byte{0xDE, 0xAD}
	c.Write(conn, char, payload)
	settle(t, c)

	writes := ds.Writes()
	if len(writes) != 1 || !bytes.Equal(writes[0].Data, payload) {
		t.Fatalf("driver saw writes %v, want the requested payload", writes)
	}

	ds.Events().CharacteristicWritten(char, driver.StatusSuccess)
	settle(t, c)

	journal := listener.Journal()
	if len(journal) != 1 || journal[0] != "written "+char.UUID.String() {
		t.Fatalf("got journal %v, want one written event", journal)
	}
}

func TestWriteNotSupported(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	char.Properties = ble.PropertyRead
	c.Write(conn, char, []byte{0x01, 0x02})
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want exactly 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindWrite, ble.ReasonNotSupported)

	if got := ds.Writes(); len(got) != 0 {
		t.Fatalf("driver saw writes %v, want none", got)
	}
}

func TestWriteFailureStatus(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	c.Write(conn, char, []byte{0x01})
	settle(t, c)

	ds.Events().CharacteristicWritten(char, driver.Status(3))
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindWrite, ble.ReasonSystemError)
}

func TestNotificationToggle(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	c.SetNotification(conn, char, true)
	settle(t, c)

	notifies := ds.Notifies()
	if len(notifies) != 1 || !notifies[0].Enable {
		t.Fatalf("driver saw notify toggles %v, want one enable", notifies)
	}

	descWrites := ds.DescriptorWrites()
	if len(descWrites) != 1 {
		t.Fatalf("driver saw %d descriptor writes, want 1", len(descWrites))
	}
	if descWrites[0].UUID != ble.ClientConfigUUID {
		t.Fatalf("descriptor write targeted %s, want the client configuration descriptor", descWrites[0].UUID)
	}
	if !bytes.Equal(descWrites[0].Value, ble.EnableNotificationValue) {
		t.Fatalf("descriptor write carried %v, want the enable value", descWrites[0].Value)
	}

	ds.Events().DescriptorWritten(descWrites[0], driver.StatusSuccess)
	settle(t, c)

	journal := listener.Journal()
	if len(journal) != 1 || journal[0] != "notification "+char.UUID.String() {
		t.Fatalf("got journal %v, want one notification-state event", journal)
	}
}

func TestNotificationDisableValue(t *testing.T) {
	c, _, ds, conn, char, _ := ready(t, nil)

	c.SetNotification(conn, char, false)
	settle(t, c)

	descWrites := ds.DescriptorWrites()
	if len(descWrites) != 1 || !bytes.Equal(descWrites[0].Value, ble.DisableNotificationValue) {
		t.Fatalf("driver saw descriptor writes %v, want one disable value", descWrites)
	}
}

func TestNotificationIndicateOnly(t *testing.T) {
	c, _, ds, conn, char, _ := ready(t, nil)

	char.Properties = ble.PropertyIndicate
	c.SetNotification(conn, char, true)
	settle(t, c)

	descWrites := ds.DescriptorWrites()
	if len(descWrites) != 1 || !bytes.Equal(descWrites[0].Value, ble.EnableIndicationValue) {
		t.Fatalf("driver saw descriptor writes %v, want one indication value", descWrites)
	}
}

func TestNotificationNotSupported(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	char.Properties = ble.PropertyRead
	c.SetNotification(conn, char, true)
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindNotification, ble.ReasonNotSupported)

	if got := ds.Notifies(); len(got) != 0 {
		t.Fatalf("driver saw notify toggles %v, want none", got)
	}
}

func TestNotificationMissingDescriptor(t *testing.T) {
	c, _, ds, conn, char, listener := ready(t, nil)

	char.Descriptors = nil
	c.SetNotification(conn, char, true)
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindNotification, ble.ReasonMissing)

	if got := ds.DescriptorWrites(); len(got) != 0 {
		t.Fatalf("driver saw descriptor writes %v, want none", got)
	}
}

func TestCharacteristicChangedDelivery(t *testing.T) {
	c, _, ds, _, char, listener := ready(t, nil)

	ds.Events().CharacteristicChanged(char, []byte{0x05})
	settle(t, c)

	journal := listener.Journal()
	if len(journal) != 1 || journal[0] != "changed "+char.UUID.String() {
		t.Fatalf("got journal %v, want one changed event", journal)
	}
}

func TestReadRssiRoundTrip(t *testing.T) {
	c, _, ds, conn, _, listener := ready(t, nil)

	c.ReadRssi(conn)
	settle(t, c)

	if ds.RssiReads() != 1 {
		t.Fatalf("driver saw %d rssi reads, want 1", ds.RssiReads())
	}

	ds.Events().RssiRead(-63, driver.StatusSuccess)
	settle(t, c)

	if got := listener.Rssis(); len(got) != 1 || got[0] != -63 {
		t.Fatalf("got rssi callbacks %v, want [-63]", got)
	}
}

func TestReadRssiRejected(t *testing.T) {
	c, _, ds, conn, _, listener := ready(t, nil)

	ds.Accept(false)
	c.ReadRssi(conn)
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindRssi, ble.ReasonOperationFailed)
}

func TestPriorityWithIntervalUpdates(t *testing.T) {
	c, _, ds, conn, _, listener := ready(t, nil)

	c.RequestConnectionPriority(conn, ble.PriorityHigh)
	settle(t, c)

	if got := ds.Priorities(); len(got) != 1 || got[0] != ble.PriorityHigh {
		t.Fatalf("driver saw priorities %v, want [%s]", got, ble.PriorityHigh)
	}

	ds.Events().IntervalUpdated(15, driver.StatusSuccess)
	settle(t, c)

	if got := listener.Intervals(); len(got) != 1 || got[0] != 15 {
		t.Fatalf("got interval callbacks %v, want [15]", got)
	}
}

func TestPrioritySynthesizedInterval(t *testing.T) {
	c, _, _, conn, _, listener := ready(t, func(drv *drivertest.Driver) {
		features := ac.FeatureNone
		features.Add(ac.FeatureScanning, ac.FeatureConnection, ac.FeatureTransferSizeRequest)
		drv.SetFeatures(features)
	})

	c.RequestConnectionPriority(conn, ble.PriorityLowPower)
	settle(t, c)

	eventually(t, func() bool {
		got := listener.Intervals()
		return len(got) == 1 && got[0] == ble.IntervalUnknown
	}, "no synthesized interval update delivered")

	if got := listener.Intervals(); len(got) != 1 {
		t.Fatalf("got %d interval callbacks, want exactly 1", len(got))
	}
}

func TestTransferSizeChangedOutsideHandshake(t *testing.T) {
	c, _, ds, _, _, listener := ready(t, nil)

	ds.Events().TransferSizeChanged(185, driver.StatusSuccess)
	settle(t, c)

	if got := listener.Sizes(); len(got) != 1 || got[0] != 185 {
		t.Fatalf("got transfer size callbacks %v, want [185]", got)
	}

	ds.Events().TransferSizeChanged(0, driver.Status(6))
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindMtu, ble.ReasonSystemError)
}

func TestReliableWriteCompletion(t *testing.T) {
	c, _, ds, _, _, listener := ready(t, nil)

	ds.Events().ReliableWriteCompleted(driver.StatusSuccess)
	settle(t, c)

	journal := listener.Journal()
	if len(journal) != 1 || journal[0] != "reliable write" {
		t.Fatalf("got journal %v, want one reliable-write event", journal)
	}

	ds.Events().ReliableWriteCompleted(driver.Status(5))
	settle(t, c)

	failures := listener.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	checkFailure(t, failures[0], ble.KindWrite, ble.ReasonSystemError)
}

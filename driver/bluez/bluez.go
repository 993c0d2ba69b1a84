//go:build linux

// Package bluez implements the radio driver over the BlueZ DBus
// interface. Discovery and GATT traffic are mediated by the org.bluez
// system bus objects; outcomes are reported through the driver event
// interfaces from the signal watch goroutine.
package bluez

import (
	"context"
	"strings"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	ac "github.com/bluetuith-org/bluetooth-le/api/appfeatures"
	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/bluetuith-org/bluetooth-le/api/errorkinds"
	"github.com/bluetuith-org/bluetooth-le/driver"
	"github.com/godbus/dbus/v5"
)

// The DBus specific bus, interface and property names.
const (
	dbusGetPropertyIface   = "org.freedesktop.DBus.Properties.Get"
	dbusSetPropertyIface   = "org.freedesktop.DBus.Properties.Set"
	dbusObjectManagerIface = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"

	dbusSignalAddMatchIface          = "org.freedesktop.DBus.AddMatch"
	dbusSignalPropertyChangedIface   = "org.freedesktop.DBus.Properties.PropertiesChanged"
	dbusSignalInterfacesAddedIface   = "org.freedesktop.DBus.ObjectManager.InterfacesAdded"
	dbusSignalInterfacesRemovedIface = "org.freedesktop.DBus.ObjectManager.InterfacesRemoved"

	bluezBusName          = "org.bluez"
	bluezAdapterIface     = "org.bluez.Adapter1"
	bluezDeviceIface      = "org.bluez.Device1"
	bluezGattServiceIface = "org.bluez.GattService1"
	bluezGattCharIface    = "org.bluez.GattCharacteristic1"
	bluezGattDescIface    = "org.bluez.GattDescriptor1"
)

// Driver is a BlueZ-backed radio driver.
type Driver struct {
	mu sync.Mutex

	systemBus   *dbus.Conn
	adapterPath dbus.ObjectPath

	scanEvents driver.ScanEvents

	// sessions maps a device object path to its live GATT session, for
	// routing property-change signals.
	sessions map[dbus.ObjectPath]*gattSession

	signals chan *dbus.Signal
}

var _ driver.Driver = (*Driver)(nil)

// New connects to the system bus and binds to the first powered-capable
// BlueZ adapter.
func New() (*Driver, error) {
	systemBus, err := dbus.SystemBus()
	if err != nil {
		return nil, fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "bluez-systembus"),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot initialize system DBus"),
		)
	}

	d := &Driver{
		systemBus: systemBus,
		sessions:  make(map[dbus.ObjectPath]*gattSession),
	}

	objects, err := d.managedObjects()
	if err != nil {
		return nil, fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "bluez-objectmanager"),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot enumerate Bluez objects"),
		)
	}

	for path, object := range objects {
		if _, ok := object[bluezAdapterIface]; ok {
			d.adapterPath = path
			break
		}
	}

	if d.adapterPath == "" {
		return nil, fault.Wrap(errorkinds.ErrNoDriver,
			fctx.With(context.Background(), "error_at", "bluez-adapter"),
			ftag.With(ftag.NotFound),
			fmsg.With("No Bluez adapter found"),
		)
	}

	d.watchSystemBus()

	return d, nil
}

// Close releases the system bus connection.
func (d *Driver) Close() error {
	return d.systemBus.Close()
}

// Enabled returns if the adapter is powered on.
func (d *Driver) Enabled() bool {
	var powered dbus.Variant

	err := d.systemBus.Object(bluezBusName, d.adapterPath).
		Call(dbusGetPropertyIface, 0, bluezAdapterIface, "Powered").
		Store(&powered)
	if err != nil {
		return false
	}

	on, ok := powered.Value().(bool)

	return ok && on
}

// Features returns the capabilities BlueZ mediates. The ATT payload size
// is negotiated by the daemon itself, so explicit size requests resolve
// to "already in effect"; interval changes are not observable.
func (d *Driver) Features() ac.Features {
	var features ac.Features
	features.Add(
		ac.FeatureScanning,
		ac.FeatureConnection,
		ac.FeatureTransferSizeRequest,
	)

	return features
}

// StartScan puts the adapter into LE discovery mode.
func (d *Driver) StartScan(filters []ble.ScanFilter, settings *ble.ScanSettings, events driver.ScanEvents) {
	d.mu.Lock()
	d.scanEvents = events
	d.mu.Unlock()

	discoveryFilter := map[string]any{"Transport": "le"}
	if settings != nil && !settings.FilterDuplicates {
		discoveryFilter["DuplicateData"] = true
	}

	if uuids := filterUUIDs(filters); len(uuids) > 0 {
		discoveryFilter["UUIDs"] = uuids
	}

	adapter := d.systemBus.Object(bluezBusName, d.adapterPath)

	if err := adapter.Call(bluezAdapterIface+".SetDiscoveryFilter", 0, discoveryFilter).Store(); err != nil {
		events.ScanFailed(driver.StatusLinkError)
		return
	}

	if err := adapter.Call(bluezAdapterIface+".StartDiscovery", 0).Store(); err != nil {
		events.ScanFailed(driver.StatusLinkError)
		return
	}

	// Devices already in the object cache never raise InterfacesAdded,
	// so they are replayed from the cache.
	if objects, err := d.managedObjects(); err == nil {
		var batch []ble.DiscoveredDevice

		for _, object := range objects {
			if values, ok := object[bluezDeviceIface]; ok {
				if device, ok := parseDevice(values); ok {
					batch = append(batch, device)
				}
			}
		}

		if len(batch) > 0 {
			events.BatchDevicesFound(batch)
		}
	}
}

// StopScan stops LE discovery.
func (d *Driver) StopScan() {
	d.mu.Lock()
	d.scanEvents = nil
	d.mu.Unlock()

	d.systemBus.Object(bluezBusName, d.adapterPath).
		Call(bluezAdapterIface+".StopDiscovery", 0)
}

// Connect opens a GATT session for the device behind the address.
func (d *Driver) Connect(address ble.MacAddress, events driver.SessionEvents) driver.Session {
	path := d.devicePath(address)

	s := &gattSession{
		d:      d,
		path:   path,
		events: events,
		chars:  make(map[string]dbus.ObjectPath),
		descs:  make(map[string]dbus.ObjectPath),
	}

	d.mu.Lock()
	if _, live := d.sessions[path]; live {
		d.mu.Unlock()
		return nil
	}
	d.sessions[path] = s
	d.mu.Unlock()

	go func() {
		err := d.systemBus.Object(bluezBusName, path).
			Call(bluezDeviceIface+".Connect", 0).
			Store()
		if err != nil {
			events.ConnectionStateChanged(s, driver.StatusLinkError, driver.StateDisconnected)
		}
	}()

	return s
}

// devicePath derives the BlueZ device object path from an address, such
// as /org/bluez/hci0/dev_11_22_33_AA_BB_CC.
func (d *Driver) devicePath(address ble.MacAddress) dbus.ObjectPath {
	return dbus.ObjectPath(
		string(d.adapterPath) + "/dev_" + strings.ReplaceAll(address.String(), ":", "_"),
	)
}

func (d *Driver) managedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, error) {
	objects := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)

	err := d.systemBus.Object(bluezBusName, "/").
		Call(dbusObjectManagerIface, 0).
		Store(&objects)

	return objects, err
}

// watchSystemBus registers a signal match for bluez events and starts
// the signal parse goroutine.
func (d *Driver) watchSystemBus() {
	signalMatch := "type='signal', sender='org.bluez'"
	d.systemBus.BusObject().Call(dbusSignalAddMatchIface, 0, signalMatch)

	d.signals = make(chan *dbus.Signal, 16)
	d.systemBus.Signal(d.signals)

	go func() {
		for signal := range d.signals {
			d.parseSignalData(signal)
		}
	}()
}

func (d *Driver) parseSignalData(signal *dbus.Signal) {
	switch signal.Name {
	case dbusSignalPropertyChangedIface:
		if len(signal.Body) < 2 {
			return
		}

		iface, ok := signal.Body[0].(string)
		if !ok {
			return
		}

		values, ok := signal.Body[1].(map[string]dbus.Variant)
		if !ok {
			return
		}

		switch iface {
		case bluezDeviceIface:
			d.devicePropertiesChanged(signal.Path, values)

		case bluezGattCharIface:
			d.characteristicPropertiesChanged(signal.Path, values)
		}

	case dbusSignalInterfacesAddedIface:
		if len(signal.Body) < 2 {
			return
		}

		object, ok := signal.Body[1].(map[string]map[string]dbus.Variant)
		if !ok {
			return
		}

		if values, ok := object[bluezDeviceIface]; ok {
			d.deviceFound(values)
		}

	case dbusSignalInterfacesRemovedIface:
		// Device object removals during discovery carry no scan
		// semantics for a central.
	}
}

func (d *Driver) deviceFound(values map[string]dbus.Variant) {
	d.mu.Lock()
	events := d.scanEvents
	d.mu.Unlock()

	if events == nil {
		return
	}

	if device, ok := parseDevice(values); ok {
		events.DeviceFound(device)
	}
}

// devicePropertiesChanged routes device-level state transitions to the
// owning session, and advertisement updates to the scan stream.
func (d *Driver) devicePropertiesChanged(path dbus.ObjectPath, values map[string]dbus.Variant) {
	d.mu.Lock()
	s := d.sessions[path]
	d.mu.Unlock()

	if s == nil {
		return
	}

	if v, ok := values["Connected"]; ok {
		if connected, ok := v.Value().(bool); ok {
			if connected {
				s.events.ConnectionStateChanged(s, driver.StatusSuccess, driver.StateConnected)
			} else {
				s.connectionLost()
			}
		}
	}

	if v, ok := values["ServicesResolved"]; ok {
		if resolved, ok := v.Value().(bool); ok && resolved {
			s.servicesResolved()
		}
	}
}

func (d *Driver) characteristicPropertiesChanged(path dbus.ObjectPath, values map[string]dbus.Variant) {
	v, ok := values["Value"]
	if !ok {
		return
	}

	data, ok := v.Value().([]byte)
	if !ok {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range d.sessions {
		if char, ok := s.characteristicAt(path); ok {
			s.events.CharacteristicChanged(char, data)
			return
		}
	}
}

func (d *Driver) removeSession(path dbus.ObjectPath) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.sessions, path)
}

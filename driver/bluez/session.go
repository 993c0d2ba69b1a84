//go:build linux

package bluez

import (
	"sort"
	"strings"
	"sync"

	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/bluetuith-org/bluetooth-le/driver"
	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

// gattSession is the driver.Session for one BlueZ device object.
type gattSession struct {
	d      *Driver
	path   dbus.ObjectPath
	events driver.SessionEvents

	mu sync.Mutex

	// chars and descs map attribute keys to their GATT object paths,
	// populated by service discovery.
	chars map[string]dbus.ObjectPath
	descs map[string]dbus.ObjectPath
}

var _ driver.Session = (*gattSession)(nil)

// connectionLost is raised when the Connected device property flips off.
// BlueZ does not distinguish a clean disconnect from a dropped link, so
// every loss is reported as a link error and the central's retry policy
// decides the outcome.
func (s *gattSession) connectionLost() {
	s.events.ConnectionStateChanged(s, driver.StatusLinkError, driver.StateDisconnected)
}

// servicesResolved is raised when the daemon finishes resolving the
// device's GATT database.
func (s *gattSession) servicesResolved() {
	services, err := s.collectServices()
	if err != nil {
		s.events.ServicesDiscovered(nil, driver.StatusLinkError)
		return
	}

	s.events.ServicesDiscovered(services, driver.StatusSuccess)
}

// DiscoverServices resolves the GATT database. The daemon resolves it on
// its own after connecting; when the ServicesResolved property is
// already set the result is collected directly.
func (s *gattSession) DiscoverServices() {
	var resolved dbus.Variant

	err := s.object(s.path).
		Call(dbusGetPropertyIface, 0, bluezDeviceIface, "ServicesResolved").
		Store(&resolved)
	if err != nil {
		return
	}

	if done, ok := resolved.Value().(bool); ok && done {
		s.servicesResolved()
	}
}

// RequestTransferSize reports the size as already in effect: the daemon
// negotiates the ATT payload size during connection itself.
func (s *gattSession) RequestTransferSize(size int) {
	go s.events.TransferSizeChanged(size, driver.StatusMtuUnchanged)
}

// ReadCharacteristic requests a characteristic read.
func (s *gattSession) ReadCharacteristic(char ble.Characteristic) bool {
	path, ok := s.characteristicPath(char.UUID)
	if !ok {
		return false
	}

	go func() {
		var data []byte

		err := s.object(path).
			Call(bluezGattCharIface+".ReadValue", 0, map[string]any{}).
			Store(&data)
		if err != nil {
			s.events.CharacteristicRead(char, nil, driver.StatusLinkError)
			return
		}

		if data == nil {
			data = []byte{}
		}

		s.events.CharacteristicRead(char, data, driver.StatusSuccess)
	}()

	return true
}

// WriteCharacteristic requests a characteristic write.
func (s *gattSession) WriteCharacteristic(char ble.Characteristic, data []byte) bool {
	path, ok := s.characteristicPath(char.UUID)
	if !ok {
		return false
	}

	options := map[string]any{"type": "request"}
	if !char.Properties.Has(ble.PropertyWrite) && char.Properties.Has(ble.PropertyWriteWithoutResponse) {
		options["type"] = "command"
	}

	go func() {
		err := s.object(path).
			Call(bluezGattCharIface+".WriteValue", 0, data, options).
			Store()
		if err != nil {
			s.events.CharacteristicWritten(char, driver.StatusLinkError)
			return
		}

		s.events.CharacteristicWritten(char, driver.StatusSuccess)
	}()

	return true
}

// SetNotify toggles value-change notification routing. Payloads arrive
// as Value property changes on the characteristic object.
func (s *gattSession) SetNotify(char ble.Characteristic, enable bool) bool {
	path, ok := s.characteristicPath(char.UUID)
	if !ok {
		return false
	}

	method := ".StopNotify"
	if enable {
		method = ".StartNotify"
	}

	go s.object(path).Call(bluezGattCharIface+method, 0)

	return true
}

// WriteDescriptor requests a descriptor write.
func (s *gattSession) WriteDescriptor(desc ble.Descriptor) bool {
	path, ok := s.descriptorPath(desc.Characteristic, desc.UUID)
	if !ok {
		return false
	}

	go func() {
		err := s.object(path).
			Call(bluezGattDescIface+".WriteValue", 0, desc.Value, map[string]any{}).
			Store()
		if err != nil {
			s.events.DescriptorWritten(desc, driver.StatusLinkError)
			return
		}

		s.events.DescriptorWritten(desc, driver.StatusSuccess)
	}()

	return true
}

// ReadRssi reads the RSSI device property, which the daemon refreshes
// while the device advertises or is connected.
func (s *gattSession) ReadRssi() bool {
	go func() {
		var rssi dbus.Variant

		err := s.object(s.path).
			Call(dbusGetPropertyIface, 0, bluezDeviceIface, "RSSI").
			Store(&rssi)
		if err != nil {
			s.events.RssiRead(0, driver.StatusLinkError)
			return
		}

		value, ok := rssi.Value().(int16)
		if !ok {
			s.events.RssiRead(0, driver.StatusLinkError)
			return
		}

		s.events.RssiRead(value, driver.StatusSuccess)
	}()

	return true
}

// RequestPriority is not mediated by BlueZ: connection parameters are
// managed by the kernel. The request is rejected.
func (s *gattSession) RequestPriority(_ ble.ConnectionPriority) bool {
	return false
}

// Disconnect requests device teardown. The terminal state change arrives
// through the Connected property watch.
func (s *gattSession) Disconnect() {
	go s.object(s.path).Call(bluezDeviceIface+".Disconnect", 0)
}

// Close releases the session and stops signal routing for it.
func (s *gattSession) Close() {
	s.d.removeSession(s.path)
}

func (s *gattSession) object(path dbus.ObjectPath) dbus.BusObject {
	return s.d.systemBus.Object(bluezBusName, path)
}

// collectServices walks the managed object tree below the device path
// and assembles the discovered attribute hierarchy.
func (s *gattSession) collectServices() ([]ble.Service, error) {
	objects, err := s.d.managedObjects()
	if err != nil {
		return nil, err
	}

	prefix := string(s.path) + "/"

	serviceUUIDs := make(map[dbus.ObjectPath]uuid.UUID)
	chars := make(map[dbus.ObjectPath]*ble.Characteristic)
	charServices := make(map[dbus.ObjectPath]dbus.ObjectPath)

	var servicePaths, charPaths, descPaths []dbus.ObjectPath

	for path, object := range objects {
		if !strings.HasPrefix(string(path), prefix) {
			continue
		}

		switch {
		case object[bluezGattServiceIface] != nil:
			servicePaths = append(servicePaths, path)
		case object[bluezGattCharIface] != nil:
			charPaths = append(charPaths, path)
		case object[bluezGattDescIface] != nil:
			descPaths = append(descPaths, path)
		}
	}

	sortPaths(servicePaths)
	sortPaths(charPaths)
	sortPaths(descPaths)

	for _, path := range servicePaths {
		if id, ok := parseUUID(objects[path][bluezGattServiceIface], "UUID"); ok {
			serviceUUIDs[path] = id
		}
	}

	s.mu.Lock()

	for _, path := range charPaths {
		values := objects[path][bluezGattCharIface]

		id, ok := parseUUID(values, "UUID")
		if !ok {
			continue
		}

		servicePath, ok := parseObjectPath(values, "Service")
		if !ok {
			continue
		}

		char := &ble.Characteristic{
			UUID:       id,
			Service:    serviceUUIDs[servicePath],
			Properties: parseFlags(values),
		}

		chars[path] = char
		charServices[path] = servicePath
		s.chars[id.String()] = path
	}

	for _, path := range descPaths {
		values := objects[path][bluezGattDescIface]

		id, ok := parseUUID(values, "UUID")
		if !ok {
			continue
		}

		charPath, ok := parseObjectPath(values, "Characteristic")
		if !ok {
			continue
		}

		char, ok := chars[charPath]
		if !ok {
			continue
		}

		char.Descriptors = append(char.Descriptors, ble.Descriptor{
			UUID:           id,
			Characteristic: char.UUID,
			Service:        char.Service,
		})
		s.descs[char.UUID.String()+"/"+id.String()] = path
	}

	s.mu.Unlock()

	services := make([]ble.Service, 0, len(servicePaths))

	for _, servicePath := range servicePaths {
		svc := ble.Service{UUID: serviceUUIDs[servicePath]}

		for _, charPath := range charPaths {
			if charServices[charPath] == servicePath {
				if char, ok := chars[charPath]; ok {
					svc.Characteristics = append(svc.Characteristics, *char)
				}
			}
		}

		services = append(services, svc)
	}

	return services, nil
}

func (s *gattSession) characteristicPath(id uuid.UUID) (dbus.ObjectPath, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.chars[id.String()]

	return path, ok
}

// characteristicAt resolves a discovered characteristic back from its
// GATT object path, for routing value-change signals.
func (s *gattSession) characteristicAt(path dbus.ObjectPath) (ble.Characteristic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.chars {
		if p == path {
			return ble.Characteristic{UUID: uuid.MustParse(id)}, true
		}
	}

	return ble.Characteristic{}, false
}

func (s *gattSession) descriptorPath(charUUID, descUUID uuid.UUID) (dbus.ObjectPath, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.descs[charUUID.String()+"/"+descUUID.String()]

	return path, ok
}

func sortPaths(paths []dbus.ObjectPath) {
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
}

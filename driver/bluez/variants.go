//go:build linux

package bluez

import (
	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

// bluezFlags maps GATT characteristic flag strings to property bits.
var bluezFlags = map[string]ble.Property{
	"broadcast":              ble.PropertyBroadcast,
	"read":                   ble.PropertyRead,
	"write-without-response": ble.PropertyWriteWithoutResponse,
	"write":                  ble.PropertyWrite,
	"notify":                 ble.PropertyNotify,
	"indicate":               ble.PropertyIndicate,
}

// parseDevice assembles a scan result from a Device1 property map.
func parseDevice(values map[string]dbus.Variant) (ble.DiscoveredDevice, bool) {
	var device ble.DiscoveredDevice

	address, ok := parseString(values, "Address")
	if !ok {
		return device, false
	}

	mac, err := ble.ParseMAC(address)
	if err != nil {
		return device, false
	}

	device.Address = mac
	device.Name, _ = parseString(values, "Name")

	if v, ok := values["RSSI"]; ok {
		if rssi, ok := v.Value().(int16); ok {
			device.RSSI = rssi
		}
	}

	if v, ok := values["UUIDs"]; ok {
		if raw, ok := v.Value().([]string); ok {
			for _, entry := range raw {
				if id, err := uuid.Parse(entry); err == nil {
					device.ServiceUUIDs = append(device.ServiceUUIDs, id)
				}
			}
		}
	}

	return device, true
}

// parseFlags converts a GATT Flags property to property bits.
func parseFlags(values map[string]dbus.Variant) ble.Property {
	var properties ble.Property

	v, ok := values["Flags"]
	if !ok {
		return properties
	}

	flags, ok := v.Value().([]string)
	if !ok {
		return properties
	}

	for _, flag := range flags {
		properties |= bluezFlags[flag]
	}

	return properties
}

// filterUUIDs flattens the non-nil service filters to UUID strings for
// a BlueZ discovery filter.
func filterUUIDs(filters []ble.ScanFilter) []string {
	var uuids []string

	for _, f := range filters {
		if f.ServiceUUID != uuid.Nil {
			uuids = append(uuids, f.ServiceUUID.String())
		}
	}

	return uuids
}

func parseString(values map[string]dbus.Variant, key string) (string, bool) {
	v, ok := values[key]
	if !ok {
		return "", false
	}

	s, ok := v.Value().(string)

	return s, ok
}

func parseUUID(values map[string]dbus.Variant, key string) (uuid.UUID, bool) {
	s, ok := parseString(values, key)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(s)

	return id, err == nil
}

func parseObjectPath(values map[string]dbus.Variant, key string) (dbus.ObjectPath, bool) {
	v, ok := values[key]
	if !ok {
		return "", false
	}

	path, ok := v.Value().(dbus.ObjectPath)

	return path, ok
}

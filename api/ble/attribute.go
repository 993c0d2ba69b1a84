package ble

import (
	"strings"

	"github.com/google/uuid"
)

// Property is a permitted-operation bit exposed by a remote characteristic.
type Property uint8

// The different characteristic property bits.
const (
	PropertyBroadcast Property = 1 << iota
	PropertyRead
	PropertyWriteWithoutResponse
	PropertyWrite
	PropertyNotify
	PropertyIndicate
)

// ClientConfigUUID is the UUID of the client characteristic configuration
// descriptor, which controls notification and indication delivery.
var ClientConfigUUID = uuid.MustParse("00002902-0000-1000-8000-00805f9b34fb")

// Client characteristic configuration values.
var (
	EnableNotificationValue  = []byte{0x01, 0x00}
	EnableIndicationValue    = []byte{0x02, 0x00}
	DisableNotificationValue = []byte{0x00, 0x00}
)

// Has returns if all the provided property bits are set.
func (p Property) Has(bits Property) bool {
	return p&bits == bits
}

var propertyNames = []struct {
	bit  Property
	name string
}{
	{PropertyBroadcast, "broadcast"},
	{PropertyRead, "read"},
	{PropertyWriteWithoutResponse, "write-without-response"},
	{PropertyWrite, "write"},
	{PropertyNotify, "notify"},
	{PropertyIndicate, "indicate"},
}

// String returns the set property bits, pipe-joined.
func (p Property) String() string {
	var s strings.Builder

	for _, entry := range propertyNames {
		if p&entry.bit == 0 {
			continue
		}

		if s.Len() > 0 {
			s.WriteByte('|')
		}

		s.WriteString(entry.name)
	}

	return s.String()
}

// Service describes a remote GATT service and its characteristics.
type Service struct {
	// UUID holds the service UUID.
	UUID uuid.UUID

	// Characteristics holds the discovered characteristics of the service.
	Characteristics []Characteristic
}

// Characteristic describes a remote GATT characteristic.
type Characteristic struct {
	// UUID holds the characteristic UUID.
	UUID uuid.UUID

	// Service holds the UUID of the service the characteristic belongs to.
	Service uuid.UUID

	// Properties holds the permitted-operation bits of the characteristic.
	Properties Property

	// Descriptors holds the discovered descriptors of the characteristic.
	Descriptors []Descriptor
}

// Readable returns if the characteristic permits reads.
func (c Characteristic) Readable() bool {
	return c.Properties&PropertyRead != 0
}

// Writable returns if the characteristic permits writes, with or
// without response.
func (c Characteristic) Writable() bool {
	return c.Properties&(PropertyWrite|PropertyWriteWithoutResponse) != 0
}

// Notifiable returns if the characteristic permits notifications
// or indications.
func (c Characteristic) Notifiable() bool {
	return c.Properties&(PropertyNotify|PropertyIndicate) != 0
}

// ClientConfig returns the client characteristic configuration descriptor,
// if the characteristic carries one.
func (c Characteristic) ClientConfig() (Descriptor, bool) {
	for _, d := range c.Descriptors {
		if d.UUID == ClientConfigUUID {
			return d, true
		}
	}

	return Descriptor{}, false
}

// Descriptor describes a remote GATT descriptor.
type Descriptor struct {
	// UUID holds the descriptor UUID.
	UUID uuid.UUID

	// Characteristic holds the UUID of the owning characteristic.
	Characteristic uuid.UUID

	// Service holds the UUID of the owning service.
	Service uuid.UUID

	// Value holds the value to write, for descriptor write requests.
	Value []byte
}

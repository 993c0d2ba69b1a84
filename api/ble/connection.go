package ble

// Connection identifies one logical device connection. It is a plain
// comparable handle: two Connection values are equal when their device
// addresses are equal, regardless of how many connect attempts were made
// with them. A caller may retain a Connection after its session is torn
// down and reuse it in a later Connect call.
type Connection struct {
	// Address holds the device address used to issue connect calls.
	Address MacAddress
}

// NewConnection returns a connection handle for the given device address.
func NewConnection(address MacAddress) Connection {
	return Connection{Address: address}
}

// String returns the device address of the connection.
func (c Connection) String() string {
	return c.Address.String()
}

package ble

import (
	"github.com/bluetuith-org/bluetooth-le/api/errorkinds"
)

// NumAddressBytes is the total number of bytes in a MacAddress byte array.
const NumAddressBytes = 6

// MacAddress represents a Bluetooth device address, most significant
// byte first.
type MacAddress [NumAddressBytes]byte

// ParseMAC parses the given address, which must be in 11:22:33:AA:BB:CC
// format. If it cannot be parsed, an error is returned.
func ParseMAC(s string) (MacAddress, error) {
	var mac MacAddress

	if len(s) != NumAddressBytes*3-1 {
		return mac, errorkinds.ErrInvalidAddress
	}

	for i := 0; i < NumAddressBytes; i++ {
		if i > 0 && s[i*3-1] != ':' {
			return mac, errorkinds.ErrInvalidAddress
		}

		hi, ok := fromHex(s[i*3])
		lo, ok2 := fromHex(s[i*3+1])
		if !ok || !ok2 {
			return mac, errorkinds.ErrInvalidAddress
		}

		mac[i] = hi<<4 | lo
	}

	return mac, nil
}

// String returns a human-readable version of this address, such as
// 11:22:33:AA:BB:CC.
func (m MacAddress) String() string {
	const hextable = "0123456789ABCDEF"

	buf := make([]byte, 0, NumAddressBytes*3-1)
	for i, b := range m {
		if i > 0 {
			buf = append(buf, ':')
		}

		buf = append(buf, hextable[b>>4], hextable[b&0x0f])
	}

	return string(buf)
}

// IsNil checks if the address is empty.
func (m MacAddress) IsNil() bool {
	return m == MacAddress{}
}

// MarshalText implements encoding.TextMarshaler.
func (m MacAddress) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MacAddress) UnmarshalText(data []byte) error {
	mac, err := ParseMAC(string(data))
	if err != nil {
		return err
	}

	*m = mac

	return nil
}

func fromHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 0xA, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 0xA, true
	}

	return 0, false
}

package hexfmt

import "testing"

func TestBytes(t *testing.T) {
	cases := []struct {
		data []byte
		want string
	}{
		{nil, ""},
		{[]byte{}, ""},
		{[]byte{0x0A}, "0A"},
		{[]byte{0x0A, 0x1B, 0x2C}, "0A-1B-2C"},
		{[]byte{0x00, 0xFF}, "00-FF"},
	}

	for _, c := range cases {
		if got := Bytes(c.data); got != c.want {
			t.Errorf("Bytes(%v) = %q, want %q", c.data, got, c.want)
		}
	}
}

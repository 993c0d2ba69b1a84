//go:build linux

package cmd

import (
	"github.com/bluetuith-org/bluetooth-le/driver"
	"github.com/bluetuith-org/bluetooth-le/driver/bluez"
)

// newDriver returns the BlueZ radio driver.
func newDriver() (driver.Driver, error) {
	return bluez.New()
}

//go:build !linux

package cmd

import (
	"context"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/bluetuith-org/bluetooth-le/api/errorkinds"
	"github.com/bluetuith-org/bluetooth-le/driver"
)

// newDriver reports that no radio driver exists for this platform.
func newDriver() (driver.Driver, error) {
	return nil, fault.Wrap(errorkinds.ErrNoDriver,
		fctx.With(context.Background(), "error_at", "driver-select"),
		ftag.With(ftag.NotFound),
		fmsg.With("No radio driver is available for this platform"),
	)
}

package config

import (
	"time"

	"github.com/bluetuith-org/bluetooth-le/api/helpers/hexfmt"
	"github.com/bluetuith-org/bluetooth-le/api/helpers/logging"
)

const (
	// DefaultConnectRetries is the default number of extra connection
	// attempts made after a link error, on top of the first attempt.
	DefaultConnectRetries = 2

	// DefaultRetryInterval is the default pause before a connection
	// attempt is re-issued after a link error.
	DefaultRetryInterval = 300 * time.Millisecond
)

// Configuration describes a general configuration for a central.
type Configuration struct {
	// TransferSize holds the ATT payload size to negotiate after service
	// discovery. Zero skips negotiation entirely.
	TransferSize int

	// ConnectRetries holds the number of extra connection attempts made
	// after a recoverable link error.
	ConnectRetries int

	// RetryInterval holds the pause between connection attempts.
	RetryInterval time.Duration

	// Logger receives leveled log output. Nil selects the default logger.
	Logger logging.Logger

	// PayloadFormatter renders attribute payloads in log output.
	// Nil selects hexfmt.Bytes.
	PayloadFormatter hexfmt.Formatter
}

// New returns a new configuration with default retry behavior.
func New() Configuration {
	return Configuration{
		ConnectRetries: DefaultConnectRetries,
		RetryInterval:  DefaultRetryInterval,
	}
}

package errorkinds

import "errors"

// The different general error types.
var (
	ErrCentralStart = errors.New("cannot start the central")
	ErrCentralStop  = errors.New("cannot stop the central")
	ErrNoDriver     = errors.New("no radio driver was provided")

	ErrInvalidAddress = errors.New("invalid Bluetooth address")

	ErrNotConnected      = errors.New("device is not connected")
	ErrOperationRejected = errors.New("the adapter rejected the operation")
	ErrNotSupported      = errors.New("the attribute does not support this operation")
	ErrAttributeMissing  = errors.New("a required attribute is missing")
	ErrRadioDisabled     = errors.New("the Bluetooth radio is disabled")
	ErrSystemStatus      = errors.New("the adapter reported an error status")

	ErrCallbackIntegrity = errors.New("the adapter callback violated its contract")
)

// GenericError represents a standard error message.
type GenericError struct {
	// Errors stores all associated errors.
	Errors error `json:"errors,omitempty" doc:"A set of generic errors."`
}

// Error returns the formatted error as string.
func (e GenericError) Error() string {
	return e.Errors.Error()
}

// Unwrap unwraps all errors associated with this error.
func (e GenericError) Unwrap() error {
	return e.Errors
}

package ble

import (
	"fmt"

	"github.com/bluetuith-org/bluetooth-le/api/errorkinds"
)

// FailureKind categorizes a failure by the operation it belongs to.
type FailureKind byte

// The different failure kinds.
const (
	KindNone FailureKind = iota // The zero value for this type.
	KindBluetooth
	KindMtu
	KindRead
	KindWrite
	KindNotification
	KindRssi
	KindIntegrity
)

// FailureReason describes why an operation failed.
type FailureReason byte

// The different failure reasons.
const (
	ReasonNone FailureReason = iota // The zero value for this type.
	ReasonNotConnected
	ReasonOperationFailed
	ReasonMissing
	ReasonRadioDisabled
	ReasonNotSupported
	ReasonSystemError
	ReasonCallbackIntegrity
)

var kindNames = map[FailureKind]string{
	KindNone:         "",
	KindBluetooth:    "bluetooth",
	KindMtu:          "mtu",
	KindRead:         "read",
	KindWrite:        "write",
	KindNotification: "notification",
	KindRssi:         "rssi",
	KindIntegrity:    "callback integrity",
}

var reasonNames = map[FailureReason]string{
	ReasonNone:              "",
	ReasonNotConnected:      "not connected",
	ReasonOperationFailed:   "operation failed",
	ReasonMissing:           "required attribute missing",
	ReasonRadioDisabled:     "radio disabled",
	ReasonNotSupported:      "not supported",
	ReasonSystemError:       "system error",
	ReasonCallbackIntegrity: "callback contract violated",
}

// admissibleReasons constrains each failure kind to the reasons that are
// semantically valid for it.
var admissibleReasons = map[FailureKind][]FailureReason{
	KindBluetooth:    {ReasonNotConnected, ReasonOperationFailed, ReasonRadioDisabled, ReasonSystemError},
	KindMtu:          {ReasonSystemError},
	KindRead:         {ReasonNotConnected, ReasonOperationFailed, ReasonNotSupported, ReasonSystemError},
	KindWrite:        {ReasonNotConnected, ReasonOperationFailed, ReasonNotSupported, ReasonSystemError},
	KindNotification: {ReasonNotConnected, ReasonOperationFailed, ReasonNotSupported, ReasonMissing, ReasonSystemError},
	KindRssi:         {ReasonNotConnected, ReasonOperationFailed, ReasonSystemError},
	KindIntegrity:    {ReasonCallbackIntegrity},
}

// Failure is a tagged failure value delivered through subscriber and
// listener callbacks. It implements error, and unwraps to the matching
// errorkinds sentinel.
type Failure struct {
	// Kind holds the failure category.
	Kind FailureKind

	// Reason holds the category-constrained failure reason.
	Reason FailureReason

	// Code holds the driver status code for ReasonSystemError failures.
	Code int32

	// Detail optionally describes the failure, for integrity failures.
	Detail string
}

// NewFailure returns a failure with the given kind and reason.
func NewFailure(kind FailureKind, reason FailureReason) Failure {
	return Failure{Kind: kind, Reason: reason}
}

// SystemFailure returns a failure carrying a driver status code.
func SystemFailure(kind FailureKind, code int32) Failure {
	return Failure{Kind: kind, Reason: ReasonSystemError, Code: code}
}

// IntegrityFailure returns a failure describing a driver callback that
// structurally violated its contract.
func IntegrityFailure(detail string) Failure {
	return Failure{Kind: KindIntegrity, Reason: ReasonCallbackIntegrity, Detail: detail}
}

// Valid reports whether the failure's reason is admissible for its kind.
func (f Failure) Valid() bool {
	for _, r := range admissibleReasons[f.Kind] {
		if f.Reason == r {
			return true
		}
	}

	return false
}

// Error returns the formatted failure as a string.
func (f Failure) Error() string {
	switch {
	case f.Reason == ReasonSystemError:
		return fmt.Sprintf("%s: %s (status %d)", kindNames[f.Kind], reasonNames[f.Reason], f.Code)
	case f.Detail != "":
		return fmt.Sprintf("%s: %s: %s", kindNames[f.Kind], reasonNames[f.Reason], f.Detail)
	default:
		return fmt.Sprintf("%s: %s", kindNames[f.Kind], reasonNames[f.Reason])
	}
}

// Unwrap maps the failure reason onto its errorkinds sentinel, so that
// errors.Is can match failures against the closed error set.
func (f Failure) Unwrap() error {
	switch f.Reason {
	case ReasonNotConnected:
		return errorkinds.ErrNotConnected
	case ReasonOperationFailed:
		return errorkinds.ErrOperationRejected
	case ReasonMissing:
		return errorkinds.ErrAttributeMissing
	case ReasonRadioDisabled:
		return errorkinds.ErrRadioDisabled
	case ReasonNotSupported:
		return errorkinds.ErrNotSupported
	case ReasonSystemError:
		return errorkinds.ErrSystemStatus
	case ReasonCallbackIntegrity:
		return errorkinds.ErrCallbackIntegrity
	}

	return nil
}

// String returns the name of the failure kind.
func (f FailureKind) String() string {
	return kindNames[f]
}

// String returns the name of the failure reason.
func (f FailureReason) String() string {
	return reasonNames[f]
}

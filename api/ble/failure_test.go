package ble

import (
	"errors"
	"testing"

	"github.com/bluetuith-org/bluetooth-le/api/errorkinds"
)

func TestFailureAdmissibility(t *testing.T) {
	for _, f := range []Failure{
		NewFailure(KindBluetooth, ReasonNotConnected),
		NewFailure(KindBluetooth, ReasonRadioDisabled),
		NewFailure(KindRead, ReasonNotSupported),
		NewFailure(KindWrite, ReasonOperationFailed),
		NewFailure(KindNotification, ReasonMissing),
		NewFailure(KindRssi, ReasonNotConnected),
		SystemFailure(KindMtu, 129),
		IntegrityFailure("no payload"),
	} {
		if !f.Valid() {
			t.Errorf("failure %q must be admissible", f)
		}
	}

	for _, f := range []Failure{
		{},
		NewFailure(KindMtu, ReasonNotConnected),
		NewFailure(KindRead, ReasonRadioDisabled),
		NewFailure(KindRssi, ReasonMissing),
		NewFailure(KindIntegrity, ReasonSystemError),
		NewFailure(KindBluetooth, ReasonCallbackIntegrity),
	} {
		if f.Valid() {
			t.Errorf("failure %q must not be admissible", f)
		}
	}
}

func TestFailureSentinels(t *testing.T) {
	cases := map[FailureReason]error{
		ReasonNotConnected:      errorkinds.ErrNotConnected,
		ReasonOperationFailed:   errorkinds.ErrOperationRejected,
		ReasonMissing:           errorkinds.ErrAttributeMissing,
		ReasonRadioDisabled:     errorkinds.ErrRadioDisabled,
		ReasonNotSupported:      errorkinds.ErrNotSupported,
		ReasonSystemError:       errorkinds.ErrSystemStatus,
		ReasonCallbackIntegrity: errorkinds.ErrCallbackIntegrity,
	}

	for reason, sentinel := range cases {
		var err error = Failure{Kind: KindBluetooth, Reason: reason}
		if !errors.Is(err, sentinel) {
			t.Errorf("reason %q does not unwrap to %v", reason, sentinel)
		}
	}
}

func TestFailureError(t *testing.T) {
	if got := SystemFailure(KindRead, 8).Error(); got != "read: system error (status 8)" {
		t.Errorf("got %q", got)
	}

	if got := IntegrityFailure("no payload").Error(); got != "callback integrity: callback contract violated: no payload" {
		t.Errorf("got %q", got)
	}

	if got := NewFailure(KindWrite, ReasonNotSupported).Error(); got != "write: not supported" {
		t.Errorf("got %q", got)
	}
}

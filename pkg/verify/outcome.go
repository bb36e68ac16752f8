package verify

import (
	"fmt"

	"github.com/yuya-takeyama/checklfs/pkg/pointer"
)

// Kind tags an Outcome.
type Kind string

const (
	KindOK               Kind = "ok"
	KindSizeMismatch     Kind = "size-mismatch"
	KindHashMismatch     Kind = "hash-mismatch"
	KindObjectMissing    Kind = "object-missing"
	KindMalformedPointer Kind = "malformed-pointer"
	KindNotTracked       Kind = "not-tracked"
	KindError            Kind = "error"
)

// Kinds lists every kind in reporting order.
var Kinds = []Kind{
	KindOK,
	KindSizeMismatch,
	KindHashMismatch,
	KindObjectMissing,
	KindMalformedPointer,
	KindNotTracked,
	KindError,
}

// Outcome is the verification result for one path. Only the fields that
// belong to Kind are set.
type Outcome struct {
	Kind Kind `json:"kind"`

	OID string `json:"oid,omitempty"`

	// size-mismatch
	DeclaredSize uint64 `json:"declared_size,omitempty"`
	ActualSize   uint64 `json:"actual_size,omitempty"`

	// hash-mismatch
	ComputedOID string `json:"computed_oid,omitempty"`

	// malformed-pointer
	Reason pointer.Reason `json:"reason,omitempty"`

	// malformed-pointer detail or error text
	Detail string `json:"detail,omitempty"`
}

func OK(oid string) Outcome {
	return Outcome{Kind: KindOK, OID: oid}
}

func SizeMismatch(oid string, declared, actual uint64) Outcome {
	return Outcome{Kind: KindSizeMismatch, OID: oid, DeclaredSize: declared, ActualSize: actual}
}

func HashMismatch(declared, computed string) Outcome {
	return Outcome{Kind: KindHashMismatch, OID: declared, ComputedOID: computed}
}

func ObjectMissing(oid string) Outcome {
	return Outcome{Kind: KindObjectMissing, OID: oid}
}

func MalformedPointer(err *pointer.MalformedError) Outcome {
	return Outcome{Kind: KindMalformedPointer, Reason: err.Reason, Detail: err.Detail}
}

func NotTracked() Outcome {
	return Outcome{Kind: KindNotTracked}
}

func Error(err error) Outcome {
	return Outcome{Kind: KindError, Detail: err.Error()}
}

// Failed reports whether the outcome makes a scan fail.
func (o Outcome) Failed() bool {
	return o.Kind != KindOK && o.Kind != KindNotTracked
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindSizeMismatch:
		return fmt.Sprintf("%s: declared %d bytes, object has %d", o.Kind, o.DeclaredSize, o.ActualSize)
	case KindHashMismatch:
		return fmt.Sprintf("%s: declared %s, computed %s", o.Kind, o.OID, o.ComputedOID)
	case KindObjectMissing:
		return fmt.Sprintf("%s: %s", o.Kind, o.OID)
	case KindMalformedPointer:
		if o.Detail == "" {
			return fmt.Sprintf("%s: %s", o.Kind, o.Reason)
		}
		return fmt.Sprintf("%s: %s: %s", o.Kind, o.Reason, o.Detail)
	case KindError:
		return fmt.Sprintf("%s: %s", o.Kind, o.Detail)
	default:
		return string(o.Kind)
	}
}

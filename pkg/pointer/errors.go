package pointer

import "fmt"

// Reason identifies the pointer rule that was broken.
type Reason string

const (
	ReasonInvalidUTF8          Reason = "invalid-utf8"
	ReasonVersion              Reason = "version"
	ReasonMissingNewline       Reason = "missing-newline"
	ReasonTrailingGarbage      Reason = "trailing-garbage"
	ReasonKeyOrder             Reason = "key-order"
	ReasonMissingOID           Reason = "missing-oid"
	ReasonMissingSize          Reason = "missing-size"
	ReasonUnsupportedAlgorithm Reason = "unsupported-algorithm"
	ReasonInvalidOID           Reason = "invalid-oid"
	ReasonInvalidSize          Reason = "invalid-size"
)

// MalformedError is returned by Decode for data that begins with the
// pointer version line but is not a valid pointer.
type MalformedError struct {
	Reason Reason
	Detail string
}

func (e *MalformedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("malformed pointer: %s", e.Reason)
	}
	return fmt.Sprintf("malformed pointer: %s: %s", e.Reason, e.Detail)
}

func malformed(reason Reason, detail string) *MalformedError {
	return &MalformedError{Reason: reason, Detail: detail}
}

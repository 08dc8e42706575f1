package types

import (
	"errors"

	"github.com/joshuapare/vhdxkit/internal/format"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindSignature   ErrKind = iota // structure magic did not match
	ErrKindChecksum                   // stored CRC32C disagrees with the block
	ErrKindUnsupported                // unrecognised object id marked required
	ErrKindBounds                     // count/length exceeds declared region or fixed maximum
	ErrKindRedundancy                 // redundant header/region copies disagree
	ErrKindDegenerate                 // derived quantity unusable (zero chunk ratio)
	ErrKindMissingField               // absent locator, unknown key, malformed linkage
	ErrKindInvalidState               // BAT entry state code outside the defined set
	ErrKindIO                         // short read, unreadable offset, open failure
	ErrKindLinkage                    // parent disk does not match child's linkage ids
)

var kindNames = [...]string{
	ErrKindSignature:    "malformed signature",
	ErrKindChecksum:     "checksum mismatch",
	ErrKindUnsupported:  "unsupported required feature",
	ErrKindBounds:       "structural bounds violation",
	ErrKindRedundancy:   "inconsistent redundancy",
	ErrKindDegenerate:   "degenerate computation",
	ErrKindMissingField: "missing expected field",
	ErrKindInvalidState: "invalid state code",
	ErrKindIO:           "i/o failure",
	ErrKindLinkage:      "parent linkage mismatch",
}

func (k ErrKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown error kind"
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// sentinelKinds maps the internal format sentinels onto public kinds.
var sentinelKinds = []struct {
	err  error
	kind ErrKind
}{
	{format.ErrSignatureMismatch, ErrKindSignature},
	{format.ErrChecksumMismatch, ErrKindChecksum},
	{format.ErrUnsupportedRequired, ErrKindUnsupported},
	{format.ErrBounds, ErrKindBounds},
	{format.ErrRedundancy, ErrKindRedundancy},
	{format.ErrDegenerate, ErrKindDegenerate},
	{format.ErrMissingField, ErrKindMissingField},
	{format.ErrInvalidState, ErrKindInvalidState},
	{format.ErrLinkageMismatch, ErrKindLinkage},
	{format.ErrIO, ErrKindIO},
}

// Wrap converts err into a *Error, classifying it by the format sentinel it
// wraps. Errors that are already typed are returned unchanged; anything
// unrecognised is reported as an I/O failure. msg prefixes the message.
func Wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	kind := ErrKindIO
	for _, s := range sentinelKinds {
		if errors.Is(err, s.err) {
			kind = s.kind
			break
		}
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind, true
	}
	return 0, false
}

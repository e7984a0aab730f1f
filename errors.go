// Package forest is a document storage library layered over the engine
// package. Documents live in named key-value stores inside one database file
// and carry a tree of revisions.
//
// Every operation that can fail reports exactly one Error. An Error is either
// Native, wrapping a status code produced by the storage engine, or
// Extension, naming a failure the engine has no vocabulary for (a malformed
// revision ID, a stored revision tree that fails its consistency checks).
// Callers branch on Kind, compare against the sentinels with errors.Is, or
// read the numeric Code for interop with code that speaks integers.
package forest

import (
	"errors"
	"strconv"

	"github.com/jpl-au/forest/engine"
)

// Kind is the partition an Error belongs to.
type Kind uint8

const (
	Native    Kind = iota // Status code owned by the storage engine
	Extension             // Cause defined by this package
)

func (k Kind) String() string {
	switch k {
	case Native:
		return "native"
	case Extension:
		return "extension"
	default:
		return "unknown"
	}
}

// Cause enumerates the failures this package defines on top of the engine.
// The values are part of the public contract. New causes take the next
// value below the lowest existing one; retired values are never reused.
type Cause int

const (
	BadRevisionID       Cause = -1000 // Revision ID does not parse
	CorruptRevisionData Cause = -1001 // Stored revision tree fails consistency checks
)

// maxCause is the numerically largest cause code.
const maxCause = BadRevisionID

// Every engine status must sort above every cause. This constant overflows
// uint, and the package stops compiling, if the engine ever emits a code at
// or below maxCause.
const _ = uint(int(engine.MinStatus) - int(maxCause) - 1)

var causes = map[Cause]string{
	BadRevisionID:       "malformed revision ID",
	CorruptRevisionData: "corrupt revision data",
}

const unknownMessage = "unknown error"

// String returns the cause's description.
func (c Cause) String() string {
	if msg, ok := causes[c]; ok {
		return msg
	}
	return unknownMessage
}

// Error is the failure value returned by this package. It is a small
// comparable value: two Errors are equal exactly when their codes are equal.
// The zero value is not meaningful; use FromStatus, FromCause or FromCode.
type Error struct {
	kind   Kind
	status engine.Status
	cause  Cause
}

// Sentinels for errors.Is.
var (
	ErrBadRevisionID       = FromCause(BadRevisionID)
	ErrCorruptRevisionData = FromCause(CorruptRevisionData)
	ErrNotFound            = FromStatus(engine.StatusKeyNotFound)
)

// FromStatus returns the Error for an engine status. The status is stored
// unchanged.
func FromStatus(s engine.Status) Error {
	return Error{kind: Native, status: s}
}

// FromCause returns the Error for a cause defined by this package.
func FromCause(c Cause) Error {
	return Error{kind: Extension, cause: c}
}

// FromCode rebuilds an Error from its numeric code. Codes of defined causes
// become Extension errors; every other code is taken to be an engine status.
func FromCode(code int) Error {
	if _, ok := causes[Cause(code)]; ok {
		return FromCause(Cause(code))
	}
	return FromStatus(engine.Status(code))
}

// Code returns the numeric code identifying the error.
func (e Error) Code() int {
	if e.kind == Extension {
		return int(e.cause)
	}
	return int(e.status)
}

// Kind reports which partition the error belongs to.
func (e Error) Kind() Kind {
	return e.kind
}

// Status returns the engine status of a Native error.
func (e Error) Status() (engine.Status, bool) {
	return e.status, e.kind == Native
}

// Cause returns the cause of an Extension error.
func (e Error) Cause() (Cause, bool) {
	return e.cause, e.kind == Extension
}

// Message describes the error. Native codes are described by the engine,
// causes by this package. Codes neither knows yield "unknown error".
func (e Error) Message() string {
	if e.kind == Extension {
		return e.cause.String()
	}
	return e.status.String()
}

func (e Error) Error() string {
	return "forest: " + e.Message() + " (" + strconv.Itoa(e.Code()) + ")"
}

// Unwrap exposes the engine status of a Native error so that errors.Is and
// errors.As can match engine.Status values directly.
func (e Error) Unwrap() error {
	if e.kind == Native {
		return e.status
	}
	return nil
}

// Describe returns the message for an arbitrary code. It never returns an
// empty string.
func Describe(code int) string {
	return FromCode(code).Message()
}

// AsError finds the first Error in err's chain.
func AsError(err error) (Error, bool) {
	var e Error
	ok := errors.As(err, &e)
	return e, ok
}

// native converts an error returned by the engine into an Error. The engine
// only returns Status values; anything else is passed through untouched.
func native(err error) error {
	if err == nil {
		return nil
	}
	var s engine.Status
	if errors.As(err, &s) {
		return FromStatus(s)
	}
	return err
}

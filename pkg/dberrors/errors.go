// Package dberrors defines the engine's tagged error kinds, promoted from
// a flat success/failure return code into errors a caller can inspect
// with errors.Is.
package dberrors

import "errors"

// Kind classifies a failure into one of five buckets callers branch on.
type Kind int

const (
	// IO covers a failed open/read/write/append at the pagedfile layer.
	IO Kind = iota
	// NotFound covers a tombstoned RID, a missing key/entry, or an unknown
	// attribute/table name.
	NotFound
	// Exists covers a file already present, a duplicate (key, rid) insert,
	// or a duplicate table/index name.
	Exists
	// Invalid covers an oversized tuple, a type mismatch, or an operation
	// against a system table/tuple.
	Invalid
	// Corrupt covers a violated on-disk structural invariant. Treated as
	// fatal in the reference; kept as a normal error here since a caller
	// may still want to log and abort cleanly instead of panicking.
	Corrupt
)

// Error satisfies the error interface so a bare Kind value can be passed
// as the target of errors.Is (see (*Error).Is below).
func (k Kind) Error() string {
	return k.String()
}

func (k Kind) String() string {
	switch k {
	case IO:
		return "io"
	case NotFound:
		return "not_found"
	case Exists:
		return "exists"
	case Invalid:
		return "invalid"
	case Corrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Error is a relstore error tagged with a Kind, so callers can branch on
// errors.Is(err, dberrors.NotFound) without string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, dberrors.NotFound) work directly against a Kind
// value in addition to the five sentinel errors below.
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	return false
}

// New builds a tagged error. op names the failing operation, e.g.
// "recordstore.Insert".
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinel errors for the common no-detail cases, so call sites can do
// `return dberrors.ErrNotFound` instead of building an *Error by hand.
var (
	ErrIO       = New(IO, "io", errors.New("i/o failure"))
	ErrNotFound = New(NotFound, "lookup", errors.New("not found"))
	ErrExists   = New(Exists, "create", errors.New("already exists"))
	ErrInvalid  = New(Invalid, "validate", errors.New("invalid operation"))
	ErrCorrupt  = New(Corrupt, "invariant", errors.New("on-disk structure corrupt"))
)

// Of reports the Kind of err, or a zero Kind and false if err is not one of
// ours.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err is (or wraps) a relstore error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := Of(err)
	return ok && k == kind
}

package engine

import "fmt"

// Kind is a typed failure class. Each Kind maps to exactly one HTTP status
// at the REST boundary (see internal/rest). Replaces the teacher source's
// exception hierarchy with a tagged sum type, per spec.md §9.
type Kind int8

const (
	_ Kind = iota
	InvalidArgument
	RefAlreadyExists
	MarketNotFound
	InstrumentNotFound
	TradeNotFound
	OrderNotFound
	MarketClosed
	TooLate
	AlreadyExists
	Unauthorized
	Forbidden
	JournalFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case RefAlreadyExists:
		return "RefAlreadyExists"
	case MarketNotFound:
		return "MarketNotFound"
	case InstrumentNotFound:
		return "InstrumentNotFound"
	case TradeNotFound:
		return "TradeNotFound"
	case OrderNotFound:
		return "OrderNotFound"
	case MarketClosed:
		return "MarketClosed"
	case TooLate:
		return "TooLate"
	case AlreadyExists:
		return "AlreadyExists"
	case Unauthorized:
		return "Unauthorized"
	case Forbidden:
		return "Forbidden"
	case JournalFailure:
		return "JournalFailure"
	default:
		return "Unknown"
	}
}

// Error is the core's only error type. Phase-1 (reserve) failures carry no
// side effects; Phase-2 (commit / journal) failures are only ever returned
// after any Phase-1 book insertion has been unwound.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func newErrorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// AsError unwraps err into a *Error, reporting whether it is one.
func AsError(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}

// AsErrorOrWrap returns err unchanged if it is already a *Error, or wraps
// it as kind otherwise. Used at collaborator boundaries (REST decoding,
// query parsing) that produce plain errors the core never would.
func AsErrorOrWrap(err error, kind Kind) error {
	if _, ok := AsError(err); ok {
		return err
	}
	return newErrorf(kind, "%v", err)
}

// NewInvalidArgument is a convenience constructor for callers outside this
// package (e.g. internal/rest) that need to report a validation failure
// using the core's own error taxonomy.
func NewInvalidArgument(msg string) error { return newError(InvalidArgument, msg) }

// NewNotFound is the not-found analogue of NewInvalidArgument, for
// collaborators reporting a missing resource of the given kind.
func NewNotFound(kind Kind, msg string) error { return newError(kind, msg) }

package types

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindBounds   ErrKind = iota // access outside the device (offset+length > size)
	ErrKindState                   // invalid operation for current state (e.g., closed)
	ErrKindConfig                  // invalid construction parameters
	ErrKindResource                // the host could not provide a resource (memory)
)

// String returns the category name.
func (k ErrKind) String() string {
	switch k {
	case ErrKindBounds:
		return "bounds"
	case ErrKindState:
		return "state"
	case ErrKindConfig:
		return "config"
	case ErrKindResource:
		return "resource"
	default:
		return "unknown"
	}
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

// Is matches any *Error of the same kind, so wrapped sentinels with extra
// context still satisfy errors.Is(err, ErrOutOfBounds).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && (t.Msg == "" || e.Msg == t.Msg)
}

// Sentinels commonly returned by implementations.
var (
	// ErrOutOfBounds indicates a read or write reaching past the device end.
	ErrOutOfBounds = &Error{Kind: ErrKindBounds, Msg: "access out of bounds"}
	// ErrClosed indicates use of a device or engine after Close.
	ErrClosed = &Error{Kind: ErrKindState, Msg: "device closed"}
	// ErrStarted indicates a second Start on a scheduler or device.
	ErrStarted = &Error{Kind: ErrKindState, Msg: "already started"}
	// ErrInvalidConfig indicates unusable construction parameters.
	ErrInvalidConfig = &Error{Kind: ErrKindConfig, Msg: "invalid configuration"}
	// ErrAlloc indicates the buffer pair could not be allocated.
	ErrAlloc = &Error{Kind: ErrKindResource, Msg: "buffer allocation failed"}
)

// Errorf returns a new error of the given kind wrapping cause.
func Errorf(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

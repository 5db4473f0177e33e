package secrets

import (
	"errors"
	"strings"
)

// Kind classifies a secrets failure so callers can branch on it.
type Kind int

const (
	// KindInvocation means the backend command could not be started.
	KindInvocation Kind = iota + 1
	// KindBackend means the backend command ran and reported failure.
	KindBackend
	// KindParse means the backend output was not the expected JSON shape.
	KindParse
	// KindIO means the cache file could not be created, written, read or removed.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindInvocation:
		return "invocation error"
	case KindBackend:
		return "backend error"
	case KindParse:
		return "parse error"
	case KindIO:
		return "io error"
	default:
		return "unknown error"
	}
}

// Error is the single error type returned by this package and by the cache
// fetcher built on top of it.
type Error struct {
	Kind Kind
	// Op names what was being attempted, e.g. the backend binary or "write cache".
	Op string
	// Detail carries the backend's diagnostic output or a validation message.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// NewIOError wraps a filesystem failure.
func NewIOError(op string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}

func newParseError(detail string) *Error {
	return &Error{Kind: KindParse, Op: "decode secrets", Detail: detail}
}

// Package apperrors provides error values that form derivation chains.
// A value derived from a sentinel satisfies errors.Is against it, so callers
// can match on any ancestor while still seeing the detailed message.
package apperrors

type Error interface {
	Error() string
	// ErrorAll includes the wrapped errors when expansion is on.
	ErrorAll() string
	// New returns a child sentinel with its own message and the parent's kind.
	New(msg string) Error
	MsgErr(msg string, err ...error) Error
	Msg(msg string) Error
	Prefix(prefix string) Error
	Suffix(suffix string) Error
	Err(err ...error) Error
	Unwrap() []error
	Is(target error) bool
	SetExpandError(expand bool) Error
	// SetKind tags the receiver in place. Use it only where a sentinel is defined.
	SetKind(kind Kind) Error
	Kind() Kind
}

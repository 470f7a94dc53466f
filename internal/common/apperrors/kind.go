package apperrors

import "errors"

// Kind tags an error with the category a caller can act on.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindAlreadyExists
	KindInvalidInput
	KindIntegrity
	KindConnection
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindInvalidInput:
		return "invalid_input"
	case KindIntegrity:
		return "integrity"
	case KindConnection:
		return "connection"
	case KindTransaction:
		return "transaction"
	default:
		return "internal"
	}
}

// KindOf returns the kind of the first Error found in err's chain.
// Errors that did not originate here are KindInternal.
func KindOf(err error) Kind {
	var e Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindInternal
}

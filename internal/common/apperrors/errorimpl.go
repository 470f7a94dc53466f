package apperrors

import "strings"

// appError implements the apperrors.Error interface.
// Modifiers other than SetKind return a derived copy and leave the receiver untouched.
type appError struct {
	msg           string
	base          Error
	wrappedErrors []error
	kind          Kind
	expandError   bool
	prefix        string
	suffix        string
}

func (e *appError) Error() string {
	msg := e.msg
	if e.prefix != "" {
		msg = e.prefix + ": " + msg
	}
	if e.suffix != "" {
		msg += ": " + e.suffix
	}
	return msg
}

func (e *appError) ErrorAll() string {
	if !e.expandError || len(e.wrappedErrors) == 0 {
		return e.Error()
	}
	msgs := make([]string, 0, len(e.wrappedErrors))
	for _, err := range e.wrappedErrors {
		msgs = append(msgs, err.Error())
	}
	return e.Error() + ": " + strings.Join(msgs, ";")
}

func (e *appError) Unwrap() []error {
	return e.wrappedErrors
}

// derive returns a copy of e whose base is e, so that errors.Is(copy, e) holds.
func (e *appError) derive() *appError {
	d := *e
	d.base = e
	d.wrappedErrors = append([]error(nil), e.wrappedErrors...)
	return &d
}

func (e *appError) New(msg string) Error {
	return &appError{
		msg:  msg,
		kind: e.kind,
		base: e,
	}
}

func (e *appError) Msg(msg string) Error {
	d := e.derive()
	d.msg = msg
	return d
}

func (e *appError) Prefix(prefix string) Error {
	d := e.derive()
	d.prefix = prefix
	return d
}

func (e *appError) Suffix(suffix string) Error {
	d := e.derive()
	d.suffix = suffix
	return d
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	d := e.derive()
	d.msg = msg
	d.wrappedErrors = append(d.wrappedErrors, err...)
	return d
}

func (e *appError) Err(err ...error) Error {
	d := e.derive()
	d.wrappedErrors = append(d.wrappedErrors, err...)
	return d
}

func (e *appError) Is(target error) bool {
	if e == target || e.base == target {
		return true
	}
	if e.base != nil && e.base.Is(target) {
		return true
	}
	return false
}

func (e *appError) SetExpandError(expand bool) Error {
	d := e.derive()
	d.expandError = expand
	return d
}

func (e *appError) SetKind(kind Kind) Error {
	e.kind = kind
	return e
}

func (e *appError) Kind() Kind {
	return e.kind
}

func New(msg string) Error {
	return &appError{
		msg: msg,
	}
}

package model

import "errors"

// Sentinel error kinds shared by every layer. Callers classify failures with
// errors.Is(err, model.ErrNotFound) and friends.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage error")
)

// Error carries an operation name and an error kind alongside an optional
// human-readable message and cause.
type Error struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

// Error returns the message shown to API clients.
func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	case e.Kind != nil:
		return e.Kind.Error()
	default:
		return "unknown error"
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewKind builds an error of the given kind with a message.
func NewKind(op string, kind error, msg string) error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// WrapKind tags err with kind. Wrapping an error that already carries the
// same kind returns it unchanged so messages are not nested.
func WrapKind(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf reports the taxonomy kind of err, or nil when err is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrStorage} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

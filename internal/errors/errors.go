package errors

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeMalformedState ErrorType = "MALFORMED_STATE"
	ErrTypeInvalidInput   ErrorType = "INVALID_INPUT"
	ErrTypeInternal       ErrorType = "INTERNAL"
)

// DomainError carries an error type alongside the wrapped cause and a
// captured stack trace.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// NotFound is reserved for genuinely missing resources, such as a restore
// path that does not exist. Unknown identifiers are reported as nil
// results, not errors.
func NotFound(message string, err error) *DomainError {
	return New(ErrTypeNotFound, message, err)
}

// MalformedState signals persisted state that does not conform to the
// expected shape. Load fails outright rather than dropping entries.
func MalformedState(message string, err error) *DomainError {
	return New(ErrTypeMalformedState, message, err)
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

// IsType reports whether err is a DomainError of the given type.
func IsType(err error, errType ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == errType
	}
	return false
}

func IsNotFound(err error) bool {
	return IsType(err, ErrTypeNotFound)
}

package errs

import (
	"errors"
	"strings"
)

// Kind classifies a domain error.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindTransport is a network failure or a non-success HTTP status from
	// the upstream endpoint.
	KindTransport
	// KindDecode is malformed JSON, either in an upstream response or in a
	// stored set blob.
	KindDecode
	// KindStorage is a connection, schema, or transaction failure.
	KindStorage
	// KindValidation is malformed filter input.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport error"
	case KindDecode:
		return "decode error"
	case KindStorage:
		return "storage error"
	case KindValidation:
		return "validation error"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is checks against a kind.
var (
	ErrTransport  = &Error{Kind: KindTransport}
	ErrDecode     = &Error{Kind: KindDecode}
	ErrStorage    = &Error{Kind: KindStorage}
	ErrValidation = &Error{Kind: KindValidation}
)

// Error is a classified failure of one operation.
type Error struct {
	Kind Kind
	// Op names the failing operation, e.g. "fetcher.Fetch".
	Op      string
	Message string
	// Detail carries diagnostic text such as an upstream response body.
	Detail string
	// Status is the upstream HTTP status for transport errors, zero otherwise.
	Status int
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Transport builds a KindTransport error.
func Transport(op, message string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Message: message, Err: err}
}

// Decode builds a KindDecode error.
func Decode(op, message string, err error) *Error {
	return &Error{Kind: KindDecode, Op: op, Message: message, Err: err}
}

// Storage builds a KindStorage error.
func Storage(op, message string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Message: message, Err: err}
}

// Validation builds a KindValidation error listing the offending fields.
func Validation(op, message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Fields: fields}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

package query

import (
	"errors"
	"fmt"
)

// Code classifies a failure of the query layer. Codes are stable integers
// that callers may log or compare.
type Code int

const (
	CodeOK Code = iota
	CodeNoEngine
	CodeUnsupportedEngine
	CodeArgument
	CodeType
	CodeBind
	CodePrepare
	CodeExecute
	CodeFetch
	CodeResource
)

// String returns a short name for the code.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeNoEngine:
		return "no engine configured"
	case CodeUnsupportedEngine:
		return "unsupported engine"
	case CodeArgument:
		return "argument error"
	case CodeType:
		return "type error"
	case CodeBind:
		return "bind error"
	case CodePrepare:
		return "prepare error"
	case CodeExecute:
		return "execute error"
	case CodeFetch:
		return "fetch error"
	case CodeResource:
		return "resource error"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error is the error type returned by the query layer.
type Error struct {
	Code Code
	// Op names the descriptor or stage that failed.
	Op string
	// Engine is the backend the failure came from, empty for local checks.
	Engine string
	// EngineCode is the native error number reported by the engine, if any.
	EngineCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Engine != "" {
		msg = e.Engine + ": " + msg
	}
	if e.EngineCode != 0 {
		msg = fmt.Sprintf("%s (engine code %d)", msg, e.EngineCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so the sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrNoEngine          = &Error{Code: CodeNoEngine}
	ErrUnsupportedEngine = &Error{Code: CodeUnsupportedEngine}
	ErrArgument          = &Error{Code: CodeArgument}
	ErrType              = &Error{Code: CodeType}
	ErrBind              = &Error{Code: CodeBind}
	ErrPrepare           = &Error{Code: CodePrepare}
	ErrExecute           = &Error{Code: CodeExecute}
	ErrFetch             = &Error{Code: CodeFetch}
	ErrResource          = &Error{Code: CodeResource}
)

// Errorf builds an *Error with a formatted cause.
func Errorf(code Code, op string, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain. A nil error is
// CodeOK; an error from outside the layer is CodeExecute.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code
	}
	return CodeExecute
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	c := CodeOf(err)
	return c == CodeNoEngine || c == CodeUnsupportedEngine
}

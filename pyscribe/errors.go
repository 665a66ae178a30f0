package pyscribe

import (
	"errors"
	"fmt"
)

// ErrorCode classifies the failures returned by this package.
type ErrorCode string

const (
	CodeEmptyContent          ErrorCode = "EMPTY_CONTENT"
	CodeUnterminatedDocstring ErrorCode = "UNTERMINATED_DOCSTRING"
	CodeSyntax                ErrorCode = "SYNTAX_ERROR"
	CodeIO                    ErrorCode = "IO_ERROR"
)

// Context keys attached to errors.
const (
	CtxPath   = "path"
	CtxModule = "module"
)

// Error is the error type returned by Parse, ParseWithModule and ParseFiles.
type Error struct {
	Code    ErrorCode
	Message string
	// Line is the 1-based line of the failure. It is set for
	// CodeUnterminatedDocstring (the opening delimiter) and CodeSyntax.
	Line int
	// Column is set for CodeSyntax.
	Column  int
	Err     error
	Context map[string]any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg = fmt.Sprintf("%s %v", msg, e.Context)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithContext attaches a key/value pair and returns the error for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsCode reports whether err is, or wraps, an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// AddContext attaches context to err if it is an *Error. Other errors are
// returned unchanged.
func AddContext(err error, key string, value any) error {
	var pe *Error
	if errors.As(err, &pe) {
		pe.WithContext(key, value)
	}
	return err
}

// IOError wraps a failure to read path.
func IOError(path string, err error) *Error {
	return (&Error{
		Code:    CodeIO,
		Message: "failed to read file",
		Err:     err,
	}).WithContext(CtxPath, path)
}

func emptyContent() *Error {
	return &Error{Code: CodeEmptyContent, Message: "content is empty"}
}

func unterminatedDocstring(line int) *Error {
	return &Error{
		Code:    CodeUnterminatedDocstring,
		Message: fmt.Sprintf("unterminated docstring starting at line %d", line),
		Line:    line,
	}
}

func syntaxError(diagnostic string, pos position) *Error {
	return &Error{
		Code:    CodeSyntax,
		Message: diagnostic,
		Line:    pos.Line,
		Column:  pos.Column,
	}
}

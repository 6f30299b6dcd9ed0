// Package apierr classifies failures of calls to the object server.
//
// Every failure carries a stable Kind so callers can branch without looking at
// free-text messages:
//
//	KindIO          the response could not be read (transport / body I/O)
//	KindHTTPStatus  the server answered with a non-200 status
//	KindParse       a 200 answer whose payload could not be decoded
//
// Classification is ordered: I/O first, then status, then payload.
// Use errors.Is with ErrIO, ErrHTTPStatus or ErrParse to test the kind.
package apierr

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind is the stable identifier of a failure class.
type Kind int

const (
	KindUnknown Kind = iota
	KindIO
	KindHTTPStatus
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IO_FAILURE"
	case KindHTTPStatus:
		return "HTTP_STATUS_ERROR"
	case KindParse:
		return "PARSE_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Sentinels matched by (*Error).Is.
var (
	ErrIO         = errors.New("io failure")
	ErrHTTPStatus = errors.New("http status error")
	ErrParse      = errors.New("parse failure")
)

func sentinel(k Kind) error {
	switch k {
	case KindIO:
		return ErrIO
	case KindHTTPStatus:
		return ErrHTTPStatus
	case KindParse:
		return ErrParse
	}
	return nil
}

// Error is a classified failure. It is never modified after construction.
type Error struct {
	kind       Kind
	cause      error
	message    string
	statusCode int
	serverCode ServerCode
	problem    string
	title      string
	hint       string
}

// NewIO classifies a failure to read a response.
func NewIO(cause error) *Error {
	return &Error{
		kind:    KindIO,
		cause:   errors.Wrap(cause, "read response"),
		message: "network or i/o failure",
	}
}

// NewParse classifies a response payload that could not be decoded.
func NewParse(cause error) *Error {
	return &Error{
		kind:    KindParse,
		cause:   errors.Wrap(cause, "decode response"),
		message: "malformed response payload",
	}
}

// problemBody is the error document the server sends with non-200 answers.
type problemBody struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Code   int    `json:"code"`
	Hint   string `json:"hint"`
}

// FromResponse builds the error for a readable response with a non-200 status.
// The result always has KindHTTPStatus and the given status code, whether or
// not the body could be decoded.
func FromResponse(body string, statusCode int) *Error {
	e := &Error{kind: KindHTTPStatus, statusCode: statusCode}

	var p problemBody
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		e.cause = errors.Wrap(err, "decode error body")
		e.message = fmt.Sprintf("server failed with status %d, but the error could not be parsed", statusCode)
		return e
	}

	e.serverCode = ServerCode(p.Code)
	e.problem = p.Type
	e.title = p.Title
	e.hint = p.Hint
	e.message = p.Title
	if e.message == "" {
		e.message = http.StatusText(statusCode)
	}
	return e
}

func (e *Error) Error() string {
	s := e.kind.String()
	if e.statusCode != 0 {
		s += " " + strconv.Itoa(e.statusCode)
	}
	if e.message != "" {
		s += ": " + e.message
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s := sentinel(e.kind)
	return s != nil && target == s
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Kind() Kind { return e.kind }

// StatusCode is the HTTP status of the response, zero unless KindHTTPStatus.
func (e *Error) StatusCode() int { return e.statusCode }

// ServerCode is the application code from the server's error body, if any.
func (e *Error) ServerCode() ServerCode { return e.serverCode }

func (e *Error) Title() string { return e.title }

func (e *Error) Hint() string { return e.hint }

// ProblemType is the "type" URI of the server's error body.
func (e *Error) ProblemType() string { return e.problem }

// ErrorHint exposes the server hint to errors.GetAllHints.
func (e *Error) ErrorHint() string { return e.hint }

// Package apperr provides the structured error taxonomy shared by every
// component: a small set of sentinel markers, a wrapping error type that
// carries operation context, and a classification used to pick an RPC
// status at the coordinator/drive-controller boundary.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIO           = errors.New("io error")
	ErrPrecondition = errors.New("precondition failed")
	ErrNotFound     = errors.New("not found")
	ErrDecode       = errors.New("decode error")
	ErrOCR          = errors.New("ocr error")
	ErrAuth         = errors.New("authentication error")
	ErrTemporary    = errors.New("temporary failure")
)

// Kind captures the taxonomy of errors described in the error handling design.
type Kind string

const (
	KindIO           Kind = "io"
	KindPrecondition Kind = "precondition"
	KindNotFound     Kind = "not_found"
	KindDecode       Kind = "decode"
	KindOCR          Kind = "ocr"
	KindAuth         Kind = "auth"
	KindTemporary    Kind = "temporary"
)

// Error is the structured error value produced by Wrap and friends. Every
// component boundary (blob store, ripper bridge, catalog client, ...)
// returns these instead of bare fmt.Errorf values so that callers can
// classify failures without string matching.
type Error struct {
	Marker    error
	Kind      Kind
	Component string
	Operation string
	Message   string
	Code      string
	Hint      string
	Cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	detail := buildDetail(e.Component, e.Operation, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", detail, e.Cause)
	}
	return detail
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	if e.Marker != nil && errors.Is(e.Marker, target) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// Details is a snapshot of an *Error suitable for structured logging.
type Details struct {
	Kind      Kind
	Component string
	Operation string
	Message   string
	Code      string
	Hint      string
	Cause     error
}

// ExtractDetails pulls a Details snapshot out of err when it wraps an *Error,
// and otherwise reports it as an unclassified temporary failure.
func ExtractDetails(err error) Details {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return Details{
			Kind:      appErr.Kind,
			Component: appErr.Component,
			Operation: appErr.Operation,
			Message:   strings.TrimSpace(appErr.Message),
			Code:      strings.TrimSpace(appErr.Code),
			Hint:      strings.TrimSpace(appErr.Hint),
			Cause:     appErr.Cause,
		}
	}
	return Details{Kind: KindTemporary, Message: strings.TrimSpace(errMsg(err)), Cause: err}
}

// Wrap builds a component error tagged with marker for later classification.
func Wrap(marker error, component, operation, message string, cause error) error {
	return wrap(marker, component, operation, message, cause)
}

// WrapHint attaches a stable code and operator hint to the resulting error.
func WrapHint(marker error, component, operation, message, code, hint string, cause error) error {
	return wrap(marker, component, operation, message, cause, withCode(code), withHint(hint))
}

type option func(*Error)

func withCode(code string) option {
	return func(e *Error) {
		if e != nil {
			e.Code = strings.TrimSpace(code)
		}
	}
}

func withHint(hint string) option {
	return func(e *Error) {
		if e != nil {
			e.Hint = strings.TrimSpace(hint)
		}
	}
}

func wrap(marker error, component, operation, message string, cause error, opts ...option) error {
	if marker == nil {
		marker = ErrTemporary
	}
	kind, code := classify(marker)
	out := &Error{
		Marker:    marker,
		Kind:      kind,
		Component: strings.TrimSpace(component),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Code:      code,
		Cause:     cause,
	}
	if cause != nil {
		var nested *Error
		if errors.As(cause, &nested) && nested != nil {
			if nested.Code != "" {
				out.Code = nested.Code
			}
			if out.Hint == "" {
				out.Hint = nested.Hint
			}
		}
	}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// RPCCode maps an error to the nearest gRPC-style status code for the
// coordinator/drive-controller transport boundary. The transport itself is
// out of scope; only the classification is.
func RPCCode(err error) string {
	d := ExtractDetails(err)
	switch d.Kind {
	case KindNotFound:
		return "NOT_FOUND"
	case KindPrecondition, KindDecode:
		return "FAILED_PRECONDITION"
	case KindAuth:
		return "UNAUTHENTICATED"
	case KindTemporary:
		return "UNAVAILABLE"
	case KindIO, KindOCR:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "error"
	}
	return strings.Join(parts, ": ")
}

func classify(marker error) (Kind, string) {
	switch {
	case errors.Is(marker, ErrIO):
		return KindIO, "E_IO"
	case errors.Is(marker, ErrPrecondition):
		return KindPrecondition, "E_PRECONDITION"
	case errors.Is(marker, ErrNotFound):
		return KindNotFound, "E_NOT_FOUND"
	case errors.Is(marker, ErrDecode):
		return KindDecode, "E_DECODE"
	case errors.Is(marker, ErrOCR):
		return KindOCR, "E_OCR"
	case errors.Is(marker, ErrAuth):
		return KindAuth, "E_AUTH"
	default:
		return KindTemporary, "E_TEMPORARY"
	}
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

package gateway

import (
	"errors"
	"strings"
)

type Code string

const (
	CodeUnknown          Code = "unknown"
	CodeNotPaired        Code = "not_paired"
	CodeAlreadyPaired    Code = "already_paired"
	CodeInstanceNotFound Code = "instance_not_found"
	CodeUnauthorized     Code = "unauthorized"
	CodeInvalidPhone     Code = "invalid_phone"
	CodeUnsupported      Code = "unsupported"
)

// errorTable maps fragments of gateway error text to codes. Entries are
// checked in order, so "already connected" must stay ahead of the
// not-connected fragments. Keep in sync with the gateway's documented errors.
var errorTable = []struct {
	fragment string
	code     Code
}{
	{"already connected", CodeAlreadyPaired},
	{"already paired", CodeAlreadyPaired},
	{"need to be connected", CodeNotPaired},
	{"needs to be connected", CodeNotPaired},
	{"you are not connected", CodeNotPaired},
	{"not connected", CodeNotPaired},
	{"instance not found", CodeInstanceNotFound},
	{"client-token", CodeUnauthorized},
	{"not allowed", CodeUnauthorized},
	{"invalid token", CodeUnauthorized},
	{"unauthorized", CodeUnauthorized},
	{"invalid phone", CodeInvalidPhone},
	{"phone is not valid", CodeInvalidPhone},
}

// Classify maps gateway error text to a Code. Unmapped text is CodeUnknown.
func Classify(text string) Code {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return CodeUnknown
	}
	for _, e := range errorTable {
		if strings.Contains(text, e.fragment) {
			return e.code
		}
	}
	return CodeUnknown
}

// ErrUnreachable wraps transport failures talking to the gateway.
var ErrUnreachable = errors.New("unable to reach the WhatsApp gateway, check your connection and try again")

// ErrNotConfigured is returned when an organization has no gateway credentials.
var ErrNotConfigured = errors.New("WhatsApp gateway credentials are not configured for this organization")

// Error is a failure reported by the gateway itself. Message is the
// gateway's text, passed through verbatim.
type Error struct {
	Code    Code
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "gateway error: " + string(e.Code)
}

// Is matches any *Error with the same Code, so callers can write
// errors.Is(err, gateway.ErrNotPaired).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotPaired     = &Error{Code: CodeNotPaired}
	ErrAlreadyPaired = &Error{Code: CodeAlreadyPaired}
	ErrUnsupported   = &Error{Code: CodeUnsupported, Message: "operation not supported by this gateway driver"}
)

// IsPending reports whether err only says the device is still awaiting
// pairing. That state is expected and must not be surfaced as a failure.
func IsPending(err error) bool {
	return errors.Is(err, ErrNotPaired)
}

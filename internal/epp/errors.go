package epp

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState     = errors.New("epp: invalid session state")
	ErrServerClosed     = errors.New("epp: server closed connection, re-login required")
	ErrAuthentication   = errors.New("epp: authentication failed")
	ErrInvalidParameter = errors.New("epp: invalid parameter")

	ErrMissingResponse = errors.New("missing <response> element")
	ErrMissingResult   = errors.New("missing <result> element")
	ErrInvalidCode     = errors.New("invalid result code")
	ErrMissingElement  = errors.New("missing element")
	ErrInvalidValue    = errors.New("invalid element value")
)

// ConnectionError reports a failure to establish a session: dialing, the
// TLS handshake or reading the greeting.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("epp: connect: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError reports an I/O failure on an established session. The
// session is closed and must not be reused.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("epp: transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response that does not have the expected shape.
type ProtocolError struct {
	Element string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("epp: protocol error: %v", e.Err)
	}
	return fmt.Sprintf("epp: protocol error: <%s>: %v", e.Element, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// AuthenticationError is returned by Login when the registry rejects the
// credentials.
type AuthenticationError struct {
	Result *Result
}

func (e *AuthenticationError) Error() string {
	msg := "epp: authentication failed"
	if e.Result != nil {
		msg += ": " + e.Result.Message
	}
	return msg
}

func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// CommandError carries a non-success result for commands whose failure the
// session treats as an error, such as login.
type CommandError struct {
	Command string
	Code    Code
	Message string
	Reason  string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("epp: %s failed with code %d: %s", e.Command, int(e.Code), e.Message)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func missing(element string) error {
	return &ProtocolError{Element: element, Err: ErrMissingElement}
}

// MissingElement returns the error object mappings raise when a success
// response lacks a required element.
func MissingElement(element string) error {
	return missing(element)
}

// InvalidValue returns the error object mappings raise when an element is
// present but cannot be decoded.
func InvalidValue(element string, err error) error {
	return &ProtocolError{Element: element, Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
}

package wgnlpy

import "fmt"

// ValidationError reports input that was rejected before any netlink message
// was built. Nothing has been sent when one of these comes back.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationf(format string, v ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, v...)}
}

// ProtocolError reports a response that violates the device schema, such as
// a key of the wrong size or a peer record without a public key. The whole
// query fails; no partial snapshot is returned.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string {
	return e.msg
}

func protocolf(format string, v ...any) error {
	return &ProtocolError{msg: fmt.Sprintf(format, v...)}
}

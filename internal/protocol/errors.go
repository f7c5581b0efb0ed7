package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPayload = errors.New("protocol: invalid payload")
	ErrNoSocketPath   = errors.New("protocol: no socket path was found")
	ErrUnknownCommand = errors.New("protocol: unknown command")
	ErrUnknownEvent   = errors.New("protocol: unknown event")
)

// InvalidPayloadError reports a payload that is missing or not valid JSON.
type InvalidPayloadError struct {
	Type   uint16
	Event  bool
	Reason string
}

func (e *InvalidPayloadError) Error() string {
	kind := "reply"
	if e.Event {
		kind = "event"
	}
	return fmt.Sprintf("protocol: invalid %s payload (type=%d): %s", kind, e.Type, e.Reason)
}

func (e *InvalidPayloadError) Unwrap() error {
	return ErrInvalidPayload
}

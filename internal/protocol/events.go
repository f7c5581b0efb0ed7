package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/danmuck/swayctl/internal/tree"
)

const (
	WindowChangeNew            = "new"
	WindowChangeClose          = "close"
	WindowChangeFocus          = "focus"
	WindowChangeTitle          = "title"
	WindowChangeFullscreenMode = "fullscreen_mode"
	WindowChangeMove           = "move"
	WindowChangeFloating       = "floating"
	WindowChangeUrgent         = "urgent"
	WindowChangeMark           = "mark"
)

// WindowEvent is the payload of a window event.
type WindowEvent struct {
	Change    string    `json:"change"`
	Container tree.Node `json:"container"`
}

// WorkspaceEvent is the payload of a workspace event.
type WorkspaceEvent struct {
	Change  string     `json:"change"`
	Current *tree.Node `json:"current"`
	Old     *tree.Node `json:"old"`
}

// ShutdownEvent is the payload of a shutdown event.
type ShutdownEvent struct {
	Change string `json:"change"`
}

// SubscribeReply is the reply to a subscribe command.
type SubscribeReply struct {
	Success bool `json:"success"`
}

// DecodeEvent unmarshals an event payload into out.
func DecodeEvent(kind EventType, payload []byte, out any) error {
	if len(payload) == 0 {
		return &InvalidPayloadError{Type: uint16(kind), Event: true, Reason: "payload missing"}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &InvalidPayloadError{Type: uint16(kind), Event: true, Reason: err.Error()}
	}
	return nil
}

// DecodeWindowEvent unmarshals a window event payload.
func DecodeWindowEvent(payload []byte) (WindowEvent, error) {
	var ev WindowEvent
	if err := DecodeEvent(EventWindow, payload, &ev); err != nil {
		return WindowEvent{}, err
	}
	if ev.Change == "" {
		return WindowEvent{}, &InvalidPayloadError{Type: uint16(EventWindow), Event: true, Reason: fmt.Sprintf("missing change in %d bytes", len(payload))}
	}
	return ev, nil
}

package protocol

import (
	"fmt"
	"strings"
)

// CommandType is the type code of a client request.
type CommandType uint16

const (
	RunCommand CommandType = iota
	GetWorkspaces
	Subscribe
	GetOutputs
	GetTree
	GetMarks
	GetBarConfig
	GetVersion
	GetBindingModes
	GetConfig
	SendTick
	Sync
	GetBindingState
	commandCount
)

var commandNames = [commandCount]string{
	RunCommand:      "run_command",
	GetWorkspaces:   "get_workspaces",
	Subscribe:       "subscribe",
	GetOutputs:      "get_outputs",
	GetTree:         "get_tree",
	GetMarks:        "get_marks",
	GetBarConfig:    "get_bar_config",
	GetVersion:      "get_version",
	GetBindingModes: "get_binding_modes",
	GetConfig:       "get_config",
	SendTick:        "send_tick",
	Sync:            "sync",
	GetBindingState: "get_binding_state",
}

func (c CommandType) Valid() bool {
	return c < commandCount
}

func (c CommandType) String() string {
	if !c.Valid() {
		return fmt.Sprintf("command(%d)", uint16(c))
	}
	return commandNames[c]
}

// ParseCommand resolves a command name as accepted by swaymsg -t.
func ParseCommand(name string) (CommandType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range commandNames {
		if n == key {
			return CommandType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// EventType is the type code of a pushed event, without the event bit.
type EventType uint16

const (
	EventWorkspace EventType = iota
	EventOutput
	EventMode
	EventWindow
	EventBarConfigUpdate
	EventBinding
	EventShutdown
	EventTick
	EventBarStateUpdate
	EventInput
	EventCount
)

var eventNames = [EventCount]string{
	EventWorkspace:       "workspace",
	EventOutput:          "output",
	EventMode:            "mode",
	EventWindow:          "window",
	EventBarConfigUpdate: "barconfig_update",
	EventBinding:         "binding",
	EventShutdown:        "shutdown",
	EventTick:            "tick",
	EventBarStateUpdate:  "bar_state_update",
	EventInput:           "input",
}

func (e EventType) Valid() bool {
	return e < EventCount
}

func (e EventType) String() string {
	if !e.Valid() {
		return fmt.Sprintf("event(%d)", uint16(e))
	}
	return eventNames[e]
}

// ParseEvent resolves an event name as used in a subscribe payload.
func ParseEvent(name string) (EventType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "bar_config_update" {
		return EventBarConfigUpdate, nil
	}
	for i, n := range eventNames {
		if n == key {
			return EventType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// EventNames returns the subscribe payload for events.
func EventNames(events []EventType) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.String())
	}
	return out
}

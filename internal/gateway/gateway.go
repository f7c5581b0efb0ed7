package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/swayctl/internal/logging"
	"github.com/danmuck/swayctl/internal/observability"
	"github.com/danmuck/swayctl/internal/protocol"
)

var (
	ErrNoCommand    = errors.New("gateway: empty message command")
	ErrInvalidReply = errors.New("gateway: reply is not valid JSON")
)

// CommandFailedError is returned when the message executable exits non-zero.
type CommandFailedError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandFailedError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("gateway: %s exited %d: %s", e.Command, e.ExitCode, msg)
}

func (e *CommandFailedError) Unwrap() error {
	return e.Err
}

// Gateway runs commands through a message executable such as
// ["swaymsg", "--raw"].
type Gateway struct {
	argv    []string
	runner  Runner
	renames map[protocol.CommandType]string
}

type Option func(*Gateway)

// RenameCommand passes name to -t instead of kind's canonical name. swaymsg
// calls run_command "command".
func RenameCommand(kind protocol.CommandType, name string) Option {
	return func(g *Gateway) {
		g.renames[kind] = name
	}
}

// New returns a Gateway for argv. A nil runner uses ExecRunner.
func New(argv []string, runner Runner, opts ...Option) (*Gateway, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, ErrNoCommand
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	g := &Gateway{
		argv:    append([]string(nil), argv...),
		runner:  runner,
		renames: make(map[protocol.CommandType]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// TypeName is the -t argument for kind.
func (g *Gateway) TypeName(kind protocol.CommandType) string {
	if name, ok := g.renames[kind]; ok {
		return name
	}
	return kind.String()
}

// Argv returns the full argument vector for kind and an encoded payload.
func (g *Gateway) Argv(kind protocol.CommandType, payload []byte) []string {
	args := append(append([]string(nil), g.argv...), "-t", g.TypeName(kind))
	if len(payload) > 0 {
		args = append(args, "-m", string(payload))
	}
	return args
}

// Command sends kind with an optional payload and returns the raw JSON reply.
// []byte and json.RawMessage payloads are passed through unchanged.
func (g *Gateway) Command(ctx context.Context, kind protocol.CommandType, payload any) (json.RawMessage, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", protocol.ErrUnknownCommand, uint16(kind))
	}
	body, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}
	out, err := g.exec(ctx, kind.String(), g.Argv(kind, body))
	if err != nil {
		return nil, err
	}
	out = bytes.TrimSpace(out)
	if !json.Valid(out) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReply, kind)
	}
	return json.RawMessage(out), nil
}

// RunCommand passes args straight to the message executable, e.g.
// RunCommand(ctx, "[pid=42]", "opacity", "0.8").
func (g *Gateway) RunCommand(ctx context.Context, args ...string) ([]CommandResult, error) {
	argv := append(append([]string(nil), g.argv...), args...)
	out, err := g.exec(ctx, protocol.RunCommand.String(), argv)
	if err != nil {
		return nil, err
	}
	var results []CommandResult
	if err := json.Unmarshal(bytes.TrimSpace(out), &results); err != nil {
		return nil, fmt.Errorf("%w: run_command: %v", ErrInvalidReply, err)
	}
	for _, r := range results {
		if !r.Success {
			return results, fmt.Errorf("gateway: run_command %q failed: %s", strings.Join(args, " "), r.Error)
		}
	}
	return results, nil
}

func (g *Gateway) exec(ctx context.Context, label string, argv []string) ([]byte, error) {
	start := time.Now()
	stdout, stderr, code, err := g.runner.Run(ctx, argv[0], argv[1:]...)
	success := err == nil && code == 0
	observability.RecordGatewayCommand(label, time.Since(start), success)
	if !success {
		logging.Errf("gateway.Command failed command=%s exit=%d stderr=%q", label, code, strings.TrimSpace(string(stderr)))
		if code == 0 {
			code = 1
		}
		return nil, &CommandFailedError{Command: label, ExitCode: code, Stderr: string(stderr), Err: err}
	}
	logging.Debugf("gateway.Command ok command=%s bytes=%d elapsed=%s", label, len(stdout), time.Since(start))
	return stdout, nil
}

func encodePayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: encode payload: %w", err)
	}
	return b, nil
}

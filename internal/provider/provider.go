// Package provider identifies the window manager in use and locates its IPC
// socket.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/swayctl/internal/gateway"
	"github.com/danmuck/swayctl/internal/logging"
	"github.com/danmuck/swayctl/internal/protocol"
)

type Provider string

const (
	Sway Provider = "sway"
	I3   Provider = "i3"
)

// EnvProvider selects the provider when no flag or config value is given.
const EnvProvider = "IPC_PROVIDER"

var ErrUnknownProvider = errors.New("provider: unknown provider")

func Parse(raw string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "sway":
		return Sway, nil
	case "i3":
		return I3, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, raw)
	}
}

// FromEnv reads IPC_PROVIDER, defaulting to sway.
func FromEnv() (Provider, error) {
	return Parse(os.Getenv(EnvProvider))
}

// SocketEnv is the environment variable the window manager exports its socket
// path in.
func (p Provider) SocketEnv() string {
	if p == I3 {
		return "I3SOCK"
	}
	return "SWAYSOCK"
}

// MessageCommand is the argv prefix of the message executable.
func (p Provider) MessageCommand() []string {
	if p == I3 {
		return []string{"i3-msg"}
	}
	return []string{"swaymsg", "--raw"}
}

// Gateway returns a command gateway for p.
func (p Provider) Gateway(runner gateway.Runner) (*gateway.Gateway, error) {
	if p == I3 {
		return gateway.New(p.MessageCommand(), runner)
	}
	return gateway.New(p.MessageCommand(), runner, gateway.RenameCommand(protocol.RunCommand, "command"))
}

// ResolveSocketPath returns override when set, else the provider's socket
// environment variable, else the output of `<provider> --get-socketpath`.
func ResolveSocketPath(ctx context.Context, p Provider, override string, runner gateway.Runner) (string, error) {
	if path := strings.TrimSpace(override); path != "" {
		return path, nil
	}
	if path := strings.TrimSpace(os.Getenv(p.SocketEnv())); path != "" {
		return path, nil
	}
	if runner == nil {
		runner = gateway.ExecRunner{}
	}
	stdout, stderr, code, err := runner.Run(ctx, string(p), "--get-socketpath")
	if err != nil || code != 0 {
		logging.Warnf("provider.ResolveSocketPath %s --get-socketpath exit=%d err=%v stderr=%q",
			p, code, err, strings.TrimSpace(string(stderr)))
		return "", fmt.Errorf("%w: %s unset and %s --get-socketpath failed", protocol.ErrNoSocketPath, p.SocketEnv(), p)
	}
	path := strings.TrimSpace(string(stdout))
	if path == "" {
		return "", protocol.ErrNoSocketPath
	}
	return path, nil
}

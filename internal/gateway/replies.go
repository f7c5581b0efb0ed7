package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danmuck/swayctl/internal/protocol"
	"github.com/danmuck/swayctl/internal/tree"
)

// CommandResult is one entry of a run_command reply.
type CommandResult struct {
	Success    bool   `json:"success"`
	ParseError bool   `json:"parse_error,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Version is the get_version reply.
type Version struct {
	Major                int    `json:"major"`
	Minor                int    `json:"minor"`
	Patch                int    `json:"patch"`
	HumanReadable        string `json:"human_readable"`
	LoadedConfigFileName string `json:"loaded_config_file_name"`
}

func (g *Gateway) Tree(ctx context.Context) (*tree.Node, error) {
	raw, err := g.Command(ctx, protocol.GetTree, nil)
	if err != nil {
		return nil, err
	}
	return tree.Parse(raw)
}

func (g *Gateway) Outputs(ctx context.Context) ([]tree.Output, error) {
	var out []tree.Output
	return out, g.decode(ctx, protocol.GetOutputs, &out)
}

func (g *Gateway) Workspaces(ctx context.Context) ([]tree.Workspace, error) {
	var out []tree.Workspace
	return out, g.decode(ctx, protocol.GetWorkspaces, &out)
}

func (g *Gateway) Version(ctx context.Context) (Version, error) {
	var out Version
	return out, g.decode(ctx, protocol.GetVersion, &out)
}

func (g *Gateway) decode(ctx context.Context, kind protocol.CommandType, out any) error {
	raw, err := g.Command(ctx, kind, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidReply, kind, err)
	}
	return nil
}

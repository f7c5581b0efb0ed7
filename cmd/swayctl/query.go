package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danmuck/swayctl/internal/protocol"
	"github.com/danmuck/swayctl/internal/tree"
)

var errNoFocus = errors.New("no focused container")

func msgCmd(a *app) *cobra.Command {
	var kind string
	var message string

	cmd := &cobra.Command{
		Use:   "msg [run_command args...]",
		Short: "Send one IPC message and print the JSON reply",
		Example: `  swayctl msg -t get_outputs
  swayctl msg -t subscribe -m '["window"]'
  swayctl msg '[app_id=firefox]' focus`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.gateway()
			if err != nil {
				return err
			}
			if len(args) > 0 && !cmd.Flags().Changed("type") {
				results, err := g.RunCommand(cmd.Context(), args...)
				if results != nil {
					if perr := printJSON(cmd, results); perr != nil {
						return perr
					}
				}
				return err
			}
			typ, err := protocol.ParseCommand(kind)
			if err != nil {
				return err
			}
			var payload any
			if message != "" {
				if !json.Valid([]byte(message)) {
					return fmt.Errorf("-m is not valid JSON: %s", message)
				}
				payload = json.RawMessage(message)
			}
			reply, err := g.Command(cmd.Context(), typ, payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(reply))
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", protocol.RunCommand.String(), "message type, e.g. get_tree")
	cmd.Flags().StringVarP(&message, "message", "m", "", "JSON payload")
	return cmd
}

func treeCmd(a *app) *cobra.Command {
	var contentOnly bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "List every container in the layout tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.gateway()
			if err != nil {
				return err
			}
			root, err := g.Tree(cmd.Context())
			if err != nil {
				return err
			}
			entries := tree.Flatten(root)
			if contentOnly {
				entries = tree.Content(root)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPARENT\tTYPE\tFOCUSED\tNAME")
			for _, e := range entries {
				focused := ""
				if e.Focused {
					focused = "*"
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", e.ID, e.Parent, e.Type, focused, e.Name)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&contentOnly, "content", false, "only application windows")
	return cmd
}

func focusedCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "focused",
		Short: "Print the focused container as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.gateway()
			if err != nil {
				return err
			}
			root, err := g.Tree(cmd.Context())
			if err != nil {
				return err
			}
			node := tree.FindFocused(root)
			if node == nil {
				return errNoFocus
			}
			switch format {
			case "json":
				return printJSON(cmd, node)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(node); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	return cmd
}

func outputsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs",
		Short: "List outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.gateway()
			if err != nil {
				return err
			}
			outputs, err := g.Outputs(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tACTIVE\tRESOLUTION\tWORKSPACE\tIDENTITY")
			for _, o := range outputs {
				fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\n", o.Name, o.Active, o.Resolution(), o.CurrentWorkspace, strings.TrimSpace(o.Identity()))
			}
			return w.Flush()
		},
	}
}

func workspacesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "workspaces",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.gateway()
			if err != nil {
				return err
			}
			spaces, err := g.Workspaces(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NUM\tNAME\tOUTPUT\tFOCUSED")
			for _, ws := range spaces {
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", ws.Num, ws.Name, ws.Output, ws.Focused)
			}
			return w.Flush()
		},
	}
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the window manager version",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.gateway()
			if err != nil {
				return err
			}
			v, err := g.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", a.cfg.Provider, v.HumanReadable)
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

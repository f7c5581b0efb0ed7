package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/danmuck/swayctl/internal/config"
	"github.com/danmuck/swayctl/internal/gateway"
	"github.com/danmuck/swayctl/internal/logging"
	"github.com/danmuck/swayctl/internal/provider"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			logging.Errf("swayctl panic=%v\n%s", r, debug.Stack())
			fmt.Fprintf(stderr, "swayctl: fatal: %v\n", r)
			code = 1
		}
	}()

	root := newRootCmd(&app{})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "swayctl: %v\n", err)
		return 1
	}
	return 0
}

// app carries state shared by every subcommand.
type app struct {
	configPath   string
	providerName string
	verbose      string

	cfg    config.Config
	runner gateway.Runner
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "swayctl",
		Short: "Talk to sway or i3 over their IPC socket",
		Long: `swayctl subscribes to window manager events over the sway/i3 IPC
socket and issues one-shot commands through swaymsg or i3-msg.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.providerName, "provider", "", "window manager: sway or i3 (default from config or IPC_PROVIDER)")
	flags.StringVar(&a.verbose, "verbose", "", "log level: trace, debug, info, warn, error")
	flags.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/swayctl/config.toml)")

	root.AddCommand(
		watchCmd(a),
		msgCmd(a),
		treeCmd(a),
		focusedCmd(a),
		outputsCmd(a),
		workspacesCmd(a),
		versionCmd(a),
	)
	return root
}

func (a *app) setup() error {
	logging.ConfigureRuntime()
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.providerName != "" {
		p, err := provider.Parse(a.providerName)
		if err != nil {
			return err
		}
		cfg.Provider = p
	}
	levelName := cfg.LogLevel
	if a.verbose != "" {
		levelName = a.verbose
	}
	if levelName != "" {
		level, ok := logging.ParseLevel(levelName)
		if !ok {
			return fmt.Errorf("unknown log level %q", levelName)
		}
		logging.SetLevel(level)
	}
	if cfg.LogFile != "" {
		if err := logging.SetFile(cfg.LogFile); err != nil {
			return err
		}
	}
	a.cfg = cfg
	logging.Debugf("swayctl config provider=%s lock=%s", cfg.Provider, cfg.LockFile)
	return nil
}

func (a *app) gateway() (*gateway.Gateway, error) {
	return a.cfg.Provider.Gateway(a.runner)
}

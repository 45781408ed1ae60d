package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"steprt/internal/config"
	"steprt/internal/version"
)

// newRootCmd builds the command tree. Tests build a fresh tree per run.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "steprt",
		Short: "Step-driven cooperative task runtime",
		Long: `steprt runs workloads on a single-threaded task runtime that only makes
progress when its host loop calls Step, the way a render loop would.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyColorFlag(cmd); err != nil {
				return err
			}
			return loadConfig(cmd)
		},
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newScenariosCmd())
	root.AddCommand(newVersionCmd())

	root.PersistentFlags().String("config", "", "path to steprt.toml (default: search upward from the working directory)")
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	root.PersistentFlags().String("trace", "", "trace output file (\"-\" for stderr)")
	root.PersistentFlags().String("trace-level", "", "trace level (off|error|step|task|debug)")
	root.PersistentFlags().String("trace-mode", "", "trace storage mode (stream|ring|both)")
	root.PersistentFlags().Int("trace-ring-size", 0, "ring buffer capacity in events")
	root.PersistentFlags().Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval")
	root.PersistentFlags().Bool("timings", false, "show wall-clock timing of each phase")
	root.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	root.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	root.PersistentFlags().String("runtime-trace", "", "write a Go execution trace to this file")
	return root
}

// main executes the root command and exits with status 1 on error.
func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func applyColorFlag(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color %q (expected auto|on|off)", mode)
	}
	return nil
}

type configKey struct{}

type loadedConfig struct {
	Config config.Config
	Path   string
}

func loadConfig(cmd *cobra.Command) error {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return err
	}
	var lc loadedConfig
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		lc = loadedConfig{Config: cfg, Path: path}
	} else {
		cfg, found, err := config.Discover(".")
		if err != nil {
			return err
		}
		lc = loadedConfig{Config: cfg, Path: found}
	}
	cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, lc))
	return nil
}

func configFrom(cmd *cobra.Command) loadedConfig {
	if lc, ok := cmd.Context().Value(configKey{}).(loadedConfig); ok {
		return lc
	}
	return loadedConfig{Config: config.Default()}
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"steprt/internal/scenario"
)

type scenarioPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Offload     bool   `json:"offload,omitempty"`
}

func newScenariosCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := scenario.All()
			switch strings.ToLower(format) {
			case "json":
				payload := make([]scenarioPayload, len(all))
				for i, s := range all {
					payload[i] = scenarioPayload{Name: s.Name, Description: s.Description, Offload: s.NeedsPool}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "pretty":
			default:
				return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
			}

			width := 0
			for _, s := range all {
				width = max(width, runewidth.StringWidth(s.Name))
			}
			name := color.New(color.FgCyan, color.Bold)
			for _, s := range all {
				pad := strings.Repeat(" ", width-runewidth.StringWidth(s.Name))
				fmt.Fprintf(cmd.OutOrStdout(), "  %s%s  %s\n", name.Sprint(s.Name), pad, s.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return cmd
}

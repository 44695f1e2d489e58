package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rohankatakam/crewforge/internal/requirements"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "List built-in requirements briefs",
	Long: `List the built-in briefs 'crewforge run --preset' accepts.
Pass a name to print that brief's full requirements text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPresets,
}

func runPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		p, err := requirements.Lookup(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (feature: %s)\n", color.CyanString(p.Name), p.FeatureName)
		fmt.Fprintln(out, p.Requirements)
		return nil
	}

	for _, p := range requirements.All() {
		marker := " "
		if p.Name == requirements.DefaultPreset {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-10s feature: %-16s %s\n", marker, color.CyanString(p.Name), p.FeatureName, p.Summary)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "* default. Show one with: crewforge presets <name>")
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/rohankatakam/crewforge/internal/config"
	"github.com/rohankatakam/crewforge/internal/models"
	"github.com/rohankatakam/crewforge/internal/storage"
	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show run history",
	Long:  `List recorded crew runs, newest first.`,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and the output of each task",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.PersistentFlags().BoolVar(&runsJSON, "json", false, "print JSON")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to show (0 for all)")
	runsCmd.AddCommand(runsShowCmd)
}

func openRunStore() (storage.RunStore, error) {
	if err := cfg.Validate(config.ValidationContextHistory).AsError(); err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("run history is disabled (storage.type is %q)", cfg.Storage.Type)
	}
	return store, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runsJSON {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet. Start one with: crewforge run")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tPRESET\tFEATURE\tMODEL\tSTATUS\tDURATION\tTOKENS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.ID[:min(8, len(r.ID))],
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Preset,
			r.FeatureName,
			r.Model,
			statusText(r.Status),
			r.Duration().Round(time.Second),
			r.PromptTokens+r.CompletionTokens,
		)
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	run, err := store.GetRun(ctx, args[0])
	if err != nil {
		if err == storage.ErrNotFound {
			return fmt.Errorf("run %s not found", args[0])
		}
		return err
	}
	tasks, err := store.GetTasks(ctx, run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runsJSON {
		return writeJSON(out, map[string]interface{}{"run": run, "tasks": tasks})
	}
	printRun(out, run, tasks)
	return nil
}

func printRun(w io.Writer, run *models.Run, tasks []*models.TaskRecord) {
	fmt.Fprintf(w, "Run %s  %s\n", run.ID, statusText(run.Status))
	fmt.Fprintf(w, "  preset:   %s (feature %s)\n", run.Preset, run.FeatureName)
	fmt.Fprintf(w, "  model:    %s/%s\n", run.Provider, run.Model)
	fmt.Fprintf(w, "  started:  %s\n", run.StartedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(w, "  duration: %s\n", run.Duration().Round(time.Second))
	fmt.Fprintf(w, "  tokens:   %d prompt, %d completion\n", run.PromptTokens, run.CompletionTokens)
	if run.Error != "" {
		fmt.Fprintf(w, "  error:    %s\n", color.RedString(run.Error))
	}

	for _, t := range tasks {
		fmt.Fprintln(w)
		fmt.Fprintln(w, color.New(color.Bold).Sprintf("## %d. %s (%s) %dms", t.Position+1, t.Name, t.Agent, t.DurationMS))
		if t.OutputFile != "" {
			fmt.Fprintf(w, "-> %s\n", t.OutputFile)
		}
		fmt.Fprintln(w, t.Output)
	}
}

func statusText(status string) string {
	switch status {
	case models.RunStatusSucceeded:
		return color.GreenString(status)
	case models.RunStatusFailed:
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rohankatakam/crewforge/internal/config"
	"github.com/rohankatakam/crewforge/internal/crew"
	"github.com/rohankatakam/crewforge/internal/requirements"
	"github.com/spf13/cobra"
)

var (
	runPreset           string
	runRequirementsFile string
	runFeature          string
	runAgentsFile       string
	runTasksFile        string
	runOutputDir        string
	runNoCache          bool
	runNoHistory        bool
	runQuiet            bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the engineering crew on a requirements brief",
	Long: `Run the Rails engineering crew once and print the final task's output.

The crew runs five tasks in order, each seeing the outputs it depends on:
  architecture_task  rails_architect
  frontend_task      frontend_developer
  integration_task   integration_engineer  -> <feature>_controllers.rb
  migration_task     rails_architect       -> <feature>_migrations.rb
  model_task         integration_engineer  -> <feature>_models.rb

Examples:
  # Build the default ticketing system ("jiro")
  crewforge run

  # Build the e-commerce store
  crewforge run --preset ecommerce

  # Build from your own brief
  crewforge run --requirements-file blog.md --feature blog`,
	RunE: runRun,
}

// newCredentialManager builds the API key resolver used by run
var newCredentialManager = config.NewCredentialManager

func init() {
	runCmd.Flags().StringVarP(&runPreset, "preset", "p", requirements.DefaultPreset, "built-in brief to build ("+strings.Join(requirements.Names(), ", ")+")")
	runCmd.Flags().StringVarP(&runRequirementsFile, "requirements-file", "r", "", "read the brief from a file instead of a preset")
	runCmd.Flags().StringVarP(&runFeature, "feature", "f", "", "feature name used to label outputs (default: the preset's)")
	runCmd.Flags().StringVar(&runAgentsFile, "agents", "", "agents YAML (default: built-in)")
	runCmd.Flags().StringVar(&runTasksFile, "tasks", "", "tasks YAML (default: built-in)")
	runCmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "directory for generated files (default: config crew.output_dir)")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "always call the LLM, bypassing the completion cache")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "do not record this run in run history")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "print only the final result")
}

func runRun(cmd *cobra.Command, args []string) error {
	applyRunFlags(cfg)

	// The output directory exists before anything else can fail
	if err := crew.EnsureOutputDir(cfg.Crew.OutputDir); err != nil {
		return err
	}

	brief, err := resolveBrief(runPreset, runRequirementsFile, runFeature)
	if err != nil {
		return err
	}

	key, err := newCredentialManager().ResolveAPIKey(cfg)
	if err != nil {
		return err
	}

	result := cfg.Validate(config.ValidationContextRun)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if err := result.AsError(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if !runQuiet {
		fmt.Fprintf(out, "Loaded %s: %s\n", config.EnvVarForProvider(cfg.LLM.Provider), config.KeyPrefix(key, 10))
	}

	s, err := openSession(ctx, cfg, logger, sessionOptions{noCache: runNoCache, noHistory: runNoHistory})
	if err != nil {
		return err
	}
	defer s.Close()

	var observers []crew.Observer
	if !runQuiet {
		observers = append(observers, newProgressPrinter(out))
	}

	crewOut, run, err := s.kickoff(ctx, brief, observers...)
	if run != nil {
		logger.WithField("run_id", run.ID).Debug("Run recorded")
	}
	if err != nil {
		return err
	}

	writeResult(out, crewOut, runQuiet)
	return nil
}

// writeResult prints the final task's output verbatim, under the banner
// unless quiet.
func writeResult(w io.Writer, out *crew.CrewOutput, quiet bool) {
	if !quiet {
		printResultBanner(w)
	}
	fmt.Fprintln(w, out.String())
}

func applyRunFlags(c *config.Config) {
	if runAgentsFile != "" {
		c.Crew.AgentsFile = runAgentsFile
	}
	if runTasksFile != "" {
		c.Crew.TasksFile = runTasksFile
	}
	if runOutputDir != "" {
		c.Crew.OutputDir = runOutputDir
	}
	if verbose {
		c.Crew.Verbose = true
	}
}

// resolveBrief picks the requirements for this run: a file when given,
// otherwise a preset. feature overrides the label in both cases.
func resolveBrief(preset, file, feature string) (requirements.Preset, error) {
	if file != "" {
		return requirements.FromFile(file, feature)
	}

	p, err := requirements.Lookup(preset)
	if err != nil {
		return requirements.Preset{}, err
	}
	if feature != "" {
		if err := requirements.ValidateFeatureName(feature); err != nil {
			return requirements.Preset{}, err
		}
		p.FeatureName = feature
	}
	return p, nil
}

func printResultBanner(w io.Writer) {
	bold := color.New(color.FgGreen, color.Bold)
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold.Sprint("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Fprintln(w, bold.Sprint("RESULT"))
	fmt.Fprintln(w, bold.Sprint("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
}

// progressPrinter prints one line per task lifecycle event
type progressPrinter struct {
	w io.Writer
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

func (p *progressPrinter) OnEvent(ctx context.Context, e crew.Event) {
	switch e.Type {
	case crew.EventCrewStarted:
		fmt.Fprintf(p.w, "%s Crew started: %d tasks, feature %q\n",
			color.CyanString("▶"), e.Total, e.Inputs[crew.InputFeatureName])
	case crew.EventTaskStarted:
		fmt.Fprintf(p.w, "%s [%d/%d] %s (%s)\n",
			color.CyanString("…"), e.Position+1, e.Total, e.Task, e.Agent)
	case crew.EventTaskFinished:
		line := fmt.Sprintf("[%d/%d] %s done in %s", e.Position+1, e.Total, e.Task, e.Output.Duration.Round(time.Millisecond))
		if e.Output.OutputFile != "" {
			line += " -> " + e.Output.OutputFile
		}
		fmt.Fprintf(p.w, "%s %s\n", color.GreenString("✓"), line)
	case crew.EventTaskFailed:
		fmt.Fprintf(p.w, "%s [%d/%d] %s failed\n", color.RedString("✗"), e.Position+1, e.Total, e.Task)
	case crew.EventCrewFinished:
		u := e.Result.TokenUsage
		fmt.Fprintf(p.w, "%s Crew finished: %d tokens (%d prompt, %d completion), %d cached responses\n",
			color.GreenString("✓"), u.TotalTokens, u.PromptTokens, u.CompletionTokens, u.CachedRequests)
	}
}

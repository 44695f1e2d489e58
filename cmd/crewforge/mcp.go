package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/rohankatakam/crewforge/internal/config"
	"github.com/rohankatakam/crewforge/internal/crew"
	"github.com/rohankatakam/crewforge/internal/mcp"
	"github.com/rohankatakam/crewforge/internal/requirements"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the crew as MCP tools over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout.

Tools:
  crewforge.list_presets  list the built-in briefs
  crewforge.kickoff       run the crew on a preset or custom requirements

Resources:
  crewforge://agents      the agents YAML in use
  crewforge://tasks       the tasks YAML in use

Logs go to stderr and the configured log directory, never stdout.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&runAgentsFile, "agents", "", "agents YAML (default: built-in)")
	mcpCmd.Flags().StringVar(&runTasksFile, "tasks", "", "tasks YAML (default: built-in)")
	mcpCmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "directory for generated files (default: config crew.output_dir)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	applyRunFlags(cfg)
	// Progress must not reach stdout, which carries the protocol
	cfg.Crew.Verbose = false

	if err := crew.EnsureOutputDir(cfg.Crew.OutputDir); err != nil {
		return err
	}

	result := cfg.Validate(config.ValidationContextServe)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if err := result.AsError(); err != nil {
		return err
	}

	agentsYAML, err := configBytes(cfg.Crew.AgentsFile, crew.DefaultAgentsYAML)
	if err != nil {
		return err
	}
	tasksYAML, err := configBytes(cfg.Crew.TasksFile, crew.DefaultTasksYAML)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &lazyRunner{}
	defer runner.Close()

	handler := mcp.NewCrewHandler(Version, runner, agentsYAML, tasksYAML)
	transport := mcp.NewStdioTransport(handler, os.Stdin, os.Stdout)

	logger.Info("MCP server listening on stdio")
	return transport.Start(ctx)
}

func configBytes(path string, fallback []byte) ([]byte, error) {
	if path == "" {
		return fallback, nil
	}
	return os.ReadFile(path)
}

// lazyRunner opens the session on the first kickoff, so the server starts
// and lists tools without a credential
type lazyRunner struct {
	mu      sync.Mutex
	session *session
}

func (r *lazyRunner) Run(ctx context.Context, brief requirements.Preset) (*crew.CrewOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		// stdin belongs to the protocol; never prompt
		creds := config.NewCredentialManagerWithIO(strings.NewReader(""), io.Discard, false)
		if _, err := creds.ResolveAPIKey(cfg); err != nil {
			return nil, err
		}
		s, err := openSession(ctx, cfg, logger, sessionOptions{})
		if err != nil {
			return nil, err
		}
		r.session = s
	}

	out, run, err := r.session.kickoff(ctx, brief)
	if run != nil {
		logger.WithField("run_id", run.ID).Info("MCP kickoff recorded")
	}
	return out, err
}

func (r *lazyRunner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		r.session.Close()
	}
}

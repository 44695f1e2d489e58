package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rohankatakam/crewforge/internal/crew"
	"github.com/rohankatakam/crewforge/internal/errors"
	"github.com/rohankatakam/crewforge/internal/llm"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Show the crew's agents and task pipeline",
	Long: `Show the agents and tasks the crew is assembled from, in execution order,
and the inputs a run must provide.`,
	RunE: runAgents,
}

func init() {
	agentsCmd.Flags().StringVar(&runAgentsFile, "agents", "", "agents YAML (default: built-in)")
	agentsCmd.Flags().StringVar(&runTasksFile, "tasks", "", "tasks YAML (default: built-in)")
}

func runAgents(cmd *cobra.Command, args []string) error {
	applyRunFlags(cfg)

	agents, err := crew.LoadAgentsConfig(cfg.Crew.AgentsFile)
	if err != nil {
		return err
	}
	tasks, err := crew.LoadTasksConfig(cfg.Crew.TasksFile)
	if err != nil {
		return err
	}

	team, err := crew.NewEngineeringTeam(agents, tasks, offlineCompleter, crew.WithOutputDir(cfg.Crew.OutputDir))
	if err != nil {
		return err
	}

	printTeam(cmd.OutOrStdout(), team, agents.Source, tasks.Source)
	return nil
}

func printTeam(w io.Writer, team *crew.Crew, agentsSource, tasksSource string) {
	heading := color.New(color.Bold)

	fmt.Fprintln(w, heading.Sprintf("Agents (%s)", agentsSource))
	for _, a := range team.Agents() {
		fmt.Fprintf(w, "  %s\n", color.CyanString(a.Key))
		fmt.Fprintf(w, "    role: %s\n", oneLine(a.Role))
		fmt.Fprintf(w, "    goal: %s\n", oneLine(a.Goal))
		if a.Model != "" {
			fmt.Fprintf(w, "    model: %s\n", a.Model)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, heading.Sprintf("Tasks (%s)", tasksSource))
	for i, t := range team.Tasks() {
		fmt.Fprintf(w, "  %d. %s -> %s\n", i+1, color.CyanString(t.Name), t.Agent.Key)
		if len(t.Context) > 0 {
			fmt.Fprintf(w, "     context: %s\n", strings.Join(t.Context, ", "))
		}
		if t.OutputFile != "" {
			fmt.Fprintf(w, "     output:  %s\n", t.OutputFile)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Required inputs: %s\n", strings.Join(team.RequiredInputs(), ", "))
	fmt.Fprintf(w, "Output directory: %s\n", team.OutputDir())
}

// offlineCompleter assembles a crew for inspection only
var offlineCompleter = llm.CompleterFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return nil, errors.InternalError("crew assembled for inspection cannot run")
})

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 100 {
		return s[:97] + "..."
	}
	return s
}

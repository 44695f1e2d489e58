package crew

import (
	"fmt"
	"strings"
)

// Task is one step of the pipeline, performed by a single agent
type Task struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          *Agent
	// Context names earlier tasks whose output is handed to this one.
	// Empty means every earlier task.
	Context    []string
	OutputFile string
}

// NewTask binds a tasks.yaml entry to its name and agent
func NewTask(name string, cfg TaskConfig, agent *Agent) *Task {
	return &Task{
		Name:           name,
		Description:    strings.TrimSpace(cfg.Description),
		ExpectedOutput: strings.TrimSpace(cfg.ExpectedOutput),
		Agent:          agent,
		Context:        cfg.Context,
		OutputFile:     strings.TrimSpace(cfg.OutputFile),
	}
}

func (t *Task) templates() []string {
	return []string{t.Description, t.ExpectedOutput, t.OutputFile}
}

func (t *Task) interpolate(inputs Inputs, agent *Agent) *Task {
	out := *t
	out.Description = Interpolate(t.Description, inputs)
	out.ExpectedOutput = Interpolate(t.ExpectedOutput, inputs)
	out.OutputFile = Interpolate(t.OutputFile, inputs)
	out.Agent = agent
	return &out
}

// Prompt renders the user message for this task given the outputs it can see
func (t *Task) Prompt(context []TaskOutput) string {
	var sb strings.Builder
	sb.WriteString(t.Description)

	if t.ExpectedOutput != "" {
		sb.WriteString("\n\nThis is the expected criteria for your final answer: ")
		sb.WriteString(t.ExpectedOutput)
		sb.WriteString("\nYou MUST return the actual complete content as the final answer, not a summary.")
	}

	if len(context) > 0 {
		sb.WriteString("\n\nThis is the context you're working with:\n")
		for i, c := range context {
			if i > 0 {
				sb.WriteString("\n\n----------\n\n")
			}
			fmt.Fprintf(&sb, "## Output of %s (%s)\n\n", c.Name, c.Agent)
			sb.WriteString(c.Raw)
		}
	}

	return sb.String()
}

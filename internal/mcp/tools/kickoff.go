package tools

import (
	"context"
	"fmt"

	"github.com/rohankatakam/crewforge/internal/crew"
	"github.com/rohankatakam/crewforge/internal/requirements"
)

// Runner executes one crew run for a requirements brief
type Runner interface {
	Run(ctx context.Context, brief requirements.Preset) (*crew.CrewOutput, error)
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, brief requirements.Preset) (*crew.CrewOutput, error)

// Run calls f(ctx, brief)
func (f RunnerFunc) Run(ctx context.Context, brief requirements.Preset) (*crew.CrewOutput, error) {
	return f(ctx, brief)
}

// KickoffTool implements the crewforge.kickoff tool
type KickoffTool struct {
	runner Runner
}

// NewKickoffTool creates a new KickoffTool
func NewKickoffTool(runner Runner) *KickoffTool {
	return &KickoffTool{runner: runner}
}

// Execute runs the crew on a preset, or on custom requirements when
// `requirements` is given. The final task's output is returned as text.
func (t *KickoffTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	brief, err := briefFromArgs(args)
	if err != nil {
		return nil, err
	}

	out, err := t.runner.Run(ctx, brief)
	if err != nil {
		return nil, err
	}

	summary := KickoffSummary{
		FeatureName: brief.FeatureName,
		Tasks:       make([]TaskSummary, 0, len(out.TasksOutput)),
		TotalTokens: out.TokenUsage.TotalTokens,
	}
	for _, task := range out.TasksOutput {
		summary.Tasks = append(summary.Tasks, TaskSummary{
			Name:       task.Name,
			Agent:      task.Agent,
			OutputFile: task.OutputFile,
			DurationMS: task.Duration.Milliseconds(),
		})
	}
	return TextResult(out.Raw, summary), nil
}

func briefFromArgs(args map[string]interface{}) (requirements.Preset, error) {
	text, _ := args["requirements"].(string)
	feature, _ := args["feature_name"].(string)

	if text == "" {
		name, _ := args["preset"].(string)
		if name == "" {
			name = requirements.DefaultPreset
		}
		p, err := requirements.Lookup(name)
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

	if feature == "" {
		return requirements.Preset{}, fmt.Errorf("feature_name is required with custom requirements")
	}
	if err := requirements.ValidateFeatureName(feature); err != nil {
		return requirements.Preset{}, err
	}
	return requirements.Preset{Name: "custom", FeatureName: feature, Requirements: text}, nil
}

// GetSchema returns the tool's input schema
func (t *KickoffTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"preset": map[string]interface{}{
				"type":        "string",
				"description": "Built-in brief to build (" + fmt.Sprint(requirements.Names()) + ")",
			},
			"requirements": map[string]interface{}{
				"type":        "string",
				"description": "Custom requirements text; overrides preset",
			},
			"feature_name": map[string]interface{}{
				"type":        "string",
				"description": "Label for the feature and prefix of generated files",
			},
		},
	}
}

// Description returns the tool description shown in tools/list
func (t *KickoffTool) Description() string {
	return "Run the Rails engineering crew and return the final task's output"
}

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/rohankatakam/crewforge/internal/requirements"
)

// ListPresetsTool implements the crewforge.list_presets tool
type ListPresetsTool struct{}

// NewListPresetsTool creates a new ListPresetsTool
func NewListPresetsTool() *ListPresetsTool {
	return &ListPresetsTool{}
}

// Execute lists the built-in presets. Pass include_requirements=true for the
// full requirements text.
func (t *ListPresetsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	full, _ := args["include_requirements"].(bool)

	presets := requirements.All()
	var b strings.Builder
	for _, p := range presets {
		fmt.Fprintf(&b, "%s (feature: %s): %s\n", p.Name, p.FeatureName, p.Summary)
	}

	if !full {
		for i := range presets {
			presets[i].Requirements = ""
		}
	}
	return TextResult(b.String(), map[string]interface{}{"presets": presets}), nil
}

// GetSchema returns the tool's input schema
func (t *ListPresetsTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"include_requirements": map[string]interface{}{
				"type":        "boolean",
				"description": "Include the full requirements text of each preset",
			},
		},
	}
}

// Description returns the tool description shown in tools/list
func (t *ListPresetsTool) Description() string {
	return "List the built-in application briefs the crew can build"
}

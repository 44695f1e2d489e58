package mcp

import (
	"github.com/rohankatakam/crewforge/internal/mcp/tools"
)

// Tool names
const (
	ToolListPresets = "crewforge.list_presets"
	ToolKickoff     = "crewforge.kickoff"
)

// NewCrewHandler registers the crew tools and the agent/task config
// resources on a new handler
func NewCrewHandler(version string, runner tools.Runner, agentsYAML, tasksYAML []byte) *Handler {
	h := NewHandler(version)
	h.RegisterTool(ToolListPresets, tools.NewListPresetsTool())
	h.RegisterTool(ToolKickoff, tools.NewKickoffTool(runner))
	h.RegisterResource(AgentsURI, NewYAMLResource(AgentsURI, agentsYAML))
	h.RegisterResource(TasksURI, NewYAMLResource(TasksURI, tasksYAML))
	return h
}

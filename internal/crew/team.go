package crew

import "github.com/rohankatakam/crewforge/internal/llm"

// Agent keys of the Rails engineering crew
const (
	AgentRailsArchitect      = "rails_architect"
	AgentFrontendDeveloper   = "frontend_developer"
	AgentIntegrationEngineer = "integration_engineer"
)

// Task keys of the Rails engineering crew
const (
	TaskArchitecture = "architecture_task"
	TaskFrontend     = "frontend_task"
	TaskIntegration  = "integration_task"
	TaskMigration    = "migration_task"
	TaskModel        = "model_task"
)

// EngineeringAgents is the roster in declaration order
var EngineeringAgents = []string{
	AgentRailsArchitect,
	AgentFrontendDeveloper,
	AgentIntegrationEngineer,
}

// EngineeringTasks is the pipeline in execution order
var EngineeringTasks = []string{
	TaskArchitecture,
	TaskFrontend,
	TaskIntegration,
	TaskMigration,
	TaskModel,
}

// NewEngineeringTeam assembles the Rails engineering crew: three agents and
// five sequential tasks, looked up by key in the loaded configs.
func NewEngineeringTeam(agents *AgentsConfig, tasks *TasksConfig, completer llm.Completer, opts ...Option) (*Crew, error) {
	return Assemble(agents, tasks, EngineeringAgents, EngineeringTasks, completer, opts...)
}

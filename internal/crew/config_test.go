package crew

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rohankatakam/crewforge/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedConfigs(t *testing.T) {
	agents, err := LoadAgentsConfig("")
	require.NoError(t, err)
	assert.Equal(t, "embedded", agents.Source)
	assert.Equal(t, EngineeringAgents, agents.Keys())

	tasks, err := LoadTasksConfig("")
	require.NoError(t, err)
	assert.Equal(t, EngineeringTasks, tasks.Keys(), "file order is preserved")

	model, err := tasks.Task(TaskModel)
	require.NoError(t, err)
	assert.Equal(t, AgentIntegrationEngineer, model.Agent)
	assert.Equal(t, "{feature_name}_models.rb", model.OutputFile)
	assert.Equal(t, []string{TaskArchitecture, TaskIntegration, TaskMigration}, model.Context)

	architect, err := agents.Agent(AgentRailsArchitect)
	require.NoError(t, err)
	assert.Contains(t, architect.Role, "Senior Rails Architect")
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
zeta:
  role: Z
  goal: g
  backstory: b
alpha:
  role: A
  goal: g
  backstory: b
  llm: anthropic/claude-sonnet-4-20250514
  temperature: 0.5
`), 0644))

	agents, err := LoadAgentsConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, agents.Source)
	assert.Equal(t, []string{"zeta", "alpha"}, agents.Keys())

	alpha, err := agents.Agent("alpha")
	require.NoError(t, err)
	require.NotNil(t, alpha.Temperature)
	assert.Equal(t, 0.5, *alpha.Temperature)

	zeta, err := agents.Agent("zeta")
	require.NoError(t, err)
	assert.Nil(t, zeta.Temperature, "unset temperature stays nil")
	assert.Equal(t, "anthropic/claude-sonnet-4-20250514", alpha.LLM)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadTasksConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	cases := map[string]string{
		"not a mapping":  "- a\n- b\n",
		"duplicate":      "t:\n  description: x\nt:\n  description: y\n",
		"no description": "t:\n  agent: a\n",
		"empty":          "",
		"bad yaml":       "t: [unclosed\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTasksConfig([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err = ParseAgentsConfig([]byte("a:\n  goal: no role\n"))
	assert.Error(t, err)
}

func TestAgentAndTaskLookup(t *testing.T) {
	agents, err := LoadAgentsConfig("")
	require.NoError(t, err)
	_, err = agents.Agent("qa_engineer")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), `"qa_engineer"`)

	tasks, err := LoadTasksConfig("")
	require.NoError(t, err)
	_, err = tasks.Task("deploy_task")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

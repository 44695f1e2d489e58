package crew

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rohankatakam/crewforge/internal/errors"
	"github.com/rohankatakam/crewforge/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM answers each request with "result-<n>" and records what it was sent
type fakeLLM struct {
	mu       sync.Mutex
	requests []llm.Request
	failAt   int // 1-based call that fails, 0 never
	reply    func(n int, req llm.Request) string
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	if n == f.failAt {
		return nil, errors.ExternalError(stderrors.New("401 invalid api key"), "llm completion failed")
	}
	content := fmt.Sprintf("result-%d", n)
	if f.reply != nil {
		content = f.reply(n, req)
	}
	return &llm.Response{Content: content, Model: "fake", PromptTokens: 10, CompletionTokens: 5}, nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func testInputs() Inputs {
	return Inputs{
		InputRequirements: "Build a ticketing system with projects and tickets.",
		InputFeatureName:  "jiro",
	}
}

func newTeam(t *testing.T, completer llm.Completer, opts ...Option) *Crew {
	t.Helper()
	agents, err := LoadAgentsConfig("")
	require.NoError(t, err)
	tasks, err := LoadTasksConfig("")
	require.NoError(t, err)

	team, err := NewEngineeringTeam(agents, tasks, completer, opts...)
	require.NoError(t, err)
	return team
}

func TestNewEngineeringTeam_Roster(t *testing.T) {
	team := newTeam(t, &fakeLLM{})

	var agentKeys []string
	for _, a := range team.Agents() {
		agentKeys = append(agentKeys, a.Key)
	}
	assert.Equal(t, []string{"rails_architect", "frontend_developer", "integration_engineer"}, agentKeys)

	var taskNames []string
	for _, task := range team.Tasks() {
		taskNames = append(taskNames, task.Name)
	}
	assert.Equal(t, []string{"architecture_task", "frontend_task", "integration_task", "migration_task", "model_task"}, taskNames)

	assert.Equal(t, []string{"feature_name", "requirements"}, team.RequiredInputs())
}

func TestKickoff_RunsTasksInOrderOnce(t *testing.T) {
	fake := &fakeLLM{}
	var started []string
	observer := ObserverFunc(func(ctx context.Context, e Event) {
		if e.Type == EventTaskStarted {
			started = append(started, e.Task)
		}
	})

	team := newTeam(t, fake, WithOutputDir(t.TempDir()), WithObserver(observer))
	out, err := team.Kickoff(context.Background(), testInputs())
	require.NoError(t, err)

	assert.Equal(t, EngineeringTasks, started)
	assert.Equal(t, 5, fake.calls())

	require.Len(t, out.TasksOutput, 5)
	for i, o := range out.TasksOutput {
		assert.Equal(t, EngineeringTasks[i], o.Name)
		assert.Equal(t, fmt.Sprintf("result-%d", i+1), o.Raw)
	}

	assert.Equal(t, "result-5", out.Raw, "final result is the last task's output")
	assert.Equal(t, out.Raw, out.String())
	assert.Equal(t, int64(75), out.TokenUsage.TotalTokens)
	assert.Equal(t, 5, out.TokenUsage.Requests)
}

func TestKickoff_AgentsDriveSystemPrompts(t *testing.T) {
	fake := &fakeLLM{}
	team := newTeam(t, fake, WithOutputDir(t.TempDir()))

	_, err := team.Kickoff(context.Background(), testInputs())
	require.NoError(t, err)

	assert.Contains(t, fake.requests[0].SystemPrompt, "Senior Rails Architect for jiro")
	assert.Contains(t, fake.requests[1].SystemPrompt, "Rails Frontend Developer for jiro")
	for _, req := range fake.requests[2:] {
		assert.Contains(t, req.SystemPrompt, "Rails Integration Engineer for jiro")
	}

	assert.Contains(t, fake.requests[0].UserPrompt, "Build a ticketing system with projects and tickets.")
	for _, req := range fake.requests {
		assert.NotContains(t, req.SystemPrompt+req.UserPrompt, "{feature_name}")
		assert.NotContains(t, req.SystemPrompt+req.UserPrompt, "{requirements}")
	}
}

func TestKickoff_ContextHandoff(t *testing.T) {
	fake := &fakeLLM{reply: func(n int, req llm.Request) string {
		return fmt.Sprintf("OUTPUT_%s", EngineeringTasks[n-1])
	}}
	team := newTeam(t, fake, WithOutputDir(t.TempDir()))

	_, err := team.Kickoff(context.Background(), testInputs())
	require.NoError(t, err)

	prompts := map[string]string{}
	for i, req := range fake.requests {
		prompts[EngineeringTasks[i]] = req.UserPrompt
	}

	assert.NotContains(t, prompts[TaskArchitecture], "OUTPUT_")
	assert.Contains(t, prompts[TaskFrontend], "OUTPUT_architecture_task")

	assert.Contains(t, prompts[TaskMigration], "OUTPUT_architecture_task")
	assert.NotContains(t, prompts[TaskMigration], "OUTPUT_frontend_task", "context limits what a task sees")

	for _, name := range []string{"architecture_task", "integration_task", "migration_task"} {
		assert.Contains(t, prompts[TaskModel], "OUTPUT_"+name)
	}
}

func TestKickoff_WritesOutputFiles(t *testing.T) {
	fake := &fakeLLM{reply: func(n int, req llm.Request) string {
		return "```ruby\nclass Thing\nend\n```"
	}}
	dir := filepath.Join(t.TempDir(), "output")
	team := newTeam(t, fake, WithOutputDir(dir))

	out, err := team.Kickoff(context.Background(), testInputs())
	require.NoError(t, err)

	for _, name := range []string{"jiro_controllers.rb", "jiro_migrations.rb", "jiro_models.rb"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, "class Thing\nend\n", string(data))
	}

	assert.Empty(t, out.TasksOutput[0].OutputFile)
	assert.Equal(t, filepath.Join(dir, "jiro_models.rb"), out.TasksOutput[4].OutputFile)
	assert.Equal(t, "```ruby\nclass Thing\nend\n```", out.Raw, "returned result is not rewritten")
}

func TestKickoff_MissingInputFailsBeforeAnyTask(t *testing.T) {
	for _, drop := range []string{InputRequirements, InputFeatureName} {
		t.Run(drop, func(t *testing.T) {
			fake := &fakeLLM{}
			events := 0
			dir := filepath.Join(t.TempDir(), "output")
			team := newTeam(t, fake, WithOutputDir(dir), WithObserver(ObserverFunc(func(context.Context, Event) { events++ })))

			inputs := testInputs()
			delete(inputs, drop)

			out, err := team.Kickoff(context.Background(), inputs)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.Contains(t, err.Error(), drop)

			assert.Equal(t, 0, fake.calls(), "no task may run")
			assert.Equal(t, 0, events)

			info, statErr := os.Stat(dir)
			require.NoError(t, statErr, "output directory exists even when the run fails")
			assert.True(t, info.IsDir())
		})
	}
}

func TestKickoff_TaskFailureAborts(t *testing.T) {
	fake := &fakeLLM{failAt: 2}
	var failed, finished []string
	observer := ObserverFunc(func(ctx context.Context, e Event) {
		switch e.Type {
		case EventTaskFailed:
			failed = append(failed, e.Task)
		case EventTaskFinished:
			finished = append(finished, e.Task)
		}
	})

	dir := t.TempDir()
	team := newTeam(t, fake, WithOutputDir(dir), WithObserver(observer))
	_, err := team.Kickoff(context.Background(), testInputs())
	require.Error(t, err)

	assert.Contains(t, err.Error(), "frontend_task")
	assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))
	assert.Equal(t, 2, fake.calls(), "no retry and no further tasks")
	assert.Equal(t, []string{"architecture_task"}, finished)
	assert.Equal(t, []string{"frontend_task"}, failed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestKickoff_CancelledContext(t *testing.T) {
	fake := &fakeLLM{}
	team := newTeam(t, fake, WithOutputDir(t.TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := team.Kickoff(ctx, testInputs())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fake.calls())
}

func TestKickoff_ExtraPlaceholdersAreRequired(t *testing.T) {
	agents, err := ParseAgentsConfig([]byte(`
writer:
  role: Writer for {audience}
  goal: Write
  backstory: Writes things
`))
	require.NoError(t, err)
	tasks, err := ParseTasksConfig([]byte(`
draft:
  description: Draft {topic} for {feature_name}
  expected_output: A draft
  agent: writer
`))
	require.NoError(t, err)

	fake := &fakeLLM{}
	c, err := Assemble(agents, tasks, []string{"writer"}, []string{"draft"}, fake)
	require.NoError(t, err)

	_, err = c.Kickoff(context.Background(), testInputs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audience, topic")
	assert.Equal(t, 0, fake.calls())

	inputs := testInputs()
	inputs["audience"] = "engineers"
	inputs["topic"] = "design notes"
	out, err := c.Kickoff(context.Background(), inputs)
	require.NoError(t, err)
	assert.Equal(t, "result-1", out.Raw)
	assert.Contains(t, fake.requests[0].UserPrompt, "Draft design notes for jiro")
}

func TestAssemble_MissingKeys(t *testing.T) {
	agents, err := LoadAgentsConfig("")
	require.NoError(t, err)
	tasks, err := LoadTasksConfig("")
	require.NoError(t, err)

	_, err = Assemble(agents, tasks, []string{"rails_architect", "qa_engineer"}, EngineeringTasks, &fakeLLM{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "qa_engineer")

	_, err = Assemble(agents, tasks, EngineeringAgents, []string{"architecture_task", "deploy_task"}, &fakeLLM{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deploy_task")

	_, err = Assemble(agents, tasks, []string{"rails_architect"}, EngineeringTasks, &fakeLLM{})
	require.Error(t, err, "tasks must be assigned to an agent in the crew")
}

func TestNew_ContextMustReferenceEarlierTask(t *testing.T) {
	a := &Agent{Key: "a", Role: "r"}
	tasks := []*Task{
		{Name: "first", Description: "d", Agent: a, Context: []string{"second"}},
		{Name: "second", Description: "d", Agent: a},
	}
	_, err := New([]*Agent{a}, tasks, &fakeLLM{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNew_RequiresTasksAndCompleter(t *testing.T) {
	a := &Agent{Key: "a", Role: "r"}
	_, err := New([]*Agent{a}, nil, &fakeLLM{})
	assert.Error(t, err)

	_, err = New([]*Agent{a}, []*Task{{Name: "t", Agent: a}}, nil)
	assert.Error(t, err)
}

func TestAgentModelOverride(t *testing.T) {
	a := NewAgent("x", AgentConfig{Role: "r", LLM: "openai/gpt-4o", MaxTokens: 500, Temperature: llm.Float(0.7)})
	assert.Equal(t, "gpt-4o", a.Model)

	b := NewAgent("y", AgentConfig{Role: "r", LLM: "meta-llama/Llama-3.1-8B"})
	assert.Equal(t, "meta-llama/Llama-3.1-8B", b.Model)

	fake := &fakeLLM{}
	c, err := New([]*Agent{a}, []*Task{NewTask("t", TaskConfig{Description: "do"}, a)}, fake,
		WithRequiredInputs())
	require.NoError(t, err)
	_, err = c.Kickoff(context.Background(), Inputs{})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", fake.requests[0].Model)
	assert.Equal(t, 500, fake.requests[0].MaxTokens)
	require.NotNil(t, fake.requests[0].Temperature)
	assert.Equal(t, 0.7, *fake.requests[0].Temperature)
}

func TestAgentZeroTemperatureReachesCompleter(t *testing.T) {
	agents, err := ParseAgentsConfig([]byte(`
precise:
  role: Precise
  goal: g
  backstory: b
  temperature: 0
`))
	require.NoError(t, err)
	cfg, err := agents.Agent("precise")
	require.NoError(t, err)
	require.NotNil(t, cfg.Temperature)

	a := NewAgent("precise", cfg)
	fake := &fakeLLM{}
	c, err := New([]*Agent{a}, []*Task{NewTask("t", TaskConfig{Description: "do"}, a)}, fake,
		WithRequiredInputs())
	require.NoError(t, err)
	_, err = c.Kickoff(context.Background(), Inputs{})
	require.NoError(t, err)

	require.NotNil(t, fake.requests[0].Temperature)
	assert.Equal(t, 0.0, *fake.requests[0].Temperature)
}

func TestTaskPrompt(t *testing.T) {
	task := &Task{Description: "Write models", ExpectedOutput: "Ruby code"}

	plain := task.Prompt(nil)
	assert.True(t, strings.HasPrefix(plain, "Write models"))
	assert.Contains(t, plain, "expected criteria for your final answer: Ruby code")
	assert.NotContains(t, plain, "context")

	withCtx := task.Prompt([]TaskOutput{
		{Name: "architecture_task", Agent: "rails_architect", Raw: "DESIGN"},
		{Name: "migration_task", Agent: "integration_engineer", Raw: "MIGRATIONS"},
	})
	assert.Contains(t, withCtx, "## Output of architecture_task (rails_architect)\n\nDESIGN")
	assert.Less(t, strings.Index(withCtx, "DESIGN"), strings.Index(withCtx, "MIGRATIONS"))
}

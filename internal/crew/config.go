package crew

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rohankatakam/crewforge/internal/errors"
	"gopkg.in/yaml.v3"
)

// DefaultAgentsYAML is the built-in agent roster for the Rails engineering crew
//
//go:embed config/agents.yaml
var DefaultAgentsYAML []byte

// DefaultTasksYAML is the built-in task pipeline for the Rails engineering crew
//
//go:embed config/tasks.yaml
var DefaultTasksYAML []byte

// AgentConfig is one entry of agents.yaml
type AgentConfig struct {
	Role        string  `yaml:"role" json:"role"`
	Goal        string  `yaml:"goal" json:"goal"`
	Backstory   string  `yaml:"backstory" json:"backstory"`
	LLM         string  `yaml:"llm,omitempty" json:"llm,omitempty"` // model override
	Verbose     bool    `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
}

// TaskConfig is one entry of tasks.yaml
type TaskConfig struct {
	Description    string   `yaml:"description" json:"description"`
	ExpectedOutput string   `yaml:"expected_output" json:"expected_output"`
	Agent          string   `yaml:"agent" json:"agent"`
	Context        []string `yaml:"context,omitempty" json:"context,omitempty"`
	OutputFile     string   `yaml:"output_file,omitempty" json:"output_file,omitempty"`
}

// AgentsConfig holds agents.yaml entries in file order
type AgentsConfig struct {
	Source string
	keys   []string
	agents map[string]AgentConfig
}

// TasksConfig holds tasks.yaml entries in file order
type TasksConfig struct {
	Source string
	keys   []string
	tasks  map[string]TaskConfig
}

// LoadAgentsConfig reads agents from path, or the embedded defaults when
// path is empty.
func LoadAgentsConfig(path string) (*AgentsConfig, error) {
	data, source, err := readConfig(path, DefaultAgentsYAML)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseAgentsConfig(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical,
			"invalid agents config").WithContext("path", source)
	}
	cfg.Source = source
	return cfg, nil
}

// LoadTasksConfig reads tasks from path, or the embedded defaults when path
// is empty.
func LoadTasksConfig(path string) (*TasksConfig, error) {
	data, source, err := readConfig(path, DefaultTasksYAML)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseTasksConfig(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical,
			"invalid tasks config").WithContext("path", source)
	}
	cfg.Source = source
	return cfg, nil
}

func readConfig(path string, fallback []byte) ([]byte, string, error) {
	if path == "" {
		return fallback, "embedded", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical,
			fmt.Sprintf("failed to read %s", path))
	}
	return data, path, nil
}

// ParseAgentsConfig decodes an agents.yaml document
func ParseAgentsConfig(data []byte) (*AgentsConfig, error) {
	keys, agents, err := decodeOrdered[AgentConfig](data)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if agents[k].Role == "" {
			return nil, fmt.Errorf("agent %q has no role", k)
		}
	}
	return &AgentsConfig{keys: keys, agents: agents}, nil
}

// ParseTasksConfig decodes a tasks.yaml document
func ParseTasksConfig(data []byte) (*TasksConfig, error) {
	keys, tasks, err := decodeOrdered[TaskConfig](data)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if tasks[k].Description == "" {
			return nil, fmt.Errorf("task %q has no description", k)
		}
	}
	return &TasksConfig{keys: keys, tasks: tasks}, nil
}

// decodeOrdered decodes a top-level YAML mapping while keeping key order,
// which a plain map decode loses.
func decodeOrdered[T any](data []byte) ([]string, map[string]T, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil, fmt.Errorf("document is empty")
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("line %d: expected a mapping of names to entries", doc.Line)
	}

	keys := make([]string, 0, len(doc.Content)/2)
	entries := make(map[string]T, len(doc.Content)/2)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		if _, dup := entries[key]; dup {
			return nil, nil, fmt.Errorf("line %d: duplicate entry %q", doc.Content[i].Line, key)
		}
		var v T
		if err := doc.Content[i+1].Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("entry %q: %w", key, err)
		}
		keys = append(keys, key)
		entries[key] = v
	}
	return keys, entries, nil
}

// Keys returns agent names in file order
func (c *AgentsConfig) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Agent returns the named agent or a config error when it is not declared
func (c *AgentsConfig) Agent(key string) (AgentConfig, error) {
	a, ok := c.agents[key]
	if !ok {
		return AgentConfig{}, errors.ConfigErrorf("agent %q not found in agents config", key).
			WithContext("source", c.Source)
	}
	return a, nil
}

// Keys returns task names in file order
func (c *TasksConfig) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Task returns the named task or a config error when it is not declared
func (c *TasksConfig) Task(key string) (TaskConfig, error) {
	t, ok := c.tasks[key]
	if !ok {
		return TaskConfig{}, errors.ConfigErrorf("task %q not found in tasks config", key).
			WithContext("source", c.Source)
	}
	return t, nil
}

package crew

import (
	"fmt"
	"strings"
)

// Agent is a named persona that performs tasks
type Agent struct {
	Key         string
	Role        string
	Goal        string
	Backstory   string
	Model       string // empty uses the completer default
	MaxTokens   int
	Temperature *float64 // nil uses the completer default
	Verbose     bool
}

// NewAgent binds an agents.yaml entry to its key
func NewAgent(key string, cfg AgentConfig) *Agent {
	return &Agent{
		Key:         key,
		Role:        strings.TrimSpace(cfg.Role),
		Goal:        strings.TrimSpace(cfg.Goal),
		Backstory:   strings.TrimSpace(cfg.Backstory),
		Model:       modelName(cfg.LLM),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Verbose:     cfg.Verbose,
	}
}

// modelName drops a leading provider segment ("openai/gpt-4o" -> "gpt-4o").
// Other slashes are part of the model id on OpenAI-compatible servers.
func modelName(llm string) string {
	llm = strings.TrimSpace(llm)
	for _, p := range []string{"openai/", "gemini/", "anthropic/"} {
		if strings.HasPrefix(llm, p) {
			return strings.TrimPrefix(llm, p)
		}
	}
	return llm
}

func (a *Agent) templates() []string {
	return []string{a.Role, a.Goal, a.Backstory}
}

func (a *Agent) interpolate(inputs Inputs) *Agent {
	out := *a
	out.Role = Interpolate(a.Role, inputs)
	out.Goal = Interpolate(a.Goal, inputs)
	out.Backstory = Interpolate(a.Backstory, inputs)
	return &out
}

// SystemPrompt renders the persona sent as the system message
func (a *Agent) SystemPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s. %s\n", a.Role, a.Backstory)
	fmt.Fprintf(&sb, "Your personal goal is: %s", a.Goal)
	return sb.String()
}

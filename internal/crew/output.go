package crew

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohankatakam/crewforge/internal/errors"
	"github.com/rohankatakam/crewforge/internal/llm"
)

// TaskOutput is the result of one task
type TaskOutput struct {
	Name        string        `json:"name"`
	Agent       string        `json:"agent"`
	Description string        `json:"description"`
	Raw         string        `json:"raw"`
	OutputFile  string        `json:"output_file,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// CrewOutput is what Kickoff returns
type CrewOutput struct {
	// Raw is the final task's result, unmodified
	Raw         string         `json:"raw"`
	TasksOutput []TaskOutput   `json:"tasks_output"`
	TokenUsage  llm.TokenUsage `json:"token_usage"`
}

// String returns Raw verbatim
func (o *CrewOutput) String() string {
	return o.Raw
}

// EnsureOutputDir creates dir and its parents
func EnsureOutputDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.FileSystemErrorf(err, "failed to create output directory %s", dir)
	}
	return nil
}

// resolveOutputPath places relative paths under outputDir. A relative path
// already rooted at outputDir is used as is.
func resolveOutputPath(outputDir, file string) string {
	if filepath.IsAbs(file) || outputDir == "" {
		return file
	}
	clean := filepath.Clean(file)
	if clean == filepath.Clean(outputDir) || strings.HasPrefix(clean, filepath.Clean(outputDir)+string(filepath.Separator)) {
		return clean
	}
	return filepath.Join(outputDir, clean)
}

func writeOutputFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.FileSystemErrorf(err, "failed to create directory for %s", path)
	}
	if err := os.WriteFile(path, []byte(StripCodeFence(content)), 0644); err != nil {
		return errors.FileSystemErrorf(err, "failed to write %s", path)
	}
	return nil
}

// StripCodeFence removes a fence that wraps the whole text, such as
// "```ruby\n...\n```". Text with prose around or between fences is returned
// unchanged.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return s
	}
	if strings.Count(trimmed, "```") != 2 {
		return s
	}

	nl := strings.IndexByte(trimmed, '\n')
	if nl < 0 {
		return s
	}
	body := trimmed[nl+1 : len(trimmed)-3]
	return strings.TrimRight(body, " \t\n") + "\n"
}

// Package requirements holds the built-in application briefs the crew can
// build, and loads custom briefs from disk.
package requirements

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rohankatakam/crewforge/internal/crew"
	"github.com/rohankatakam/crewforge/internal/errors"
)

// Preset is a named requirements document with the feature name used to
// label its outputs
type Preset struct {
	Name         string `json:"name"`
	FeatureName  string `json:"feature_name"`
	Summary      string `json:"summary"`
	Requirements string `json:"requirements"`
}

// DefaultPreset is what `crewforge run` builds without flags
const DefaultPreset = "ticketing"

var presets = map[string]Preset{
	"ticketing": {
		Name:         "ticketing",
		FeatureName:  "jiro",
		Summary:      "Project and ticket tracker with comments, assignment, activity log and roles",
		Requirements: ticketingRequirements,
	},
	"ecommerce": {
		Name:         "ecommerce",
		FeatureName:  "ecommerce_store",
		Summary:      "Online store with catalog, session cart, checkout and admin",
		Requirements: ecommerceRequirements,
	},
}

// Lookup returns the named preset
func Lookup(name string) (Preset, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, errors.ValidationErrorf("unknown preset %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns the preset names, sorted
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every preset, sorted by name
func All() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, n := range Names() {
		out = append(out, presets[n])
	}
	return out
}

var featureNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateFeatureName checks that name is usable as an output file prefix
func ValidateFeatureName(name string) error {
	if !featureNameRe.MatchString(name) {
		return errors.ValidationErrorf("feature name %q must start with a letter and contain only letters, digits and underscores", name)
	}
	return nil
}

// FromFile reads a custom requirements document. When feature is empty it is
// derived from the file name ("docs/Help Desk.md" -> "help_desk").
func FromFile(path, feature string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, errors.FileSystemErrorf(err, "failed to read requirements file %s", path)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return Preset{}, errors.ValidationErrorf("requirements file %s is empty", path)
	}

	if feature == "" {
		feature = featureFromPath(path)
	}
	if err := ValidateFeatureName(feature); err != nil {
		return Preset{}, err
	}

	return Preset{
		Name:         "custom",
		FeatureName:  feature,
		Summary:      fmt.Sprintf("Requirements from %s", path),
		Requirements: text,
	}, nil
}

var nonWordRe = regexp.MustCompile(`[^a-z0-9]+`)

func featureFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := strings.Trim(nonWordRe.ReplaceAllString(strings.ToLower(base), "_"), "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "app_" + name
	}
	return strings.TrimSuffix(name, "_")
}

// Inputs returns the kickoff inputs for the preset
func (p Preset) Inputs() crew.Inputs {
	return crew.Inputs{
		crew.InputRequirements: p.Requirements,
		crew.InputFeatureName:  p.FeatureName,
	}
}

package crew

import (
	"regexp"
	"sort"
)

// Inputs are the named values substituted into agent and task templates
type Inputs map[string]string

// Required input keys for the engineering crew
const (
	InputRequirements = "requirements"
	InputFeatureName  = "feature_name"
)

// placeholderRe matches {identifier}. Braces around anything else, such as
// Ruby hash literals or JSON, are not placeholders.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Placeholders returns the distinct placeholder names in template, in order
// of first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Interpolate replaces every {name} whose name is in inputs with its value.
// Unknown placeholders are left as written. Substituted values are not
// scanned again.
func Interpolate(template string, inputs Inputs) string {
	if len(inputs) == 0 {
		return template
	}
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		if v, ok := inputs[match[1:len(match)-1]]; ok {
			return v
		}
		return match
	})
}

// MissingInputs returns the sorted names referenced by templates, plus the
// always-required keys, that are absent from inputs.
func MissingInputs(inputs Inputs, required []string, templates ...string) []string {
	want := make(map[string]bool)
	for _, k := range required {
		want[k] = true
	}
	for _, t := range templates {
		for _, name := range Placeholders(t) {
			want[name] = true
		}
	}

	var missing []string
	for name := range want {
		if _, ok := inputs[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

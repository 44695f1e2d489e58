package mcp

import (
	"context"
)

// Resource URIs
const (
	AgentsURI = "crewforge://agents"
	TasksURI  = "crewforge://tasks"
)

// YAMLResource serves a YAML document as text contents
type YAMLResource struct {
	uri  string
	data []byte
}

// NewYAMLResource creates a resource returning data for uri
func NewYAMLResource(uri string, data []byte) *YAMLResource {
	return &YAMLResource{uri: uri, data: data}
}

// MimeType reports the content type in resources/list
func (r *YAMLResource) MimeType() string {
	return "application/yaml"
}

// Read returns the document in the resources/read shape
func (r *YAMLResource) Read(ctx context.Context) (interface{}, error) {
	return map[string]interface{}{
		"contents": []map[string]string{{
			"uri":      r.uri,
			"mimeType": r.MimeType(),
			"text":     string(r.data),
		}},
	}, nil
}

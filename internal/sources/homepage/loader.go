// Package homepage imports bookmarks from a Homepage dashboard
// bookmarks.yaml file.
package homepage

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/flare/internal/domain"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads a Homepage bookmarks.yaml file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the bookmarks file.
func (l *Loader) Load() (BookmarksConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
	}

	// Homepage template variables ({{HOMEPAGE_VAR_...}}) are never resolved here
	data = stripTemplateVariables(data)

	var config BookmarksConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
	}
	return config, nil
}

// Read loads the file and maps it to drafts. Unusable entries are returned
// as skipped, each a Skipped error.
func (l *Loader) Read() ([]domain.Draft, []error, error) {
	config, err := l.Load()
	if err != nil {
		return nil, nil, err
	}
	drafts, skipped, err := MapDrafts(config)
	errs := make([]error, len(skipped))
	for i, s := range skipped {
		errs[i] = s
	}
	return drafts, errs, err
}

// stripTemplateVariables replaces template variables with empty strings.
// Example: {{HOMEPAGE_VAR_GITEA_URL}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}

// SPDX-License-Identifier: MPL-2.0

package workflowfile

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// maxFileSize bounds workflow files; anything larger is rejected before parsing.
const maxFileSize = 1 << 20

// Load reads, parses, and validates a workflow file.
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes and validates workflow YAML. The path is recorded on the
// returned Workflow and used in error messages.
func Parse(data []byte, path string) (*Workflow, error) {
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("%s: workflow file exceeds %d bytes", path, maxFileSize)
	}

	var wf Workflow
	if err := yaml.UnmarshalWithOptions(data, &wf, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := wf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	wf.FilePath = path
	return &wf, nil
}

// SPDX-License-Identifier: MPL-2.0

// Package workflowfile defines the declarative workflow format consumed by
// siglaci: a trigger condition plus a strictly ordered list of steps.
package workflowfile

import (
	"fmt"
	"strings"
)

// DefaultFileName is the conventional workflow file location, relative to the
// repository root.
const DefaultFileName = ".siglaci/workflow.yml"

// Builtin step names usable in a step's 'uses' field.
const (
	// BuiltinCheckout acquires repository contents at the triggering revision.
	BuiltinCheckout = "checkout"
	// BuiltinDecryptSecret decrypts an encrypted credential bundle into a file.
	BuiltinDecryptSecret = "decrypt-secret"
)

type (
	// Workflow represents one workflow definition loaded from YAML.
	Workflow struct {
		// Name identifies the workflow in logs and commit statuses.
		Name string `yaml:"name"`
		// On declares when the workflow fires.
		On Trigger `yaml:"on"`
		// Env contains workflow-level environment variables applied to every step.
		Env map[string]string `yaml:"env,omitempty"`
		// Defaults holds workflow-level execution defaults.
		Defaults Defaults `yaml:"defaults,omitempty"`
		// Steps is the ordered, non-branching step sequence.
		Steps []Step `yaml:"steps"`

		// FilePath stores where this workflow was loaded from (not in YAML).
		FilePath string `yaml:"-"`
	}

	// Trigger declares the events a workflow responds to. Only pull_request
	// is defined; any other event kind never fires the workflow.
	Trigger struct {
		PullRequest *PullRequestTrigger `yaml:"pull_request"`
	}

	// PullRequestTrigger fires for pull-request events targeting one of the
	// configured base branches.
	PullRequestTrigger struct {
		// Branches holds target-branch patterns. `*` matches any run of
		// characters within a name. Empty means any target branch.
		Branches []string `yaml:"branches,omitempty"`
	}

	// Defaults holds workflow-level execution defaults, overridable per step.
	Defaults struct {
		// Runtime selects the execution runtime ("native" or "virtual").
		Runtime string `yaml:"runtime,omitempty"`
		// Shell overrides the shell used by the native runtime.
		Shell string `yaml:"shell,omitempty"`
	}

	// Step is one entry in the workflow's step sequence. Exactly one of Run
	// and Uses must be set.
	Step struct {
		// Name is the display name for logs; optional.
		Name string `yaml:"name,omitempty"`
		// Run is an inline script executed by the selected runtime.
		Run string `yaml:"run,omitempty"`
		// Uses names a builtin step executed in-process by the runner.
		Uses string `yaml:"uses,omitempty"`
		// With supplies parameters to a builtin step.
		With map[string]string `yaml:"with,omitempty"`
		// Env contains step-level environment variables (override workflow env).
		Env map[string]string `yaml:"env,omitempty"`
		// Secrets lists secret names resolved at run time and injected into
		// the step environment under their own names.
		Secrets []string `yaml:"secrets,omitempty"`
		// WorkingDir overrides the working directory, relative to the workspace.
		WorkingDir string `yaml:"working-dir,omitempty"`
		// Runtime overrides the default runtime for this step.
		Runtime string `yaml:"runtime,omitempty"`
		// Shell overrides the default shell for this step.
		Shell string `yaml:"shell,omitempty"`
	}
)

// builtinSteps is the set of step names valid in a 'uses' field.
var builtinSteps = map[string]bool{
	BuiltinCheckout:      true,
	BuiltinDecryptSecret: true,
}

// IsBuiltin reports whether name identifies a builtin step.
func IsBuiltin(name string) bool {
	return builtinSteps[name]
}

// Validate checks structural constraints that the YAML decoder cannot express.
func (w *Workflow) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("workflow has no name")
	}
	if w.On.PullRequest == nil {
		return fmt.Errorf("workflow %q declares no trigger (expected on.pull_request)", w.Name)
	}
	if len(w.Steps) == 0 {
		return fmt.Errorf("workflow %q has no steps", w.Name)
	}
	if w.Defaults.Runtime != "" && !validRuntime(w.Defaults.Runtime) {
		return fmt.Errorf("workflow %q: unknown default runtime %q", w.Name, w.Defaults.Runtime)
	}

	for i := range w.Steps {
		if err := w.Steps[i].validate(); err != nil {
			return fmt.Errorf("workflow %q: step %d (%s): %w", w.Name, i+1, w.Steps[i].DisplayName(i), err)
		}
	}
	return nil
}

// DisplayName returns the step's name, or a positional fallback for logs.
func (s *Step) DisplayName(index int) string {
	if s.Name != "" {
		return s.Name
	}
	if s.Uses != "" {
		return s.Uses
	}
	return fmt.Sprintf("step-%d", index+1)
}

// IsRun reports whether the step executes an inline script.
func (s *Step) IsRun() bool { return s.Run != "" }

func (s *Step) validate() error {
	hasRun := strings.TrimSpace(s.Run) != ""
	hasUses := s.Uses != ""

	switch {
	case hasRun && hasUses:
		return fmt.Errorf("has both 'run' and 'uses'; exactly one is allowed")
	case !hasRun && !hasUses:
		return fmt.Errorf("has neither 'run' nor 'uses'")
	}

	if hasUses && !IsBuiltin(s.Uses) {
		return fmt.Errorf("unknown builtin %q", s.Uses)
	}
	if hasRun && len(s.With) > 0 {
		return fmt.Errorf("'with' is only valid on builtin steps")
	}
	if s.Runtime != "" && !validRuntime(s.Runtime) {
		return fmt.Errorf("unknown runtime %q", s.Runtime)
	}
	return nil
}

func validRuntime(mode string) bool {
	return mode == "native" || mode == "virtual"
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

const (
	// RuntimeNative runs step scripts in the host system shell.
	// Defined locally to avoid coupling config to internal/runtime.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs step scripts in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultTokenEnv is the environment variable consulted for the GitHub
	// API token when github.token_env is not configured.
	DefaultTokenEnv = "SIGLACI_GITHUB_TOKEN"
)

var (
	// ErrInvalidRuntimeMode is returned when a RuntimeMode value is not recognized.
	ErrInvalidRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
)

type (
	// RuntimeMode specifies the execution runtime for step scripts.
	// The orchestrator casts to runtime.Mode at the boundary.
	RuntimeMode string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// Config is the resolved siglaci configuration.
	Config struct {
		// DefaultRuntime selects the runtime for steps without an override.
		DefaultRuntime RuntimeMode `json:"default_runtime" mapstructure:"default_runtime"`
		// Shell overrides the shell used by the native runtime.
		Shell string `json:"shell,omitempty" mapstructure:"shell"`
		// WorkspaceRoot is where per-run ephemeral workspaces are created.
		// Empty means the OS temp directory.
		WorkspaceRoot string `json:"workspace_root,omitempty" mapstructure:"workspace_root"`
		// SecretsFile is the optional operator-managed TOML secrets file.
		SecretsFile string `json:"secrets_file,omitempty" mapstructure:"secrets_file"`
		// KeepWorkspace disables workspace teardown after a run (debugging).
		KeepWorkspace bool `json:"keep_workspace" mapstructure:"keep_workspace"`
		// GitHub configures commit-status reporting.
		GitHub GitHubConfig `json:"github" mapstructure:"github"`
		// UI configures terminal output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// GitHubConfig configures the optional commit-status reporter.
	GitHubConfig struct {
		// ReportStatus enables posting pending/success/failure statuses to
		// the triggering head SHA.
		ReportStatus bool `json:"report_status" mapstructure:"report_status"`
		// TokenEnv names the environment variable holding the API token.
		TokenEnv string `json:"token_env,omitempty" mapstructure:"token_env"`
		// APIURL overrides the GitHub API base URL (GitHub Enterprise).
		APIURL string `json:"api_url,omitempty" mapstructure:"api_url"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		// ColorScheme selects the terminal color scheme.
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output by default.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// IsValid reports whether the RuntimeMode is recognized.
func (m RuntimeMode) IsValid() bool {
	return m == RuntimeNative || m == RuntimeVirtual
}

// IsValid reports whether the ColorScheme is recognized.
func (s ColorScheme) IsValid() bool {
	return s == ColorSchemeAuto || s == ColorSchemeDark || s == ColorSchemeLight
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultRuntime: RuntimeNative,
		GitHub: GitHubConfig{
			ReportStatus: false,
			TokenEnv:     DefaultTokenEnv,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}

// Validate checks constraints the CUE schema also expresses, for configs
// constructed programmatically.
func (c *Config) Validate() error {
	if !c.DefaultRuntime.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRuntimeMode, c.DefaultRuntime)
	}
	if !c.UI.ColorScheme.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidColorScheme, c.UI.ColorScheme)
	}
	return nil
}

// Token returns the GitHub API token from the configured environment
// variable, or "" when unset.
func (g *GitHubConfig) Token(lookupEnv func(string) (string, bool)) string {
	env := g.TokenEnv
	if env == "" {
		env = DefaultTokenEnv
	}
	if v, ok := lookupEnv(env); ok {
		return v
	}
	return ""
}

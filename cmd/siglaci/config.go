// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/tohuynh/siglaci/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `siglaci config` command tree.
func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage siglaci configuration",
		Long: `Manage siglaci configuration.

Configuration is stored in:
  - Linux: ~/.config/siglaci/config.cue
  - macOS: ~/Library/Application Support/siglaci/config.cue
  - Windows: %APPDATA%\siglaci\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig() error {
	cfg, path, err := config.Load()
	if err != nil {
		return err
	}

	keyStyle := StepStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	if path != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", keyStyle.Render("default_runtime"), valueStyle.Render(string(cfg.DefaultRuntime)))
	fmt.Printf("%s: %s\n", keyStyle.Render("shell"), renderOptional(valueStyle.Render(cfg.Shell), cfg.Shell != ""))
	fmt.Printf("%s: %s\n", keyStyle.Render("workspace_root"), renderOptional(valueStyle.Render(cfg.WorkspaceRoot), cfg.WorkspaceRoot != ""))
	fmt.Printf("%s: %s\n", keyStyle.Render("secrets_file"), renderOptional(valueStyle.Render(cfg.SecretsFile), cfg.SecretsFile != ""))
	fmt.Printf("%s: %s\n", keyStyle.Render("keep_workspace"), valueStyle.Render(fmt.Sprintf("%v", cfg.KeepWorkspace)))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("github"))
	fmt.Printf("  report_status: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.GitHub.ReportStatus)))
	fmt.Printf("  token_env: %s\n", valueStyle.Render(cfg.GitHub.TokenEnv))
	fmt.Printf("  api_url: %s\n", renderOptional(valueStyle.Render(cfg.GitHub.APIURL), cfg.GitHub.APIURL != ""))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Printf("  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func renderOptional(rendered string, set bool) string {
	if !set {
		return SubtitleStyle.Render("(not set)")
	}
	return rendered
}

func initConfig() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	if err = config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("%s Created default configuration at %s/config.cue\n", SuccessStyle.Render("✓"), cfgDir)
	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s/config.cue\n", cfgDir)
	return nil
}

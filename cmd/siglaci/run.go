// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/tohuynh/siglaci/internal/config"
	"github.com/tohuynh/siglaci/internal/event"
	"github.com/tohuynh/siglaci/internal/report"
	"github.com/tohuynh/siglaci/internal/runner"
	"github.com/tohuynh/siglaci/internal/runtime"
	"github.com/tohuynh/siglaci/pkg/workflowfile"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	runWorkflowPath string
	runEventPath    string
	runSecrets      []string
	runKeepWS       bool
	runNoStatus     bool
	runRuntime      string
	runWorkdir      string

	// runCmd executes the workflow for a pull-request event.
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the workflow for a pull-request event",
		Long: `Run the workflow for a pull-request event.

The event is a GitHub pull_request webhook payload read from a JSON file.
If the workflow's trigger does not match the event, the run is skipped and
siglaci exits 0. Otherwise steps execute strictly in order; the first
failure aborts the run and siglaci exits with the failing step's exit code.`,
		RunE: runRun,
	}
)

func init() {
	runCmd.Flags().StringVarP(&runWorkflowPath, "workflow", "w", workflowfile.DefaultFileName, "workflow file to run")
	runCmd.Flags().StringVarP(&runEventPath, "event", "e", "", "pull_request event payload (JSON file)")
	runCmd.Flags().StringArrayVarP(&runSecrets, "secret", "s", nil, "secret value as NAME=VALUE (repeatable)")
	runCmd.Flags().BoolVar(&runKeepWS, "keep-workspace", false, "keep the run workspace for debugging")
	runCmd.Flags().BoolVar(&runNoStatus, "no-status", false, "do not report a commit status")
	runCmd.Flags().StringVar(&runRuntime, "runtime", "", "force a runtime for every step (native, virtual)")
	runCmd.Flags().StringVar(&runWorkdir, "workdir", "", "change to this directory before running")
	_ = runCmd.MarkFlagRequired("event")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runWorkdir != "" {
		if err := os.Chdir(runWorkdir); err != nil {
			return fmt.Errorf("failed to change directory: %w", err)
		}
	}

	wf, err := workflowfile.Load(runWorkflowPath)
	if err != nil {
		return err
	}

	pr, err := event.LoadPullRequest(runEventPath)
	if err != nil {
		return err
	}

	localSecrets, err := parseSecretFlags(runSecrets)
	if err != nil {
		return err
	}

	override, err := parseRuntimeFlag(runRuntime)
	if err != nil {
		return err
	}

	cfg := config.Get()

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "siglaci",
		Level:  level,
	})

	r := runner.New(cfg, runner.Options{
		LocalSecrets:    localSecrets,
		Reporter:        buildReporter(cfg, wf.Name, logger),
		KeepWorkspace:   runKeepWS,
		RuntimeOverride: override,
		Logger:          logger,
	})

	result, err := r.Run(cmd.Context(), wf, pr)
	if err != nil {
		return err
	}

	switch {
	case result.Skipped:
		fmt.Printf("%s Trigger did not match %s; nothing to do\n",
			SubtitleStyle.Render("—"), StepStyle.Render(pr.Ref()))
		return nil
	case result.Success:
		fmt.Printf("%s Workflow %s passed (%d steps)\n",
			SuccessStyle.Render("✓"), StepStyle.Render(wf.Name), len(result.Steps))
		return nil
	default:
		failed := result.Steps[len(result.Steps)-1]
		fmt.Fprintf(os.Stderr, "%s Step %s failed (exit %d)\n",
			ErrorStyle.Render("✗"), StepStyle.Render(failed.Name), failed.ExitCode)
		if failed.Err != nil {
			fmt.Fprintln(os.Stderr, formatErrorForDisplay(failed.Err, verbose))
		}
		return &ExitError{Code: result.ExitCode}
	}
}

// buildReporter constructs the commit-status reporter when reporting is
// enabled and a token is available; otherwise statuses are discarded.
func buildReporter(cfg *config.Config, workflowName string, logger *log.Logger) report.Reporter {
	if runNoStatus || !cfg.GitHub.ReportStatus {
		return report.NopReporter{}
	}

	token := cfg.GitHub.Token(os.LookupEnv)
	if token == "" {
		logger.Warn("status reporting enabled but no token found; statuses disabled",
			"env", cfg.GitHub.TokenEnv)
		return report.NopReporter{}
	}

	reporter, err := report.NewGitHubReporter(token, cfg.GitHub.APIURL, workflowName)
	if err != nil {
		logger.Warn("failed to build status reporter; statuses disabled", "err", err)
		return report.NopReporter{}
	}
	return reporter
}

// parseSecretFlags splits repeated NAME=VALUE flags into a map.
func parseSecretFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}

	secrets := make(map[string]string, len(flags))
	for _, flag := range flags {
		name, value, ok := strings.Cut(flag, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --secret %q: expected NAME=VALUE", flag)
		}
		secrets[name] = value
	}
	return secrets, nil
}

func parseRuntimeFlag(value string) (runtime.Mode, error) {
	if value == "" {
		return "", nil
	}
	mode := runtime.Mode(value)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid --runtime %q: must be 'native' or 'virtual'", value)
	}
	return mode, nil
}

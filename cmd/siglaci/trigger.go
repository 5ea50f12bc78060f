// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/tohuynh/siglaci/internal/event"
	"github.com/tohuynh/siglaci/internal/runner"
	"github.com/tohuynh/siglaci/pkg/workflowfile"

	"github.com/spf13/cobra"
)

// ExitTriggerNoMatch is the exit code when the workflow would not fire.
// Distinct from 1 so callers can tell "no match" from "error".
const ExitTriggerNoMatch = 3

var (
	triggerWorkflowPath string
	triggerEventPath    string

	// triggerCmd evaluates the workflow trigger without running anything.
	triggerCmd = &cobra.Command{
		Use:   "trigger",
		Short: "Check whether the workflow would fire for an event",
		Long: `Check whether the workflow would fire for a pull-request event.

Exits 0 when the trigger matches and ` + fmt.Sprint(ExitTriggerNoMatch) + ` when it does not,
so the command composes with shell conditionals and other tooling.`,
		RunE: runTrigger,
	}
)

func init() {
	triggerCmd.Flags().StringVarP(&triggerWorkflowPath, "workflow", "w", workflowfile.DefaultFileName, "workflow file to evaluate")
	triggerCmd.Flags().StringVarP(&triggerEventPath, "event", "e", "", "pull_request event payload (JSON file)")
	_ = triggerCmd.MarkFlagRequired("event")
}

func runTrigger(cmd *cobra.Command, args []string) error {
	wf, err := workflowfile.Load(triggerWorkflowPath)
	if err != nil {
		return err
	}

	pr, err := event.LoadPullRequest(triggerEventPath)
	if err != nil {
		return err
	}

	if runner.ShouldRun(wf, pr) {
		fmt.Printf("%s Workflow %s fires for %s (base %s)\n",
			SuccessStyle.Render("✓"), StepStyle.Render(wf.Name),
			StepStyle.Render(pr.Ref()), StepStyle.Render(pr.BaseBranch))
		return nil
	}

	fmt.Printf("%s Workflow %s does not fire for %s (base %s)\n",
		SubtitleStyle.Render("—"), StepStyle.Render(wf.Name),
		StepStyle.Render(pr.Ref()), StepStyle.Render(pr.BaseBranch))
	return &ExitError{Code: ExitTriggerNoMatch}
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/tohuynh/siglaci/pkg/workflowfile"

	"github.com/spf13/cobra"
)

var (
	validateWorkflowPath string

	// validateCmd parses and validates the workflow file.
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate the workflow file",
		Long: `Validate the workflow file.

Parses the YAML, checks structural constraints (trigger present, every step
has exactly one of 'run'/'uses', builtins are known), and prints a summary
of what would run.`,
		RunE: runValidate,
	}
)

func init() {
	validateCmd.Flags().StringVarP(&validateWorkflowPath, "workflow", "w", workflowfile.DefaultFileName, "workflow file to validate")
}

func runValidate(cmd *cobra.Command, args []string) error {
	wf, err := workflowfile.Load(validateWorkflowPath)
	if err != nil {
		return err
	}

	fmt.Printf("%s Workflow %s is valid\n", SuccessStyle.Render("✓"), StepStyle.Render(wf.Name))
	fmt.Println()

	if len(wf.On.PullRequest.Branches) > 0 {
		fmt.Printf("%s pull_request on %s\n",
			SubtitleStyle.Render("Trigger:"),
			StepStyle.Render(strings.Join(wf.On.PullRequest.Branches, ", ")))
	} else {
		fmt.Printf("%s pull_request on any branch\n", SubtitleStyle.Render("Trigger:"))
	}

	fmt.Printf("%s\n", SubtitleStyle.Render("Steps:"))
	for i := range wf.Steps {
		step := &wf.Steps[i]
		kind := "run"
		if !step.IsRun() {
			kind = "uses " + step.Uses
		}
		fmt.Printf("  %2d. %s %s\n", i+1, StepStyle.Render(step.DisplayName(i)), SubtitleStyle.Render("("+kind+")"))
	}

	return nil
}

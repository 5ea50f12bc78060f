// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tohuynh/siglaci/pkg/workflowfile"

	"github.com/spf13/cobra"
)

var (
	initForce bool

	// initCmd creates a starter workflow file.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a starter workflow file",
		Long: `Create a starter workflow file at ` + workflowfile.DefaultFileName + `.

The generated workflow checks out the triggering revision, installs
dependencies, decrypts a credential bundle, and runs a pipeline command.
Adjust the steps and secret names for your project.`,
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing workflow file")
}

const starterWorkflow = `name: ci
on:
  pull_request:
    branches: [master]

defaults:
  runtime: native

steps:
  - name: Checkout
    uses: checkout

  - name: Install dependencies
    run: |
      echo 'Installing...'
      # e.g. pip install -r requirements.txt

  - name: Decrypt credentials
    uses: decrypt-secret
    with:
      source: secrets/credentials.json.enc
      passphrase-secret: CREDENTIALS_PASSPHRASE

  - name: Run pipeline
    run: |
      echo 'Running...'
      # e.g. run_sigla_pipeline -gacp "$SIGLACI_SECRETS_DIR/credentials.json"
    secrets: [STAGING_DB_CONNECTION_URL]
`

func runInit(cmd *cobra.Command, args []string) error {
	filename := workflowfile.DefaultFileName
	if len(args) > 0 {
		filename = args[0]
	}

	if _, err := os.Stat(filename); err == nil && !initForce {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The starter must stay loadable; catch drift before writing it out.
	if _, err := workflowfile.Parse([]byte(starterWorkflow), filename); err != nil {
		return fmt.Errorf("starter workflow is invalid: %w", err)
	}

	if err := os.WriteFile(filename, []byte(starterWorkflow), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), absPath)
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	fmt.Println("  1. Edit the workflow's trigger branches and steps")
	fmt.Println("  2. Check it with 'siglaci validate'")
	fmt.Println("  3. Run it with 'siglaci run --event event.json'")

	return nil
}

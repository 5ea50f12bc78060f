// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/tohuynh/siglaci/internal/issue"
	"github.com/tohuynh/siglaci/internal/secrets"

	"github.com/spf13/cobra"
)

// PassphraseEnv is the default environment variable consulted for the
// bundle passphrase.
const PassphraseEnv = "SIGLACI_PASSPHRASE"

var (
	secretsOut           string
	secretsPassphraseEnv string
)

// newSecretsCommand creates the `siglaci secrets` command tree.
func newSecretsCommand() *cobra.Command {
	secretsCmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage encrypted credential bundles",
		Long: `Manage encrypted credential bundles.

Bundles are encrypted with a passphrase (AES-256-GCM, scrypt key derivation)
and can be committed alongside the repository. The workflow's 'decrypt-secret'
builtin decrypts them at run time using a passphrase from the secret store.

The passphrase is read from $` + PassphraseEnv + ` by default; use
--passphrase-env to name a different variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	secretsCmd.PersistentFlags().StringVarP(&secretsOut, "out", "o", "", "output file")
	secretsCmd.PersistentFlags().StringVar(&secretsPassphraseEnv, "passphrase-env", PassphraseEnv, "environment variable holding the passphrase")

	secretsCmd.AddCommand(&cobra.Command{
		Use:   "encrypt <file>",
		Short: "Encrypt a file into a credential bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSecretsEncrypt(args[0])
		},
	})

	secretsCmd.AddCommand(&cobra.Command{
		Use:   "decrypt <file>",
		Short: "Decrypt a credential bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSecretsDecrypt(args[0])
		},
	})

	return secretsCmd
}

func runSecretsEncrypt(path string) error {
	passphrase, err := readPassphrase()
	if err != nil {
		return err
	}

	plaintext, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	bundle, err := secrets.EncryptBundle(plaintext, passphrase)
	if err != nil {
		return err
	}

	out := secretsOut
	if out == "" {
		out = path + ".enc"
	}
	if err := os.WriteFile(out, bundle, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	fmt.Printf("%s Encrypted %s to %s\n", SuccessStyle.Render("✓"), StepStyle.Render(path), StepStyle.Render(out))
	return nil
}

func runSecretsDecrypt(path string) error {
	passphrase, err := readPassphrase()
	if err != nil {
		return err
	}

	out := secretsOut
	if out == "" {
		out = strings.TrimSuffix(path, ".enc")
		if out == path {
			return fmt.Errorf("cannot derive output name from %s; pass --out", path)
		}
	}

	if err := secrets.DecryptBundleFile(path, out, passphrase); err != nil {
		return err
	}

	fmt.Printf("%s Decrypted %s to %s\n", SuccessStyle.Render("✓"), StepStyle.Render(path), StepStyle.Render(out))
	return nil
}

// readPassphrase fetches the passphrase from the configured environment
// variable. It is never accepted as a flag value, which would leak it into
// shell history and process listings.
func readPassphrase() (string, error) {
	passphrase := os.Getenv(secretsPassphraseEnv)
	if passphrase == "" {
		return "", issue.NewErrorContext().
			WithOperation("read bundle passphrase").
			WithSuggestion(fmt.Sprintf("Export the passphrase: export %s=...", secretsPassphraseEnv)).
			WithSuggestion("Or name a different variable with --passphrase-env").
			BuildError()
	}
	return passphrase, nil
}

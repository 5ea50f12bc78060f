// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for siglaci.
//
// This package implements the Cobra command hierarchy for the siglaci CLI:
// the root command, workflow execution and validation, trigger evaluation,
// credential bundle management, and configuration utilities.
package cmd

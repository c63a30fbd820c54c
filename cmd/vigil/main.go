// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command vigil runs behavioural verification specifications.
//
// A specification declares inputs, variations, and checks; vigil builds the
// backend, runs every variation pass against it, evaluates the checks, and
// writes a report document next to the specification (and optionally into a
// local archive).
//
// Usage:
//
//	vigil run my-spec.yml
//	vigil run my-spec.yml --system noop --watch
//	vigil components
//	vigil reports list --archive .vigil
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/vigil/pkg/logging"

	// Builtin catalogues register themselves on import.
	_ "github.com/AleutianAI/vigil/services/harness/checks"
	_ "github.com/AleutianAI/vigil/services/harness/systems"
	_ "github.com/AleutianAI/vigil/services/harness/variations"
)

var (
	verbose bool
	logDir  string
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Behavioural verification framework",
	Long: "Vigil runs behavioural verification specifications: controlled\n" +
		"variations of inputs, function configuration, and environment\n" +
		"conditions, with checks graded against a reference run.",
	SilenceUsage: true,
}

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"also write JSON logs into this directory (supports ~)")
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = logging.New(logging.Config{
			Level:   level,
			LogDir:  logDir,
			Service: "vigil",
		})
		slog.SetDefault(logger.Logger)
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(componentsCmd)
	rootCmd.AddCommand(reportsCmd)
}

func fatal(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	slog.Error(err.Error())
	return err
}

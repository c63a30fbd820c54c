// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/vigil/services/harness/report"
	"github.com/AleutianAI/vigil/services/harness/storage/archive"
)

var (
	reportsArchivePath string
	reportsLimit       int
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect archived run reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reports, newest first",
	RunE: func(*cobra.Command, []string) error {
		store, err := archive.Open(reportsArchivePath)
		if err != nil {
			return fatal("open archive: %v", err)
		}
		defer func() { _ = store.Close() }()

		entries, err := store.List(reportsLimit)
		if err != nil {
			return fatal("list reports: %v", err)
		}
		if len(entries) == 0 {
			fmt.Println("no reports archived")
			return nil
		}

		for _, entry := range entries {
			fmt.Printf("%s  %-5s  %s  %s\n",
				entry.Started.Local().Format(time.DateTime),
				entry.Severity,
				entry.RunID,
				entry.Title)
		}
		return nil
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one archived report as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, err := archive.Open(reportsArchivePath)
		if err != nil {
			return fatal("open archive: %v", err)
		}
		defer func() { _ = store.Close() }()

		doc, err := store.Get(args[0])
		if err != nil {
			return fatal("load report: %v", err)
		}

		raw, err := report.Marshal(doc)
		if err != nil {
			return fatal("render report: %v", err)
		}
		fmt.Print(string(raw))
		return nil
	},
}

func init() {
	reportsCmd.PersistentFlags().StringVar(&reportsArchivePath, "archive", ".vigil",
		"archive directory")
	reportsListCmd.Flags().IntVar(&reportsLimit, "limit", 20,
		"maximum number of reports to list (0 = all)")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
}

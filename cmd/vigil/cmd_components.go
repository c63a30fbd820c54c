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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/vigil/services/harness/spec"
)

var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "List registered variations, checks, and systems",
	Run: func(*cobra.Command, []string) {
		fmt.Println("Variations:")
		for _, name := range spec.DefaultRegistry.Variations() {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println("Checks:")
		for _, name := range spec.DefaultRegistry.Checks() {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println("Systems:")
		for _, name := range spec.DefaultRegistry.Systems() {
			fmt.Printf("  %s\n", name)
		}
	},
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// timestampLayout keeps report filenames sortable and filesystem-safe.
const timestampLayout = "20060102-150405"

// Filename derives the report filename for a document: the stem plus the
// run's start timestamp, e.g. "typo-robustness-20260829-151233.report.yml".
func Filename(doc *Document, stem string) string {
	return fmt.Sprintf("%s-%s.report.yml", stem, doc.Meta.Started.Format(timestampLayout))
}

// Write serialises the document as YAML into dir and returns the written
// path. The directory is created if missing.
func Write(doc *Document, dir, stem string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	raw, err := Marshal(doc)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, Filename(doc, stem))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Marshal serialises a document as YAML.
func Marshal(doc *Document) ([]byte, error) {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return raw, nil
}

// Unmarshal parses a previously written report document.
func Unmarshal(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &doc, nil
}

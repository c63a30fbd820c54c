// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package archive persists run reports in an embedded Badger store, so past
// verdicts survive across invocations and can be listed or re-read without
// scanning report files on disk.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/vigil/services/harness/report"
)

// ErrNotFound is returned when no report exists for a run id.
var ErrNotFound = errors.New("report not found")

const (
	// runPrefix keys full documents by run id.
	runPrefix = "run/"
	// indexPrefix keys listing entries by start timestamp, so a reverse
	// scan yields newest-first ordering.
	indexPrefix = "idx/"
)

// Entry is the listing summary stored in the time index.
type Entry struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Title    string    `json:"title"`
	Severity string    `json:"severity"`
}

// Archive is an embedded report store.
//
// Thread Safety: Safe for concurrent use; Badger transactions provide
// isolation.
type Archive struct {
	db *badger.DB
}

// Open opens (or creates) an archive at path.
func Open(path string) (*Archive, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// OpenInMemory opens a throwaway archive backed by memory only.
func OpenInMemory() (*Archive, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying store.
func (a *Archive) Close() error { return a.db.Close() }

// Put stores a finished document under its run id and indexes it by start
// time. Storing the same run id twice overwrites the document.
func (a *Archive) Put(doc *report.Document) error {
	if doc.Meta.RunID == "" {
		return errors.New("document has no run id")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	entry, err := json.Marshal(Entry{
		RunID:    doc.Meta.RunID,
		Started:  doc.Meta.Started,
		Title:    doc.Meta.Title,
		Severity: doc.Severity,
	})
	if err != nil {
		return fmt.Errorf("marshal index entry: %w", err)
	}

	return a.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(runKey(doc.Meta.RunID), raw); err != nil {
			return err
		}
		return txn.Set(indexKey(doc.Meta.Started, doc.Meta.RunID), entry)
	})
}

// Get loads the full document for a run id.
func (a *Archive) Get(runID string) (*report.Document, error) {
	var doc report.Document
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(runID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns up to limit entries, newest first. limit <= 0 means no
// limit.
func (a *Archive) List(limit int) ([]Entry, error) {
	var entries []Entry
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(indexPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek point past every index key.
		seek := append([]byte(indexPrefix), 0xff)
		for it.Seek(seek); it.Valid(); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes a stored report and its index entry.
func (a *Archive) Delete(runID string) error {
	doc, err := a.Get(runID)
	if err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(runKey(runID)); err != nil {
			return err
		}
		return txn.Delete(indexKey(doc.Meta.Started, runID))
	})
}

func runKey(runID string) []byte {
	return []byte(runPrefix + runID)
}

// indexLayout pads nanoseconds so timestamps order lexically.
const indexLayout = "2006-01-02T15:04:05.000000000"

func indexKey(started time.Time, runID string) []byte {
	return []byte(fmt.Sprintf("%s%s/%s", indexPrefix, started.UTC().Format(indexLayout), runID))
}

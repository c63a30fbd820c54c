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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/vigil/services/harness"
	"github.com/AleutianAI/vigil/services/harness/report"
	"github.com/AleutianAI/vigil/services/harness/spec"
	"github.com/AleutianAI/vigil/services/harness/storage/archive"
)

var (
	runSystem        string
	runEnvironment   string
	runFunction      string
	runOutDir        string
	runArchivePath   string
	runWatch         bool
	runMetricsListen string
)

var runCmd = &cobra.Command{
	Use:   "run <spec-file>",
	Short: "Run a verification specification",
	Long: "Run loads a specification file, executes its variation passes\n" +
		"against the configured backend system, evaluates its checks, and\n" +
		"writes a timestamped report document.",
	Args: cobra.ExactArgs(1),
	RunE: runVerification,
}

func init() {
	runCmd.Flags().StringVar(&runSystem, "system", "noop",
		"registered backend system type")
	runCmd.Flags().StringVar(&runEnvironment, "environment", "",
		"base environment configuration as a JSON object")
	runCmd.Flags().StringVar(&runFunction, "function", "",
		"base function configuration as a JSON object")
	runCmd.Flags().StringVar(&runOutDir, "out", "",
		"report output directory (default: the spec's directory)")
	runCmd.Flags().StringVar(&runArchivePath, "archive", "",
		"also store the report in the archive at this path")
	runCmd.Flags().BoolVar(&runWatch, "watch", false,
		"re-run whenever the spec file changes")
	runCmd.Flags().StringVar(&runMetricsListen, "metrics-listen", "",
		"serve Prometheus metrics on this address (e.g. :9120)")
}

func runVerification(cmd *cobra.Command, args []string) error {
	specPath, err := filepath.Abs(args[0])
	if err != nil {
		return fatal("resolve spec path: %v", err)
	}
	if _, err := os.Stat(specPath); err != nil {
		return fatal("spec file: %v", err)
	}

	environment, err := parseConfigFlag("environment", runEnvironment)
	if err != nil {
		return err
	}
	function, err := parseConfigFlag("function", runFunction)
	if err != nil {
		return err
	}

	outDir := runOutDir
	if outDir == "" {
		outDir = filepath.Dir(specPath)
	}

	var metrics *harness.Metrics
	if runMetricsListen != "" {
		registry := prometheus.NewRegistry()
		metrics = harness.NewMetrics(registry)
		go serveMetrics(runMetricsListen, registry)
	}

	var store *archive.Archive
	if runArchivePath != "" {
		store, err = archive.Open(runArchivePath)
		if err != nil {
			return fatal("open archive: %v", err)
		}
		defer func() { _ = store.Close() }()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := &runner{
		specPath:    specPath,
		system:      runSystem,
		environment: environment,
		function:    function,
		outDir:      outDir,
		metrics:     metrics,
		store:       store,
	}

	if err := r.runOnce(ctx); err != nil && !runWatch {
		return err
	}
	if !runWatch {
		return nil
	}
	return r.watch(ctx)
}

// runner holds everything one verification run needs, so watch mode can
// re-run without re-parsing flags.
type runner struct {
	specPath    string
	system      string
	environment harness.Config
	function    harness.Config
	outDir      string
	metrics     *harness.Metrics
	store       *archive.Archive
}

func (r *runner) runOnce(ctx context.Context) error {
	system, err := spec.DefaultRegistry.BuildSystem(r.system, spec.NewParams(nil, spec.EnvironProvider))
	if err != nil {
		return fatal("build system: %v", err)
	}

	backend, err := harness.NewBackend(ctx, system, r.environment, r.function)
	if err != nil {
		return fatal("initialise backend: %v", err)
	}

	loaded, err := spec.Load(r.specPath, &spec.LoadOptions{
		DefaultTitle: deriveTitle(r.specPath, backend.Name()),
	})
	if err != nil {
		return fatal("load spec: %v", err)
	}

	engine, err := harness.NewEngine(backend, &harness.EngineOptions{
		Logger:  slog.Default(),
		Metrics: r.metrics,
	})
	if err != nil {
		return fatal("initialise engine: %v", err)
	}

	builder := report.NewBuilder(report.Meta{
		Spec:       filepath.Base(r.specPath),
		Title:      loaded.Title,
		Hypothesis: loaded.Hypothesis,
	}, backend.Snapshot(), loaded.Inputs)

	slog.Info("starting run",
		"spec", filepath.Base(r.specPath),
		"system", backend.Name(),
		"inputs", len(loaded.Inputs),
		"variations", len(loaded.Variations),
		"checks", len(loaded.Checks))

	reporter := report.Multi{builder, report.NewProgress(slog.Default())}
	if err := engine.Run(ctx, reporter, loaded.Inputs, loaded.Variations, loaded.Checks); err != nil {
		return fatal("run failed: %v", err)
	}

	doc := builder.Document()
	stem := strings.TrimSuffix(filepath.Base(r.specPath), filepath.Ext(r.specPath))
	path, err := report.Write(doc, r.outDir, stem)
	if err != nil {
		return fatal("write report: %v", err)
	}

	if r.store != nil {
		if err := r.store.Put(doc); err != nil {
			return fatal("archive report: %v", err)
		}
	}

	slog.Info("run finished",
		"severity", doc.Severity,
		"report", path,
		"run_id", doc.Meta.RunID)
	return nil
}

// watch re-runs the specification whenever its file changes, until the
// context is cancelled. Editors replace files rather than writing in place,
// so the parent directory is watched and events are filtered by name.
func (r *runner) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fatal("start watcher: %v", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(r.specPath)); err != nil {
		return fatal("watch %s: %v", filepath.Dir(r.specPath), err)
	}
	slog.Info("watching for changes", "spec", r.specPath)

	// Debounce rapid successive events from editor save sequences.
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != r.specPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(250 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)

		case <-pending:
			pending = nil
			slog.Info("spec changed, re-running", "spec", filepath.Base(r.specPath))
			if err := r.runOnce(ctx); err != nil {
				slog.Error("re-run failed", "error", err)
			}
		}
	}
}

// deriveTitle builds the default report title from the spec filename and
// backend name, e.g. "Behavioural verification of noop with respect to typo
// robustness".
func deriveTitle(specPath, backendName string) string {
	stem := strings.TrimSuffix(filepath.Base(specPath), filepath.Ext(specPath))
	stem = strings.ReplaceAll(stem, "_", " ")
	stem = strings.ReplaceAll(stem, "-", " ")
	stem = strings.ToLower(strings.TrimSpace(stem))
	if stem == "" {
		stem = "the spec"
	}
	return fmt.Sprintf("Behavioural verification of %s with respect to %s", backendName, stem)
}

func parseConfigFlag(name, raw string) (harness.Config, error) {
	if raw == "" {
		return nil, nil
	}
	var cfg harness.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fatal("--%s must be a JSON object: %v", name, err)
	}
	return cfg, nil
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	slog.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}

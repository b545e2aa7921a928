package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rohankatakam/reqtrack/internal/farm"
	"github.com/rohankatakam/reqtrack/internal/node"
	"github.com/rohankatakam/reqtrack/internal/tracker"
	"github.com/spf13/cobra"
)

// newRunID returns a sortable, time-prefixed id so successive `reqtrack
// run` invocations can be ordered by when they happened, without a
// central sequence source.
func newRunID() string {
	entropy := ulid.Monotonic(rand.Reader, math.MaxUint32)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a small built-in demo request graph",
	Long: `Builds a two-level demo graph (a report request that fans out
into one read_file request per input file) and runs it against the
configured storage backend, demonstrating memoization across runs.`,
	RunE: runRun,
}

// demoReadFile reads path, declares a file-update dependency on it,
// and returns its byte length.
func demoReadFile(ctx context.Context, input any, api tracker.RunAPI, f *farm.Farm, opts tracker.Options) (any, error) {
	path := input.(string)
	api.InvalidateOnFileUpdate(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	api.StoreResult(len(data))
	return len(data), nil
}

// demoReport fans out a read_file subrequest per path in paths and
// sums their lengths.
func demoReport(paths []string) tracker.RunFunc {
	return func(ctx context.Context, input any, api tracker.RunAPI, f *farm.Farm, opts tracker.Options) (any, error) {
		total := 0
		for _, p := range paths {
			id, err := node.ComputeRequestID("read_file", p)
			if err != nil {
				return nil, err
			}
			result, err := api.RunRequest(ctx, tracker.Request{
				ID:    id,
				Type:  "read_file",
				Input: p,
				Run:   demoReadFile,
			})
			if err != nil {
				return nil, err
			}
			total += result.(int)
		}
		api.StoreResult(total)
		return total, nil
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	runID := newRunID()
	fmt.Printf("run %s\n", runID)

	dir, err := os.MkdirTemp("", "reqtrack-demo")
	if err != nil {
		return fmt.Errorf("create demo directory: %w", err)
	}
	defer os.RemoveAll(dir)

	paths := make([]string, 2)
	for i, body := range []string{"hello reqtrack\n", "a second demo file\n"} {
		p := filepath.Join(dir, fmt.Sprintf("file%d.txt", i))
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write demo file: %w", err)
		}
		paths[i] = p
	}

	t, s, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	// The session marker has no hashable input worth deriving an id
	// from: it exists once per invocation of this command, not once
	// per logical input, so it gets an opaque id instead.
	sessionID := node.NewOpaqueRequestID("demo_session")
	sessionReq := tracker.Request{
		ID:   sessionID,
		Type: "demo_session",
		Run: func(ctx context.Context, input any, api tracker.RunAPI, f *farm.Farm, opts tracker.Options) (any, error) {
			api.InvalidateOnStartup()
			api.StoreResult(runID)
			return runID, nil
		},
	}
	if _, err := t.RunRequest(ctx, sessionReq); err != nil {
		return fmt.Errorf("run session marker: %w", err)
	}

	reportID, err := node.ComputeRequestID("word_count_report", paths)
	if err != nil {
		return err
	}
	req := tracker.Request{ID: reportID, Type: "word_count_report", Input: paths, Run: demoReport(paths)}

	firstHadResult := t.HasValidResult(reportID)
	result, err := t.RunRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("run demo graph: %w", err)
	}

	if firstHadResult {
		fmt.Printf("word_count_report %s: memoized result %v (no requests re-ran)\n", reportID, result)
	} else {
		fmt.Printf("word_count_report %s: computed result %v\n", reportID, result)
	}

	secondResult, err := t.RunRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("re-run demo graph: %w", err)
	}
	fmt.Printf("word_count_report %s: second run returned %v from memoized state\n", reportID, secondResult)

	if err := persist(ctx, t, s); err != nil {
		return err
	}
	fmt.Printf("graph persisted to %s backend\n", cfg.Storage.Type)
	return nil
}

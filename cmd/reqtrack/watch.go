package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohankatakam/reqtrack/internal/fsevents"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and report invalidations as filesystem events arrive",
	Long: `Starts the fsnotify adapter over dir, feeds every debounced batch
into the request graph's invalidation responder, and after any batch
that invalidates something prints every currently invalid request.
Persists the graph every 5 seconds and on exit.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dir := args[0]

	t, s, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	batches, closeWatch, err := fsevents.Watch(dir, fsevents.WatchOptions{
		DebounceWindow:     cfg.Watch.DebounceInterval,
		RateLimitPerSecond: cfg.Watch.RateLimitPerSec,
		RateLimitBurst:     cfg.Watch.RateLimitBurst,
	})
	if err != nil {
		return fmt.Errorf("start watch on %s: %w", dir, err)
	}
	defer closeWatch()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("watching %s (ctrl-c to stop)\n", dir)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case batch, ok := <-batches:
			if !ok {
				return persist(ctx, t, s)
			}
			if t.RespondToFSEvents(batch) {
				for _, id := range t.GetInvalidRequests() {
					fmt.Printf("invalidated: %s\n", id)
				}
			}
		case <-ticker.C:
			if err := persist(ctx, t, s); err != nil {
				fmt.Fprintf(os.Stderr, "periodic persist failed: %v\n", err)
			}
		case <-sigCh:
			fmt.Println("\nstopping, persisting graph...")
			return persist(ctx, t, s)
		}
	}
}

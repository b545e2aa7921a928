package main

import (
	"context"
	"fmt"

	"github.com/rohankatakam/reqtrack/internal/farm"
	"github.com/rohankatakam/reqtrack/internal/graphmirror"
	"github.com/rohankatakam/reqtrack/internal/reqgraph"
	"github.com/rohankatakam/reqtrack/internal/serialize"
	"github.com/rohankatakam/reqtrack/internal/store"
	"github.com/rohankatakam/reqtrack/internal/tracker"
)

// openTracker builds a Store from cfg.Storage, loads (or creates) the
// request graph it holds, invalidates the requests recorded as
// unpredictable, and wires a Tracker over it. A stored blob that cannot
// be decoded is logged and replaced by an empty graph. Callers are
// responsible for calling persist to save any mutations back out.
func openTracker(ctx context.Context) (*tracker.Tracker, store.Store, error) {
	s, err := store.New(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage backend: %w", err)
	}

	blob, err := s.Load(ctx)
	if err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("load graph: %w", err)
	}

	var rg *reqgraph.RequestGraph
	if blob == nil {
		rg = reqgraph.New()
	} else {
		rg, err = serialize.Decode(blob)
		if err != nil {
			logger.WithError(err).Warn("stored graph could not be decoded, starting from an empty graph")
			rg = reqgraph.New()
		}
	}
	rg.SetLogger(logger.Logger)
	rg.InvalidateUnpredictableNodes()

	f := farm.New(4)
	t := tracker.New(rg, f, tracker.Options{
		Env:    map[string]string{},
		Values: map[string]any{},
	})
	t.SetLogger(logger.Logger)

	return t, s, nil
}

// persist serializes t's graph and saves it through s. If graph
// mirroring is enabled, it also best-effort exports the graph to
// Neo4j afterward; a mirror failure is logged but never turns persist
// itself into an error, matching graphmirror's write-only contract.
func persist(ctx context.Context, t *tracker.Tracker, s store.Store) error {
	blob, err := serialize.Encode(t.Graph())
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if err := s.Save(ctx, blob); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	if cfg.GraphMirror.Enabled {
		mirrorGraph(ctx, t)
	}
	return nil
}

func mirrorGraph(ctx context.Context, t *tracker.Tracker) {
	c, err := graphmirror.NewClient(ctx, cfg.GraphMirror.URI, cfg.GraphMirror.Username, cfg.GraphMirror.Password, "")
	if err != nil {
		logger.WithError(err).Warn("graph mirror: connect failed, skipping export")
		return
	}
	defer c.Close(ctx)

	if err := graphmirror.MirrorGraph(ctx, c, t.Graph()); err != nil {
		logger.WithError(err).Warn("graph mirror: export failed")
	}
}

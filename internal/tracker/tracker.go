// Package tracker implements the RequestTracker runner: the state
// machine that drives a Request's body through the absent →
// incomplete → valid/invalid lifecycle of spec.md §4.4 and §4.5 on top
// of a reqgraph.RequestGraph.
package tracker

import (
	"context"
	"sync"

	"github.com/rohankatakam/reqtrack/internal/errors"
	"github.com/rohankatakam/reqtrack/internal/farm"
	"github.com/rohankatakam/reqtrack/internal/fsevents"
	"github.com/rohankatakam/reqtrack/internal/node"
	"github.com/rohankatakam/reqtrack/internal/reqgraph"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Options are the read-only values a request body and its RunAPI
// consult: environment variables and arbitrary named option values.
type Options struct {
	Env    map[string]string
	Values map[string]any
}

// RunFunc is the body of a Request: it receives its own input, its
// scoped RunAPI, the shared worker farm, and the shared options, and
// returns an opaque result or an error.
type RunFunc func(ctx context.Context, input any, api RunAPI, farm *farm.Farm, options Options) (any, error)

// Request is the caller-supplied unit of work, per spec.md §6's
// request contract.
type Request struct {
	ID    string
	Type  string
	Input any
	Run   RunFunc
}

// Signal is consulted after every request body returns, per spec.md
// §5's cancellation model.
type Signal interface {
	Aborted() bool
}

// Tracker is the runner. It owns the RequestGraph exclusively — every
// mutation happens on the caller's goroutine, serialized by mu, which
// matches the single-threaded-cooperative model in spec.md §5.
type Tracker struct {
	mu      sync.Mutex
	graph   *reqgraph.RequestGraph
	farm    *farm.Farm
	options Options
	signal  Signal
	logger  *logrus.Logger

	group singleflight.Group
}

// New returns a Tracker over an existing graph (e.g. one just
// deserialized), a shared worker farm, and the current options.
func New(graph *reqgraph.RequestGraph, f *farm.Farm, options Options) *Tracker {
	return &Tracker{graph: graph, farm: f, options: options, logger: logrus.StandardLogger()}
}

// SetLogger installs the logger used for request state transitions
// (Info) and request-body failures (Error). A tracker built via New
// logs to logrus's standard logger until this is called.
func (t *Tracker) SetLogger(logger *logrus.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = logger
}

// SetSignal installs the cancellation signal consulted after every
// request body returns.
func (t *Tracker) SetSignal(signal Signal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signal = signal
}

// Graph exposes the underlying request graph for callers that need to
// serialize it or mirror it elsewhere.
func (t *Tracker) Graph() *reqgraph.RequestGraph { return t.graph }

// HasValidResult reports whether req's node exists and is neither
// invalid nor incomplete, per invariant 1.
func (t *Tracker) HasValidResult(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.graph.HasNode(id) && !t.graph.IsInvalid(id) && !t.graph.IsIncomplete(id)
}

// GetRequestResult returns the opaque value stored by a prior
// successful run of id.
func (t *Tracker) GetRequestResult(id string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.graph.Graph().Node(id)
	if !ok {
		return nil, false
	}
	req, ok := n.(*node.Request)
	if !ok || !req.HasResult {
		return nil, false
	}
	return req.Result, true
}

func (t *Tracker) storeResult(id string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.graph.Graph().Node(id)
	if !ok {
		return
	}
	req := n.(*node.Request)
	req.Result = value
	req.HasResult = true
}

// RejectRequest removes id from incomplete_request_ids and re-adds it
// to invalid_request_ids.
func (t *Tracker) RejectRequest(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.graph.UnmarkIncomplete(id)
	if t.graph.HasNode(id) {
		t.graph.MarkInvalid(id)
	}
}

// CompleteRequest removes id from both invalid_request_ids and
// incomplete_request_ids.
func (t *Tracker) CompleteRequest(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.graph.UnmarkIncomplete(id)
	t.graph.UnmarkInvalid(id)
}

// RemoveRequest deletes id's node and purges it from every index.
func (t *Tracker) RemoveRequest(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.graph.RemoveRequest(id)
}

// RespondToFSEvents delegates to the request graph and reports whether
// anything changed.
func (t *Tracker) RespondToFSEvents(events []fsevents.Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.graph.RespondToFSEvents(events)
}

// GetInvalidRequests returns a snapshot of every currently invalid
// request id.
func (t *Tracker) GetInvalidRequests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.graph.InvalidRequestIDs()
}

// aborted reports whether the installed signal, if any, requests
// cancellation.
func (t *Tracker) aborted() bool {
	return t.signal != nil && t.signal.Aborted()
}

// RunRequest implements spec.md §4.4's run_request algorithm. Duplicate
// concurrent calls for the same id are coalesced via singleflight, so
// a request body never executes twice for one logical invocation.
func (t *Tracker) RunRequest(ctx context.Context, req Request) (any, error) {
	if t.HasValidResult(req.ID) {
		result, _ := t.GetRequestResult(req.ID)
		return result, nil
	}

	result, err, _ := t.group.Do(req.ID, func() (any, error) {
		return t.runRequestOnce(ctx, req)
	})
	return result, err
}

func (t *Tracker) runRequestOnce(ctx context.Context, req Request) (any, error) {
	// Re-check under singleflight: another caller may have completed
	// this id while we were waiting to be scheduled.
	if t.HasValidResult(req.ID) {
		result, _ := t.GetRequestResult(req.ID)
		return result, nil
	}

	t.startRequest(req)

	a := newAPI(t, req.ID)
	result, runErr := req.Run(ctx, req.Input, a, t.farm, t.options)

	// Subrequest edges are reconciled regardless of outcome, per §4.4
	// step 6 and §5's ordering guarantee.
	defer func() {
		t.mu.Lock()
		t.graph.Graph().ReplaceNodesConnectedTo(req.ID, a.subrequestIDs(), reqgraph.EdgeSubrequest)
		t.mu.Unlock()
	}()

	if runErr != nil {
		t.RejectRequest(req.ID)
		t.logger.WithFields(logrus.Fields{"request_id": req.ID, "type": req.Type, "error": runErr}).
			Error("request failed, marked invalid")
		return nil, errors.RequestFailed(req.ID, runErr)
	}

	if t.aborted() {
		t.RejectRequest(req.ID)
		t.logger.WithFields(logrus.Fields{"request_id": req.ID, "type": req.Type}).
			Info("request aborted, marked invalid")
		return nil, errors.Aborted(req.ID)
	}

	t.storeResult(req.ID, result)
	t.CompleteRequest(req.ID)
	t.logger.WithFields(logrus.Fields{"request_id": req.ID, "type": req.Type}).Info("request completed")
	return result, nil
}

// startRequest implements §4.4 step 1: insert the node if absent, else
// clear_invalidations so the run may re-declare its dependencies; mark
// incomplete and clear invalid.
func (t *Tracker) startRequest(req Request) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.graph.HasNode(req.ID) {
		t.graph.EnsureRequestNode(req.ID, req.Type, req.Input)
	} else {
		t.graph.ClearInvalidations(req.ID)
	}
	t.graph.MarkIncomplete(req.ID)
	t.graph.UnmarkInvalid(req.ID)
	t.logger.WithFields(logrus.Fields{"request_id": req.ID, "type": req.Type}).Info("request started")
}

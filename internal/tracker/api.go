package tracker

import (
	"context"
	"sync"

	"github.com/rohankatakam/reqtrack/internal/reqgraph"
)

// RunAPI is the synchronous mutator handle a request body receives,
// scoped to the request id that owns it, per spec.md §6. All methods
// are safe to call concurrently from within a single request body —
// run_request recorded here is the only method that needs its own
// synchronization, since a body may fan out parallel subrequests.
type RunAPI interface {
	InvalidateOnFileCreate(spec reqgraph.CreateInvalidation) error
	InvalidateOnFileUpdate(path string)
	InvalidateOnFileDelete(path string)
	InvalidateOnStartup()
	InvalidateOnEnvChange(name string)
	InvalidateOnOptionChange(name string)
	GetInvalidations() []reqgraph.Invalidation
	StoreResult(value any)
	RunRequest(ctx context.Context, sub Request) (any, error)
}

// api is RunAPI's concrete implementation. It is constructed fresh for
// every run_request invocation and captures the owning tracker, the
// active request id, and a set of subrequest ids accumulated during
// the run.
type api struct {
	t         *Tracker
	requestID string

	mu          sync.Mutex
	subrequests map[string]struct{}
}

func newAPI(t *Tracker, requestID string) *api {
	return &api{t: t, requestID: requestID, subrequests: make(map[string]struct{})}
}

func (a *api) InvalidateOnFileCreate(spec reqgraph.CreateInvalidation) error {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	return a.t.graph.InvalidateOnFileCreate(a.requestID, spec)
}

func (a *api) InvalidateOnFileUpdate(path string) {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	a.t.graph.InvalidateOnFileUpdate(a.requestID, path)
}

func (a *api) InvalidateOnFileDelete(path string) {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	a.t.graph.InvalidateOnFileDelete(a.requestID, path)
}

func (a *api) InvalidateOnStartup() {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	a.t.graph.InvalidateOnStartup(a.requestID)
}

func (a *api) InvalidateOnEnvChange(name string) {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	a.t.graph.InvalidateOnEnvChange(a.requestID, name, a.t.options.Env[name])
}

func (a *api) InvalidateOnOptionChange(name string) {
	// A failure here means the captured option value can't be hashed —
	// that is a programmer error in the request body's own option, not
	// a recoverable runtime condition, so it is folded into the node's
	// invalid_invalidation path by simply not installing the edge.
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	_ = a.t.graph.InvalidateOnOptionChange(a.requestID, name, a.t.options.Values[name])
}

func (a *api) GetInvalidations() []reqgraph.Invalidation {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	return a.t.graph.GetInvalidations(a.requestID)
}

func (a *api) StoreResult(value any) {
	a.t.storeResult(a.requestID, value)
}

// RunRequest records sub.ID in this run's subrequent set and
// recursively runs it through the owning tracker.
func (a *api) RunRequest(ctx context.Context, sub Request) (any, error) {
	a.mu.Lock()
	a.subrequests[sub.ID] = struct{}{}
	a.mu.Unlock()
	return a.t.RunRequest(ctx, sub)
}

func (a *api) subrequestIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.subrequests))
	for id := range a.subrequests {
		out = append(out, id)
	}
	return out
}

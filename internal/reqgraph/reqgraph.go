// Package reqgraph implements the request graph: the directed graph of
// §3's node and edge kinds, its six auxiliary index sets, and the
// invalidation algebra and filesystem-event responder defined over
// them. RequestGraph is not safe for concurrent use on its own — the
// tracker that owns it serializes every call behind a single mutex,
// matching the generic graph package's own contract.
package reqgraph

import (
	"github.com/rohankatakam/reqtrack/internal/graph"
	"github.com/rohankatakam/reqtrack/internal/node"
	"github.com/sirupsen/logrus"
)

// Edge kinds, per spec.md §3.
const (
	EdgeSubrequest               = "subrequest"
	EdgeInvalidatedByUpdate      = "invalidated_by_update"
	EdgeInvalidatedByDelete      = "invalidated_by_delete"
	EdgeInvalidatedByCreate      = "invalidated_by_create"
	EdgeInvalidatedByCreateAbove = "invalidated_by_create_above"
	EdgeDirname                  = "dirname"
)

// RequestGraph wraps a generic Graph of node.Node with the six
// auxiliary index sets the invalidation algebra needs for fast bulk
// re-checks, and knows how to interpret the edge kinds above.
type RequestGraph struct {
	g      *graph.Graph[node.Node]
	logger *logrus.Logger

	invalidRequestIDs       map[string]struct{}
	incompleteRequestIDs    map[string]struct{}
	globNodeIDs             map[string]struct{}
	envNodeIDs              map[string]struct{}
	optionNodeIDs           map[string]struct{}
	unpredictableRequestIDs map[string]struct{}
}

// New returns an empty request graph.
func New() *RequestGraph {
	return &RequestGraph{
		g:                       graph.New[node.Node](),
		logger:                  logrus.StandardLogger(),
		invalidRequestIDs:       make(map[string]struct{}),
		incompleteRequestIDs:    make(map[string]struct{}),
		globNodeIDs:             make(map[string]struct{}),
		envNodeIDs:              make(map[string]struct{}),
		optionNodeIDs:           make(map[string]struct{}),
		unpredictableRequestIDs: make(map[string]struct{}),
	}
}

// Graph exposes the underlying generic graph for callers (serialize,
// graphmirror) that need to walk every node and edge.
func (rg *RequestGraph) Graph() *graph.Graph[node.Node] { return rg.g }

// SetLogger installs the logger used for routine invalidation
// bookkeeping (Debug) and FS events referring to unknown paths (Warn).
// A graph built via New or Restore logs to logrus's standard logger
// until this is called.
func (rg *RequestGraph) SetLogger(logger *logrus.Logger) { rg.logger = logger }

// HasNode reports whether id is present in the graph.
func (rg *RequestGraph) HasNode(id string) bool { return rg.g.HasNode(id) }

// EnsureRequestNode inserts a Request node for id if absent, leaving an
// existing one (and its recorded result) untouched.
func (rg *RequestGraph) EnsureRequestNode(id, requestType string, input any) {
	if rg.g.HasNode(id) {
		return
	}
	rg.g.AddNode(node.NewRequest(id, requestType, input))
}

// RemoveRequest removes id from the graph and every index that might
// reference it, satisfying invariant 2 and 3.
func (rg *RequestGraph) RemoveRequest(id string) {
	rg.g.RemoveNode(id)
	delete(rg.invalidRequestIDs, id)
	delete(rg.incompleteRequestIDs, id)
	delete(rg.unpredictableRequestIDs, id)
}

// IsInvalid reports whether id is marked invalid.
func (rg *RequestGraph) IsInvalid(id string) bool {
	_, ok := rg.invalidRequestIDs[id]
	return ok
}

// IsIncomplete reports whether id is marked incomplete.
func (rg *RequestGraph) IsIncomplete(id string) bool {
	_, ok := rg.incompleteRequestIDs[id]
	return ok
}

// MarkInvalid adds id to invalid_request_ids.
func (rg *RequestGraph) MarkInvalid(id string) { rg.invalidRequestIDs[id] = struct{}{} }

// UnmarkInvalid removes id from invalid_request_ids.
func (rg *RequestGraph) UnmarkInvalid(id string) { delete(rg.invalidRequestIDs, id) }

// MarkIncomplete adds id to incomplete_request_ids.
func (rg *RequestGraph) MarkIncomplete(id string) { rg.incompleteRequestIDs[id] = struct{}{} }

// UnmarkIncomplete removes id from incomplete_request_ids.
func (rg *RequestGraph) UnmarkIncomplete(id string) { delete(rg.incompleteRequestIDs, id) }

// InvalidRequestIDs returns a snapshot of the invalid set.
func (rg *RequestGraph) InvalidRequestIDs() []string {
	return keys(rg.invalidRequestIDs)
}

// IncompleteRequestIDs returns a snapshot of the incomplete set.
func (rg *RequestGraph) IncompleteRequestIDs() []string {
	return keys(rg.incompleteRequestIDs)
}

// GlobNodeIDs returns a snapshot of the registered glob patterns.
func (rg *RequestGraph) GlobNodeIDs() []string {
	return keys(rg.globNodeIDs)
}

// EnvNodeIDs returns a snapshot of the registered Env node ids.
func (rg *RequestGraph) EnvNodeIDs() []string {
	return keys(rg.envNodeIDs)
}

// OptionNodeIDs returns a snapshot of the registered Option node ids.
func (rg *RequestGraph) OptionNodeIDs() []string {
	return keys(rg.optionNodeIDs)
}

// UnpredictableRequestIDs returns a snapshot of the unpredictable set.
func (rg *RequestGraph) UnpredictableRequestIDs() []string {
	return keys(rg.unpredictableRequestIDs)
}

// Restore rebuilds a RequestGraph from an already-populated generic
// graph and the six auxiliary id-sets, as serialize.Decode does after
// reconstructing every node and edge. Callers outside this package
// should treat this as deserialization plumbing, not a general
// constructor.
func Restore(g *graph.Graph[node.Node], invalid, incomplete, glob, env, option, unpredictable []string) *RequestGraph {
	rg := &RequestGraph{
		g:                       g,
		logger:                  logrus.StandardLogger(),
		invalidRequestIDs:       toSet(invalid),
		incompleteRequestIDs:    toSet(incomplete),
		globNodeIDs:             toSet(glob),
		envNodeIDs:              toSet(env),
		optionNodeIDs:           toSet(option),
		unpredictableRequestIDs: toSet(unpredictable),
	}
	return rg
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

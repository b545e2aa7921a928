package reqgraph

import (
	"testing"

	"github.com/rohankatakam/reqtrack/internal/fsevents"
	"github.com/rohankatakam/reqtrack/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hasValidResult mirrors spec.md invariant 1: a node exists, is not
// invalid, and is not incomplete.
func hasValidResult(rg *RequestGraph, id string) bool {
	return rg.HasNode(id) && !rg.IsInvalid(id) && !rg.IsIncomplete(id)
}

func TestS1LeafFileUpdate(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("R", "build", nil)
	rg.InvalidateOnFileUpdate("R", "/a/b.js")

	require.True(t, hasValidResult(rg, "R"))

	changed := rg.RespondToFSEvents([]fsevents.Event{{Path: "/a/b.js", Type: fsevents.Update}})
	assert.True(t, changed)
	assert.False(t, hasValidResult(rg, "R"))
}

func TestS2DeleteThenRecreateDoesNotInvalidateAfterClear(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("R", "build", nil)
	rg.InvalidateOnFileUpdate("R", "/x.js")

	deleted := rg.RespondToFSEvents([]fsevents.Event{{Path: "/x.js", Type: fsevents.Delete}})
	assert.False(t, deleted, "no invalidated_by_delete edge was ever declared")

	rg.InvalidateOnFileDelete("R", "/x.js")
	changed := rg.RespondToFSEvents([]fsevents.Event{{Path: "/x.js", Type: fsevents.Delete}})
	assert.True(t, changed)
	assert.True(t, rg.IsInvalid("R"))

	rg.ClearInvalidations("R")
	assert.Empty(t, rg.GetInvalidations("R"))

	recreated := rg.RespondToFSEvents([]fsevents.Event{{Path: "/x.js", Type: fsevents.Create}})
	assert.False(t, recreated, "invalidated_by_delete edge was cleared, so recreation is silent")
	assert.True(t, rg.IsInvalid("R"), "request remains invalid from the prior delete until rerun clears it")
}

func TestS3HigherPriorityExtensionAppears(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("R", "resolve", nil)
	err := rg.InvalidateOnFileCreate("R", ExtensionlessInvalidation{
		Path:       "/src/foo",
		Extensions: []string{".js", ".ts"},
	})
	require.NoError(t, err)

	changed := rg.RespondToFSEvents([]fsevents.Event{{Path: "/src/foo.js", Type: fsevents.Create}})
	assert.True(t, changed)
	assert.True(t, rg.IsInvalid("R"))
}

func TestS4FileAboveChain(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("R", "resolve", nil)
	err := rg.InvalidateOnFileCreate("R", FileAboveInvalidation{
		FileName:  "package.json",
		AbovePath: "/a/b/c/index.js",
	})
	require.NoError(t, err)

	changed := rg.RespondToFSEvents([]fsevents.Event{{Path: "/a/b/package.json", Type: fsevents.Create}})
	assert.True(t, changed)
	assert.True(t, rg.IsInvalid("R"))
}

func TestS5EnvChange(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("R", "build", nil)
	rg.InvalidateOnEnvChange("R", "NODE_ENV", "production")

	rg.InvalidateEnvNodes(map[string]string{"NODE_ENV": "development"})
	assert.True(t, rg.IsInvalid("R"))

	rg.UnmarkInvalid("R")
	rg.InvalidateEnvNodes(map[string]string{"NODE_ENV": "development"})
	assert.False(t, rg.IsInvalid("R"), "same env again invalidates nothing new")
}

func TestS6SubrequestFailureReconciliation(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("P", "build", nil)
	rg.EnsureRequestNode("C", "build", nil)
	rg.Graph().AddEdge("P", "C", EdgeSubrequest)

	rg.InvalidateNode("C")
	rg.Graph().ReplaceNodesConnectedTo("P", []string{"C"}, EdgeSubrequest)

	assert.True(t, rg.IsInvalid("C"))
	assert.True(t, rg.IsInvalid("P"))
	assert.Equal(t, []string{"C"}, rg.Graph().NodesFrom("P", EdgeSubrequest))
}

func TestInvariant1HasValidResultRequiresNodeNotInvalidNotIncomplete(t *testing.T) {
	rg := New()
	assert.False(t, hasValidResult(rg, "missing"))

	rg.EnsureRequestNode("R", "build", nil)
	assert.True(t, hasValidResult(rg, "R"))

	rg.MarkInvalid("R")
	assert.False(t, hasValidResult(rg, "R"))
	rg.UnmarkInvalid("R")

	rg.MarkIncomplete("R")
	assert.False(t, hasValidResult(rg, "R"))
}

func TestInvariant2ClearInvalidationsEmptiesGetInvalidations(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("R", "build", nil)
	rg.InvalidateOnFileUpdate("R", "/a.js")
	rg.InvalidateOnEnvChange("R", "NODE_ENV", "production")
	require.NotEmpty(t, rg.GetInvalidations("R"))

	rg.ClearInvalidations("R")
	assert.Empty(t, rg.GetInvalidations("R"))
}

func TestInvariant4RespondToFSEventsIsIdempotentBeyondFirstInvalidation(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("R", "build", nil)
	rg.InvalidateOnFileUpdate("R", "/a/b.js")

	events := []fsevents.Event{{Path: "/a/b.js", Type: fsevents.Update}}
	first := rg.RespondToFSEvents(events)
	second := rg.RespondToFSEvents(events)

	assert.True(t, first)
	assert.False(t, second, "already-invalid target produces no further change")
}

func TestInvariant5DuplicateEdgeInsertionIsIdempotent(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("P", "build", nil)
	rg.EnsureRequestNode("C", "build", nil)

	rg.Graph().AddEdge("P", "C", EdgeSubrequest)
	rg.Graph().AddEdge("P", "C", EdgeSubrequest)

	assert.Equal(t, []string{"C"}, rg.Graph().NodesFrom("P", EdgeSubrequest))
}

func TestBoundaryEmptyBatchReturnsFalse(t *testing.T) {
	rg := New()
	assert.False(t, rg.RespondToFSEvents(nil))
}

func TestBoundaryReAddingExistingNodeIsNoOp(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("R", "build", "original")
	rg.EnsureRequestNode("R", "build", "ignored")

	n, ok := rg.Graph().Node("R")
	require.True(t, ok)
	assert.Equal(t, "original", n.(*node.Request).Input)
}

func TestBoundaryRemovingNodePurgesEveryIndex(t *testing.T) {
	rg := New()
	rg.EnsureRequestNode("R", "build", nil)
	rg.MarkInvalid("R")
	rg.MarkIncomplete("R")
	rg.InvalidateOnStartup("R")

	rg.RemoveRequest("R")

	assert.False(t, rg.HasNode("R"))
	assert.False(t, rg.IsInvalid("R"))
	assert.False(t, rg.IsIncomplete("R"))
	assert.NotContains(t, rg.InvalidRequestIDs(), "R")
}

package reqgraph

import "github.com/rohankatakam/reqtrack/internal/node"

// InvalidateNode marks requestID invalid, then walks subrequest
// in-edges (parents) and invalidates each transitively, per
// spec.md §4.3's "invalidate_node".
func (rg *RequestGraph) InvalidateNode(requestID string) {
	if !rg.g.HasNode(requestID) {
		return
	}
	rg.MarkInvalid(requestID)
	rg.g.WalkTo(requestID, EdgeSubrequest, func(parentID string) {
		rg.MarkInvalid(parentID)
	})
}

// InvalidateUnpredictableNodes invalidates every id in
// unpredictable_request_ids — called once per process start.
func (rg *RequestGraph) InvalidateUnpredictableNodes() {
	for id := range rg.unpredictableRequestIDs {
		rg.InvalidateNode(id)
	}
}

// InvalidateEnvNodes invalidates every request depending on an Env
// node whose captured value differs from currentEnv's value for the
// same name, then records currentEnv's value on that node so a repeat
// call with the same environment invalidates nothing new.
func (rg *RequestGraph) InvalidateEnvNodes(currentEnv map[string]string) {
	for envID := range rg.envNodeIDs {
		n, ok := rg.g.Node(envID)
		if !ok {
			continue
		}
		env := n.(*node.Env)
		if currentEnv[env.Name] == env.Value {
			continue
		}
		for _, reqID := range rg.g.NodesTo(envID, EdgeInvalidatedByUpdate) {
			rg.InvalidateNode(reqID)
		}
		env.Value = currentEnv[env.Name]
	}
}

// InvalidateOptionNodes invalidates every request depending on an
// Option node whose captured hash differs from the stable hash of
// currentOptions' value for the same name.
func (rg *RequestGraph) InvalidateOptionNodes(currentOptions map[string]any) error {
	for optID := range rg.optionNodeIDs {
		n, ok := rg.g.Node(optID)
		if !ok {
			continue
		}
		opt := n.(*node.Option)
		current, present := currentOptions[opt.Name]
		if !present {
			continue
		}
		hash, err := node.StableHash(current)
		if err != nil {
			return err
		}
		if hash == opt.Hash {
			continue
		}
		for _, reqID := range rg.g.NodesTo(optID, EdgeInvalidatedByUpdate) {
			rg.InvalidateNode(reqID)
		}
	}
	return nil
}

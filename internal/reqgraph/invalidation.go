package reqgraph

import (
	"strings"

	"github.com/rohankatakam/reqtrack/internal/errors"
	"github.com/rohankatakam/reqtrack/internal/node"
	"github.com/sirupsen/logrus"
)

// CreateInvalidation is the sealed tagged union of the three shapes
// invalidate_on_file_create accepts, per spec.md §4.3.
type CreateInvalidation interface {
	isCreateInvalidation()
}

// GlobInvalidation matches any path satisfying Pattern.
type GlobInvalidation struct{ Pattern string }

// ExtensionlessInvalidation matches any of Path + an extension in Extensions.
type ExtensionlessInvalidation struct {
	Path       string
	Extensions []string
}

// FileAboveInvalidation matches a file named FileName appearing
// anywhere in the ancestor directories of AbovePath.
type FileAboveInvalidation struct {
	FileName  string
	AbovePath string
}

func (GlobInvalidation) isCreateInvalidation()         {}
func (ExtensionlessInvalidation) isCreateInvalidation() {}
func (FileAboveInvalidation) isCreateInvalidation()     {}

// InvalidateOnFileUpdate adds a File node for path and an
// invalidated_by_update edge from requestID.
func (rg *RequestGraph) InvalidateOnFileUpdate(requestID, path string) {
	rg.g.AddNode(node.NewFile(path))
	rg.g.AddEdge(requestID, path, EdgeInvalidatedByUpdate)
	rg.logger.WithFields(logrus.Fields{"request_id": requestID, "path": path}).Debug("invalidate_on_file_update declared")
}

// InvalidateOnFileDelete adds a File node for path and an
// invalidated_by_delete edge from requestID.
func (rg *RequestGraph) InvalidateOnFileDelete(requestID, path string) {
	rg.g.AddNode(node.NewFile(path))
	rg.g.AddEdge(requestID, path, EdgeInvalidatedByDelete)
}

// InvalidateOnStartup records requestID as unpredictable: it must
// rerun once per process start regardless of filesystem evidence.
func (rg *RequestGraph) InvalidateOnStartup(requestID string) {
	rg.unpredictableRequestIDs[requestID] = struct{}{}
}

// InvalidateOnEnvChange captures currentValue on an Env node and adds
// an invalidated_by_update edge from requestID.
func (rg *RequestGraph) InvalidateOnEnvChange(requestID, name, currentValue string) {
	id := node.EnvID(name)
	rg.g.AddNode(node.NewEnv(name, currentValue))
	rg.envNodeIDs[id] = struct{}{}
	rg.g.AddEdge(requestID, id, EdgeInvalidatedByUpdate)
}

// InvalidateOnOptionChange captures a stable hash of currentValue on
// an Option node and adds an invalidated_by_update edge from requestID.
func (rg *RequestGraph) InvalidateOnOptionChange(requestID, name string, currentValue any) error {
	hash, err := node.StableHash(currentValue)
	if err != nil {
		return errors.InvalidInvalidation(requestID, "option "+name+" is not hashable: "+err.Error())
	}
	id := node.OptionID(name)
	rg.g.AddNode(node.NewOption(name, hash))
	rg.optionNodeIDs[id] = struct{}{}
	rg.g.AddEdge(requestID, id, EdgeInvalidatedByUpdate)
	return nil
}

// InvalidateOnFileCreate installs one of the three invalidate-on-create
// shapes for requestID, per spec.md §4.3. Returns an
// *errors.Error{Kind: KindInvalidInvalidation} for any other shape.
func (rg *RequestGraph) InvalidateOnFileCreate(requestID string, spec CreateInvalidation) error {
	switch s := spec.(type) {
	case GlobInvalidation:
		rg.g.AddNode(node.NewGlob(s.Pattern))
		rg.globNodeIDs[s.Pattern] = struct{}{}
		rg.g.AddEdge(requestID, s.Pattern, EdgeInvalidatedByCreate)
		return nil

	case ExtensionlessInvalidation:
		id := node.ExtensionlessFileID(s.Path)
		// Union, then ensure the edge exists — per §9's open question
		// resolution, the edge must always be (re-)added even when the
		// node already existed and its extension set didn't grow.
		existing, ok := rg.g.Node(id)
		if ok {
			ef := existing.(*node.ExtensionlessFile)
			ef.UnionExtensions(s.Extensions)
		} else {
			rg.g.AddNode(node.NewExtensionlessFile(s.Path, s.Extensions))
		}
		rg.g.AddEdge(requestID, id, EdgeInvalidatedByCreate)
		return nil

	case FileAboveInvalidation:
		return rg.invalidateOnFileAbove(requestID, s)

	default:
		return errors.InvalidInvalidation(requestID, "unrecognized invalidate_on_file_create shape")
	}
}

// invalidateOnFileAbove builds the FileName chain for file_name
// (split on '/', reversed so the leaf segment comes first), links
// each segment with a dirname edge to its parent, anchors the chain's
// last segment to above_path via invalidated_by_create_above, and adds
// invalidated_by_create from requestID to the above_path File node.
func (rg *RequestGraph) invalidateOnFileAbove(requestID string, s FileAboveInvalidation) error {
	if s.FileName == "" || s.AbovePath == "" {
		return errors.InvalidInvalidation(requestID, "file_name and above_path are both required")
	}

	segments := strings.Split(s.FileName, "/")
	chain := make([]string, len(segments))
	for i, seg := range segments {
		chain[len(segments)-1-i] = seg
	}

	ids := make([]string, len(chain))
	for i, seg := range chain {
		id := node.FileNameID(seg)
		ids[i] = id
		rg.g.AddNode(node.NewFileName(seg))
	}
	for i := 0; i < len(ids)-1; i++ {
		rg.g.AddEdge(ids[i], ids[i+1], EdgeDirname)
	}

	rg.g.AddNode(node.NewFile(s.AbovePath))
	rg.g.AddEdge(s.AbovePath, ids[len(ids)-1], EdgeInvalidatedByCreateAbove)
	rg.g.AddEdge(requestID, s.AbovePath, EdgeInvalidatedByCreate)
	return nil
}

// ClearInvalidations removes requestID from unpredictable_request_ids
// and replaces its invalidated_by_update, invalidated_by_delete, and
// invalidated_by_create out-edges with the empty set, so it may
// re-declare exactly what it still depends on.
func (rg *RequestGraph) ClearInvalidations(requestID string) {
	delete(rg.unpredictableRequestIDs, requestID)
	rg.g.ReplaceNodesConnectedTo(requestID, nil, EdgeInvalidatedByUpdate)
	rg.g.ReplaceNodesConnectedTo(requestID, nil, EdgeInvalidatedByDelete)
	rg.g.ReplaceNodesConnectedTo(requestID, nil, EdgeInvalidatedByCreate)
	rg.logger.WithField("request_id", requestID).Debug("invalidations cleared")
}

// Invalidation is one entry returned by GetInvalidations: either a
// file path or an env variable name.
type Invalidation struct {
	Kind string // "file" | "env"
	Path string
	Name string
}

// GetInvalidations returns the File and Env dependencies currently on
// requestID's invalidated_by_update out-edges, for reporting.
func (rg *RequestGraph) GetInvalidations(requestID string) []Invalidation {
	var out []Invalidation
	for _, targetID := range rg.g.NodesFrom(requestID, EdgeInvalidatedByUpdate) {
		n, ok := rg.g.Node(targetID)
		if !ok {
			continue
		}
		switch v := n.(type) {
		case *node.File:
			out = append(out, Invalidation{Kind: "file", Path: v.Path})
		case *node.Env:
			out = append(out, Invalidation{Kind: "env", Name: v.Name})
		}
	}
	return out
}

package reqgraph

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rohankatakam/reqtrack/internal/fsevents"
	"github.com/rohankatakam/reqtrack/internal/node"
	"github.com/sirupsen/logrus"
)

// RespondToFSEvents applies an ordered batch of filesystem events,
// invalidating every request whose declared dependency the batch
// touches, and reports whether anything became invalid. Processing is
// order-preserving; within one event, invalidation is idempotent and
// order-independent across the three create probes.
func (rg *RequestGraph) RespondToFSEvents(events []fsevents.Event) bool {
	changed := false
	for _, ev := range events {
		if rg.respondToOne(ev) {
			changed = true
		}
	}
	return changed
}

func (rg *RequestGraph) respondToOne(ev fsevents.Event) bool {
	changed := false
	touched := false

	// MacOS quirk: some updates surface as creates. The "node exists as
	// an update target" heuristic folds them back to updates.
	if (ev.Type == fsevents.Create || ev.Type == fsevents.Update) && rg.g.HasNode(ev.Path) {
		touched = true
		if rg.invalidateRequestsOn(ev.Path, EdgeInvalidatedByUpdate) {
			changed = true
		}
		if ev.Type == fsevents.Update {
			return changed
		}
	}

	switch ev.Type {
	case fsevents.Create:
		if rg.probeExtensionlessFile(ev.Path) {
			changed, touched = true, true
		}
		if rg.probeFileNameAbove(ev.Path) {
			changed, touched = true, true
		}
		if rg.probeGlobs(ev.Path) {
			changed, touched = true, true
		}
	case fsevents.Delete:
		if rg.g.HasNode(ev.Path) {
			touched = true
			if rg.invalidateRequestsOn(ev.Path, EdgeInvalidatedByDelete) {
				changed = true
			}
		}
	}

	if !touched {
		rg.logger.WithFields(logrus.Fields{"path": ev.Path, "type": ev.Type.String()}).
			Warn("fs event refers to a path with no subscriber, ignoring")
	}

	return changed
}

// invalidateRequestsOn invalidates every request reached by an
// incoming edge of kind from nodeID, returning whether any was newly
// invalidated.
func (rg *RequestGraph) invalidateRequestsOn(nodeID, kind string) bool {
	changed := false
	for _, reqID := range rg.g.NodesTo(nodeID, kind) {
		if !rg.IsInvalid(reqID) {
			changed = true
		}
		rg.InvalidateNode(reqID)
	}
	return changed
}

// probeExtensionlessFile implements create-probe 1: does an
// ExtensionlessFile node exist for path's stem whose extension set
// contains path's extension?
func (rg *RequestGraph) probeExtensionlessFile(path string) bool {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	id := node.ExtensionlessFileID(stem)

	n, ok := rg.g.Node(id)
	if !ok {
		return false
	}
	ef := n.(*node.ExtensionlessFile)
	if !ef.HasExtension(ext) {
		return false
	}
	return rg.invalidateRequestsOn(id, EdgeInvalidatedByCreate)
}

// probeFileNameAbove implements create-probe 2: recursively walk
// upward through the FileName chain rooted at basename(path), looking
// for an anchored File whose ancestor directory the event falls
// inside.
func (rg *RequestGraph) probeFileNameAbove(path string) bool {
	return rg.walkFileNameChain(path)
}

func (rg *RequestGraph) walkFileNameChain(path string) bool {
	changed := false

	basename := filepath.Base(path)
	fnID := node.FileNameID(basename)
	if !rg.g.HasNode(fnID) {
		return false
	}

	eventDir := filepath.Dir(path)
	for _, fileID := range rg.g.NodesTo(fnID, EdgeInvalidatedByCreateAbove) {
		if isDirectoryInside(fileID, eventDir) {
			if rg.invalidateRequestsOn(fileID, EdgeInvalidatedByCreate) {
				changed = true
			}
		}
	}

	parentDir := eventDir
	parentFNID := node.FileNameID(filepath.Base(parentDir))
	if rg.g.HasEdge(fnID, parentFNID, EdgeDirname) {
		if rg.walkFileNameChain(parentDir) {
			changed = true
		}
	}

	return changed
}

// probeGlobs implements create-probe 3: does any registered Glob
// pattern match path?
func (rg *RequestGraph) probeGlobs(path string) bool {
	changed := false
	for pattern := range rg.globNodeIDs {
		matched, err := doublestar.Match(pattern, path)
		if err != nil || !matched {
			continue
		}
		if rg.invalidateRequestsOn(pattern, EdgeInvalidatedByCreate) {
			changed = true
		}
	}
	return changed
}

// isDirectoryInside reports whether dirPath is an ancestor directory
// of childPath (or equal to it).
func isDirectoryInside(childPath, dirPath string) bool {
	rel, err := filepath.Rel(dirPath, childPath)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

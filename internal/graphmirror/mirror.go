package graphmirror

import (
	"context"

	"github.com/rohankatakam/reqtrack/internal/node"
	"github.com/rohankatakam/reqtrack/internal/reqgraph"
)

// MirrorGraph exports every node and edge in rg to Neo4j using
// idempotent MERGE, batched with UNWIND. It is safe to call repeatedly
// on a growing or changing graph: re-exporting a node or edge already
// present in Neo4j is a no-op. Nothing here reads the graph lock — the
// caller is expected to have a consistent snapshot already (e.g. after
// a tracker mutation completes).
func MirrorGraph(ctx context.Context, c *Client, rg *reqgraph.RequestGraph) error {
	if err := mirrorNodes(ctx, c, rg); err != nil {
		return err
	}
	return mirrorEdges(ctx, c, rg)
}

func mirrorNodes(ctx context.Context, c *Client, rg *reqgraph.RequestGraph) error {
	byLabel := make(map[string][]map[string]any)
	for _, n := range rg.Graph().Nodes() {
		label, props := nodeLabelAndProps(n)
		byLabel[label] = append(byLabel[label], props)
	}

	for label, rows := range byLabel {
		cypher := `
			UNWIND $rows AS row
			MERGE (n:` + label + ` {id: row.id})
			SET n += row.props
		`
		if err := c.run(ctx, cypher, map[string]any{"rows": rows}); err != nil {
			return err
		}
	}
	return nil
}

func mirrorEdges(ctx context.Context, c *Client, rg *reqgraph.RequestGraph) error {
	byKind := make(map[string][]map[string]any)
	for _, e := range rg.Graph().Edges() {
		byKind[e.Kind] = append(byKind[e.Kind], map[string]any{"from": e.From, "to": e.To})
	}

	for kind, rows := range byKind {
		cypher := `
			UNWIND $rows AS row
			MATCH (a {id: row.from})
			MATCH (b {id: row.to})
			MERGE (a)-[:` + relType(kind) + `]->(b)
		`
		if err := c.run(ctx, cypher, map[string]any{"rows": rows}); err != nil {
			return err
		}
	}
	return nil
}

// nodeLabelAndProps maps a node.Node to its Neo4j label and a flat
// property map, keyed like the wire envelope in internal/serialize so
// the two stay easy to cross-check by hand.
func nodeLabelAndProps(n node.Node) (string, map[string]any) {
	props := map[string]any{"id": n.ID()}
	switch v := n.(type) {
	case *node.Request:
		props["props"] = map[string]any{"type": v.Type, "has_result": v.HasResult}
		return "Request", props
	case *node.File:
		props["props"] = map[string]any{"path": v.Path}
		return "File", props
	case *node.Glob:
		props["props"] = map[string]any{"pattern": v.Pattern}
		return "Glob", props
	case *node.FileName:
		props["props"] = map[string]any{"basename": v.Basename}
		return "FileName", props
	case *node.ExtensionlessFile:
		exts := make([]string, 0, len(v.Extensions))
		for ext := range v.Extensions {
			exts = append(exts, ext)
		}
		props["props"] = map[string]any{"path": v.Path, "extensions": exts}
		return "ExtensionlessFile", props
	case *node.Env:
		props["props"] = map[string]any{"name": v.Name, "value": v.Value}
		return "Env", props
	case *node.Option:
		props["props"] = map[string]any{"name": v.Name, "hash": v.Hash}
		return "Option", props
	default:
		return "Unknown", props
	}
}

// relType sanitizes an edge kind into a Neo4j relationship type:
// uppercase, since Cypher relationship types are conventionally
// SCREAMING_SNAKE_CASE and kinds here are already snake_case.
func relType(kind string) string {
	out := make([]byte, len(kind))
	for i := 0; i < len(kind); i++ {
		c := kind[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

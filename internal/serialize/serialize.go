// Package serialize encodes a reqgraph.RequestGraph to and from the
// msgpack envelope described in spec.md §6: nodes (map id → tagged
// node), edges (list of {from, to, kind}), and the six auxiliary
// id-sets. The on-disk bytes are implementation-defined; only the
// round-trip of graph structure and indices is guaranteed, per §8
// invariant 6.
package serialize

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/rohankatakam/reqtrack/internal/graph"
	"github.com/rohankatakam/reqtrack/internal/node"
	"github.com/rohankatakam/reqtrack/internal/reqgraph"
	"github.com/vmihailenco/msgpack/v5"
)

// wireNode is the tagged envelope for one node, keyed by kind so
// Decode can dispatch back to the right node.Node constructor.
type wireNode struct {
	Kind Kind `msgpack:"kind"`

	// Request
	RequestID string `msgpack:"request_id,omitempty"`
	Type      string `msgpack:"type,omitempty"`
	Input     any    `msgpack:"input,omitempty"`
	Result    any    `msgpack:"result,omitempty"`
	HasResult bool   `msgpack:"has_result,omitempty"`

	// File / Glob / FileName / ExtensionlessFile / Env / Option share
	// a subset of these depending on Kind.
	Path       string   `msgpack:"path,omitempty"`
	Pattern    string   `msgpack:"pattern,omitempty"`
	Basename   string   `msgpack:"basename,omitempty"`
	Extensions []string `msgpack:"extensions,omitempty"`
	Name       string   `msgpack:"name,omitempty"`
	Value      string   `msgpack:"value,omitempty"`
	Hash       string   `msgpack:"hash,omitempty"`
}

// Kind mirrors node.Kind as a msgpack-stable string.
type Kind = node.Kind

type wireEdge struct {
	From string `msgpack:"from"`
	To   string `msgpack:"to"`
	Kind string `msgpack:"kind"`
}

// envelope is the full persisted record.
type envelope struct {
	Nodes map[string]wireNode `msgpack:"nodes"`
	Edges []wireEdge          `msgpack:"edges"`

	InvalidRequestIDs       []string `msgpack:"invalid_request_ids"`
	IncompleteRequestIDs    []string `msgpack:"incomplete_request_ids"`
	GlobNodeIDs             []string `msgpack:"glob_node_ids"`
	EnvNodeIDs              []string `msgpack:"env_node_ids"`
	OptionNodeIDs           []string `msgpack:"option_node_ids"`
	UnpredictableRequestIDs []string `msgpack:"unpredictable_request_ids"`
}

// Encode serializes rg to its msgpack envelope.
func Encode(rg *reqgraph.RequestGraph) ([]byte, error) {
	env := envelope{
		Nodes:                   make(map[string]wireNode, rg.Graph().Len()),
		InvalidRequestIDs:       rg.InvalidRequestIDs(),
		IncompleteRequestIDs:    rg.IncompleteRequestIDs(),
		GlobNodeIDs:             rg.GlobNodeIDs(),
		EnvNodeIDs:              rg.EnvNodeIDs(),
		OptionNodeIDs:           rg.OptionNodeIDs(),
		UnpredictableRequestIDs: rg.UnpredictableRequestIDs(),
	}

	for _, n := range rg.Graph().Nodes() {
		wn, err := toWireNode(n)
		if err != nil {
			return nil, fmt.Errorf("encode node %q: %w", n.ID(), err)
		}
		env.Nodes[n.ID()] = wn
	}

	for _, e := range rg.Graph().Edges() {
		env.Edges = append(env.Edges, wireEdge{From: e.From, To: e.To, Kind: e.Kind})
	}
	sort.Slice(env.Edges, func(i, j int) bool {
		a, b := env.Edges[i], env.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
	sort.Strings(env.InvalidRequestIDs)
	sort.Strings(env.IncompleteRequestIDs)
	sort.Strings(env.GlobNodeIDs)
	sort.Strings(env.EnvNodeIDs)
	sort.Strings(env.OptionNodeIDs)
	sort.Strings(env.UnpredictableRequestIDs)

	// msgpack's default map encoding follows map iteration order, which
	// Go randomizes per run; sort keys so repeated encodes of the same
	// graph are byte-identical, per invariant 6.
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode rebuilds a RequestGraph from bytes previously produced by
// Encode. A malformed or empty blob is treated as "no prior state" by
// the caller (see store.Store.Load's nil-on-missing contract); Decode
// itself still reports the error so the caller can choose.
func Decode(data []byte) (*reqgraph.RequestGraph, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	g := graph.New[node.Node]()
	for id, wn := range env.Nodes {
		n, err := fromWireNode(id, wn)
		if err != nil {
			return nil, fmt.Errorf("decode node %q: %w", id, err)
		}
		g.AddNode(n)
	}
	for _, e := range env.Edges {
		g.AddEdge(e.From, e.To, e.Kind)
	}

	return reqgraph.Restore(
		g,
		env.InvalidRequestIDs,
		env.IncompleteRequestIDs,
		env.GlobNodeIDs,
		env.EnvNodeIDs,
		env.OptionNodeIDs,
		env.UnpredictableRequestIDs,
	), nil
}

func toWireNode(n node.Node) (wireNode, error) {
	switch v := n.(type) {
	case *node.Request:
		return wireNode{
			Kind: node.KindRequest, RequestID: v.RequestID, Type: v.Type,
			Input: v.Input, Result: v.Result, HasResult: v.HasResult,
		}, nil
	case *node.File:
		return wireNode{Kind: node.KindFile, Path: v.Path}, nil
	case *node.Glob:
		return wireNode{Kind: node.KindGlob, Pattern: v.Pattern}, nil
	case *node.FileName:
		return wireNode{Kind: node.KindFileName, Basename: v.Basename}, nil
	case *node.ExtensionlessFile:
		exts := make([]string, 0, len(v.Extensions))
		for ext := range v.Extensions {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		return wireNode{Kind: node.KindExtensionlessFile, Path: v.Path, Extensions: exts}, nil
	case *node.Env:
		return wireNode{Kind: node.KindEnv, Name: v.Name, Value: v.Value}, nil
	case *node.Option:
		return wireNode{Kind: node.KindOption, Name: v.Name, Hash: v.Hash}, nil
	default:
		return wireNode{}, fmt.Errorf("unrecognized node type %T", n)
	}
}

func fromWireNode(id string, wn wireNode) (node.Node, error) {
	switch wn.Kind {
	case node.KindRequest:
		r := node.NewRequest(wn.RequestID, wn.Type, wn.Input)
		r.Result = wn.Result
		r.HasResult = wn.HasResult
		return r, nil
	case node.KindFile:
		return node.NewFile(wn.Path), nil
	case node.KindGlob:
		return node.NewGlob(wn.Pattern), nil
	case node.KindFileName:
		return node.NewFileName(wn.Basename), nil
	case node.KindExtensionlessFile:
		return node.NewExtensionlessFile(wn.Path, wn.Extensions), nil
	case node.KindEnv:
		return node.NewEnv(wn.Name, wn.Value), nil
	case node.KindOption:
		return node.NewOption(wn.Name, wn.Hash), nil
	default:
		return nil, fmt.Errorf("unrecognized node kind %q for id %q", wn.Kind, id)
	}
}

package provenance

import (
	"encoding/json"
	"fmt"
	"strings"

	"valuecore/pkg/core/verrors"
)

// TraceNode is the JSON-exported shape of a Node.
type TraceNode struct {
	ID     string            `json:"id"`
	Op     string            `json:"op"`
	Inputs []string          `json:"inputs"`
	Meta   map[string]string `json:"meta,omitempty"`
}

// Trace is the top-level export shape: {root, nodes}.
type Trace struct {
	Root  string               `json:"root"`
	Nodes map[string]TraceNode `json:"nodes"`
}

// closure walks the transitive closure of nodes reachable from root.
func (r *Recorder) closure(root ID) map[ID]*Node {
	out := make(map[ID]*Node)
	stack := []ID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := out[id]; seen {
			continue
		}
		n, ok := r.Node(id)
		if !ok {
			continue
		}
		out[id] = n
		stack = append(stack, n.Inputs...)
	}
	return out
}

// Graph returns the node map (keyed by id) for the transitive closure
// reachable from root.
func (r *Recorder) Graph(root ID) map[ID]*Node {
	return r.closure(root)
}

// ToTraceJSON exports the transitive closure reachable from root as
// canonically-ordered JSON: {"root": id, "nodes": {id: {id, op, inputs,
// meta}}}. Equal inputs always produce byte-identical output because Go's
// encoding/json sorts map keys and every node id is content-addressed.
func (r *Recorder) ToTraceJSON(root ID) ([]byte, error) {
	nodes := r.closure(root)
	if r.cfg.GraphSizeLimit > 0 && len(nodes) > r.cfg.GraphSizeLimit {
		err := verrors.GraphTooLarge(r.cfg.GraphSizeLimit)
		if r.cfg.FailOnError {
			return nil, err
		}
		return nil, nil
	}
	trace := Trace{Root: string(root), Nodes: make(map[string]TraceNode, len(nodes))}
	for id, n := range nodes {
		inputs := make([]string, len(n.Inputs))
		for i, in := range n.Inputs {
			inputs[i] = string(in)
		}
		trace.Nodes[string(id)] = TraceNode{
			ID:     string(id),
			Op:     n.Op,
			Inputs: inputs,
			Meta:   n.Meta,
		}
	}
	return json.Marshal(trace)
}

// Explain renders a deterministic, human-readable text tree for root,
// stopping recursion at literal nodes (no inputs) or maxDepth, whichever
// comes first. maxDepth<=0 means unlimited.
func (r *Recorder) Explain(root ID, maxDepth int) string {
	var b strings.Builder
	r.explainNode(&b, root, 0, maxDepth)
	return b.String()
}

func (r *Recorder) explainNode(b *strings.Builder, id ID, depth, maxDepth int) {
	indent := strings.Repeat("  ", depth)
	n, ok := r.Node(id)
	if !ok {
		fmt.Fprintf(b, "%s<unknown:%s>\n", indent, shortID(id))
		return
	}
	fmt.Fprintf(b, "%s%s [%s]\n", indent, n.Op, shortID(id))
	if len(n.Inputs) == 0 {
		return
	}
	if maxDepth > 0 && depth+1 >= maxDepth {
		fmt.Fprintf(b, "%s  ...\n", indent)
		return
	}
	for _, in := range n.Inputs {
		r.explainNode(b, in, depth+1, maxDepth)
	}
}

func shortID(id ID) string {
	s := string(id)
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

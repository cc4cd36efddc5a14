// Package provenance implements the content-addressed lineage graph: every
// Value constructor and arithmetic operator can optionally record a Node
// describing how the value was produced, and the graph reachable from a
// Value can be exported as JSON or a human-readable trace.
package provenance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ID is a stable content hash, hex-encoded.
type ID string

// Node is an immutable record of one computation step. Two nodes built from
// identical (Op, Inputs, Meta, PolicySignature) always share the same ID --
// node identity is derived, not assigned.
type Node struct {
	id              ID
	Op              string
	Inputs          []ID
	Meta            map[string]string
	PolicySignature string
}

// ID returns the node's content-addressed identifier.
func (n *Node) ID() ID { return n.id }

// canonicalize renders (op, inputs, meta, policy signature) in a
// deterministic byte form so that equal logical content always hashes to the
// same ID regardless of map iteration order.
func canonicalize(op string, inputs []ID, meta map[string]string, policySig string) string {
	var b strings.Builder
	b.WriteString("op=")
	b.WriteString(op)
	b.WriteString("|inputs=")
	for i, id := range inputs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(id))
	}
	b.WriteString("|policy=")
	b.WriteString(policySig)
	b.WriteString("|meta=")
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(meta[k])
		b.WriteByte(';')
	}
	return b.String()
}

// computeID hashes the canonical form with SHA-256.
func computeID(op string, inputs []ID, meta map[string]string, policySig string) ID {
	sum := sha256.Sum256([]byte(canonicalize(op, inputs, meta, policySig)))
	return ID(hex.EncodeToString(sum[:]))
}

// NewNode builds a content-addressed Node. meta is copied so the caller's
// map can be mutated afterward without affecting the node.
func NewNode(op string, inputs []ID, meta map[string]string, policySig string) *Node {
	m := make(map[string]string, len(meta))
	for k, v := range meta {
		m[k] = v
	}
	id := computeID(op, inputs, m, policySig)
	return &Node{id: id, Op: op, Inputs: append([]ID(nil), inputs...), Meta: m, PolicySignature: policySig}
}

// String renders a node for debugging.
func (n *Node) String() string {
	return fmt.Sprintf("Node{id=%s op=%s inputs=%v}", n.id, n.Op, n.Inputs)
}

// Package serializer defines the per-format dispatch tables that map document
// node and mark types to emission behavior, and the contract every export
// format implements.
package serializer

import (
	"errors"
	"time"

	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp-forge/hermes-export/pkg/resource"
)

// NodeFunc emits node into the format-specific state. parent is nil for the
// root and index is the node's position among its siblings.
type NodeFunc[S any] func(state S, node, parent *doctree.Node, index int) error

// Registry is the dispatch table of one format. S is the format's emission
// state and M its representation of a mark.
type Registry[S any, M any] struct {
	format string
	nodes  map[doctree.NodeType]NodeFunc[S]
	marks  map[doctree.MarkType]M
}

// NewRegistry returns an empty registry for format.
func NewRegistry[S any, M any](format string) *Registry[S, M] {
	return &Registry[S, M]{
		format: format,
		nodes:  make(map[doctree.NodeType]NodeFunc[S]),
		marks:  make(map[doctree.MarkType]M),
	}
}

// Format returns the format name.
func (r *Registry[S, M]) Format() string {
	return r.format
}

// Node registers fn for node type t, replacing any previous entry.
func (r *Registry[S, M]) Node(t doctree.NodeType, fn NodeFunc[S]) *Registry[S, M] {
	r.nodes[t] = fn
	return r
}

// Mark registers the representation of mark type t.
func (r *Registry[S, M]) Mark(t doctree.MarkType, m M) *Registry[S, M] {
	r.marks[t] = m
	return r
}

// HasNode reports whether t is registered.
func (r *Registry[S, M]) HasNode(t doctree.NodeType) bool {
	_, ok := r.nodes[t]
	return ok
}

// HasMark reports whether t is registered.
func (r *Registry[S, M]) HasMark(t doctree.MarkType) bool {
	_, ok := r.marks[t]
	return ok
}

// Emit dispatches node to its registered NodeFunc.
func (r *Registry[S, M]) Emit(state S, node, parent *doctree.Node, index int) error {
	fn, ok := r.nodes[node.Type]
	if !ok {
		return exporterr.UnsupportedNode("Emit", r.format, string(node.Type))
	}
	return fn(state, node, parent, index)
}

// EmitChildren emits every child of node in order.
func (r *Registry[S, M]) EmitChildren(state S, node *doctree.Node) error {
	for i, child := range node.Content {
		if err := r.Emit(state, child, node, i); err != nil {
			return err
		}
	}
	return nil
}

// MarkFor returns the representation of mark type t.
func (r *Registry[S, M]) MarkFor(t doctree.MarkType) (M, error) {
	m, ok := r.marks[t]
	if !ok {
		var zero M
		return zero, exporterr.UnsupportedMark("MarkFor", r.format, string(t))
	}
	return m, nil
}

// Check verifies that every node and mark in the tree is registered. It is
// run before any output is produced so a document is either rendered
// completely or not at all.
func (r *Registry[S, M]) Check(root *doctree.Node) error {
	return doctree.Walk(root, func(n *doctree.Node, _ int, _ []*doctree.Node) error {
		if !r.HasNode(n.Type) {
			return exporterr.UnsupportedNode("Check", r.format, string(n.Type))
		}
		for _, m := range n.Marks {
			if !r.HasMark(m.Type) {
				return exporterr.UnsupportedMark("Check", r.format, string(m.Type))
			}
		}
		return nil
	})
}

// Clone returns an independent copy that can be extended without affecting r.
func (r *Registry[S, M]) Clone() *Registry[S, M] {
	out := NewRegistry[S, M](r.format)
	for t, fn := range r.nodes {
		out.nodes[t] = fn
	}
	for t, m := range r.marks {
		out.marks[t] = m
	}
	return out
}

// Input is everything a serializer needs for one export.
type Input struct {
	// Root is the validated document tree.
	Root *doctree.Node

	// Title is the resolved document title.
	Title string

	// Created is the export timestamp.
	Created time.Time

	// Resources holds resolved external resources. It is nil for formats
	// that do not embed resources.
	Resources resource.Lookup
}

// Serializer renders a document tree into one export format.
type Serializer interface {
	// Format returns the canonical format name.
	Format() string

	// Check reports an exporterr.ErrUnsupportedNodeType error if the tree
	// contains a node or mark the format cannot represent.
	Check(root *doctree.Node) error

	// Serialize renders the tree.
	Serialize(in Input) ([]byte, error)
}

// ResourceCollector is implemented by serializers that embed external
// resources. The orchestrator resolves the returned URLs before Serialize.
type ResourceCollector interface {
	Resources(root *doctree.Node) []string
}

// IsUnsupported reports whether err was caused by a missing registration.
func IsUnsupported(err error) bool {
	return errors.Is(err, exporterr.ErrUnsupportedNodeType)
}

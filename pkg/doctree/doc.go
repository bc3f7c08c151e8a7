// Package doctree is the canonical, read-only document tree consumed by the
// export serializers.
//
// A tree is built by the editing layer (usually via Parse on the editor's JSON
// state) and handed to the export engine for the duration of one export. The
// package exposes no mutation API to serializers; they read the tree through
// Walk and the accessors on Node.
//
// # Invariants
//
//  1. Exactly one root, of type "doc".
//  2. The tree is acyclic and every node has exactly one parent.
//  3. Marks appear only on inline nodes.
//  4. Atomic nodes (text, image, hardBreak, katex, horizontalRule) have no
//     content, and text nodes are never empty.
//
// Validate reports every violation with the path of the offending node.
//
// # Usage
//
//	root, err := doctree.Parse(raw)
//	if err != nil {
//	    return err
//	}
//	if err := doctree.Validate(root); err != nil {
//	    return err // errors.Is(err, exporterr.ErrMalformedTree)
//	}
//	_ = doctree.Walk(root, func(n *doctree.Node, depth int, ancestors []*doctree.Node) error {
//	    fmt.Println(strings.Repeat("  ", depth), n.Type)
//	    return nil
//	})
package doctree

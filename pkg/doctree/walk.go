package doctree

import "errors"

// SkipChildren can be returned from a WalkFunc to skip the node's descendants
// without stopping the walk.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node in depth-first, document order. ancestors
// holds the path from the root to the node's parent; it is a copy owned by
// the callee.
type WalkFunc func(node *Node, depth int, ancestors []*Node) error

// Walk traverses the tree rooted at root. A node reached twice (a cycle or a
// shared subtree) is visited only once. Returning an error other than
// SkipChildren stops the walk and the error is returned.
func Walk(root *Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	w := walker{fn: fn, seen: make(map[*Node]bool)}
	return w.walk(root, 0, nil)
}

type walker struct {
	fn   WalkFunc
	seen map[*Node]bool
}

func (w *walker) walk(n *Node, depth int, ancestors []*Node) error {
	if n == nil || w.seen[n] {
		return nil
	}
	w.seen[n] = true

	path := make([]*Node, len(ancestors))
	copy(path, ancestors)

	if err := w.fn(n, depth, path); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}

	next := append(ancestors, n)
	for _, child := range n.Content {
		if err := w.walk(child, depth+1, next); err != nil {
			return err
		}
	}
	return nil
}

// ImageURLs returns the distinct src attributes of all image nodes, in the
// order they first appear in the document.
func ImageURLs(root *Node) []string {
	var urls []string
	seen := make(map[string]bool)
	_ = Walk(root, func(n *Node, _ int, _ []*Node) error {
		if n.Type != TypeImage {
			return nil
		}
		src := n.StringAttr("src")
		if src == "" || seen[src] {
			return nil
		}
		seen[src] = true
		urls = append(urls, src)
		return nil
	})
	return urls
}

// FirstOfType returns the first node of type t in document order, or nil.
func FirstOfType(root *Node, t NodeType) *Node {
	var found *Node
	_ = Walk(root, func(n *Node, _ int, _ []*Node) error {
		if n.Type == t {
			found = n
			return errStop
		}
		return nil
	})
	return found
}

var errStop = errors.New("stop")

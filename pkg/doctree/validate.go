package doctree

import (
	"fmt"

	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp/go-multierror"
)

// Validate checks the structural invariants of the tree rooted at root and
// returns every violation found, joined in a multierror and tagged with
// ErrMalformedTree. A nil return means the tree is well formed.
//
// Validate does not reject unknown node or mark types; whether a type can be
// rendered is a property of the target format.
func Validate(root *Node) error {
	if root == nil {
		return exporterr.New("Validate", exporterr.ErrMalformedTree, "document is nil")
	}

	v := validator{visited: make(map[*Node]string)}
	if root.Type != TypeDoc {
		v.addf(string(root.Type), "root must be of type %q, got %q", TypeDoc, root.Type)
	}
	v.check(root, segment(root, -1), true)

	if err := v.errs.ErrorOrNil(); err != nil {
		return exporterr.Wrap("Validate", exporterr.ErrMalformedTree, err)
	}
	return nil
}

// IsWellFormed reports whether Validate would return nil.
func IsWellFormed(root *Node) bool {
	return Validate(root) == nil
}

type validator struct {
	errs    *multierror.Error
	visited map[*Node]string
}

func (v *validator) addf(path, format string, args ...any) {
	v.errs = multierror.Append(v.errs, fmt.Errorf("%s: "+format, append([]any{path}, args...)...))
}

func (v *validator) check(n *Node, path string, isRoot bool) {
	if first, ok := v.visited[n]; ok {
		v.addf(path, "node already appears at %s", first)
		return
	}
	v.visited[n] = path

	if n.Type == "" {
		v.addf(path, "node has no type")
	}
	if n.Type == TypeDoc && !isRoot {
		v.addf(path, "doc node is only allowed at the root")
	}

	if len(n.Marks) > 0 && n.Type.Known() && !n.Type.Inline() {
		v.addf(path, "marks are only allowed on inline nodes")
	}
	for i, m := range n.Marks {
		if m.Type == "" {
			v.addf(path, "mark %d has no type", i)
		}
	}

	if n.Type.Atomic() && len(n.Content) > 0 {
		v.addf(path, "%s nodes cannot have content", n.Type)
	}
	if n.Type == TypeText && n.Text == "" {
		v.addf(path, "text nodes cannot be empty")
	}
	if n.Type != TypeText && n.Text != "" {
		v.addf(path, "only text nodes carry text")
	}

	for i, child := range n.Content {
		if child == nil {
			v.addf(fmt.Sprintf("%s/[%d]", path, i), "child is nil")
			continue
		}
		v.check(child, path+"/"+segment(child, i), false)
	}
}

func segment(n *Node, index int) string {
	if index < 0 {
		return string(n.Type)
	}
	return fmt.Sprintf("%s[%d]", n.Type, index)
}

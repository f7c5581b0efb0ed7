package tree

// Entry is a flattened node with the id of the container holding it.
// Parent is zero for the root.
type Entry struct {
	*Node
	Parent int64
}

// Flatten lists root and every descendant, tiled and floating, using an
// explicit work list. The root comes first; children of one parent are
// contiguous, tiled before floating.
func Flatten(root *Node) []Entry {
	if root == nil {
		return nil
	}
	out := []Entry{{Node: root}}
	stack := []*Node{root}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := range current.Nodes {
			out = append(out, Entry{Node: &current.Nodes[i], Parent: current.ID})
		}
		for i := range current.FloatingNodes {
			out = append(out, Entry{Node: &current.FloatingNodes[i], Parent: current.ID})
		}
		for i := range current.Nodes {
			stack = append(stack, &current.Nodes[i])
		}
		for i := range current.FloatingNodes {
			stack = append(stack, &current.FloatingNodes[i])
		}
	}
	return out
}

// FindFocused returns the focused container, or nil.
func FindFocused(root *Node) *Node {
	for _, e := range Flatten(root) {
		if e.Focused {
			return e.Node
		}
	}
	return nil
}

// Content returns the application windows under root.
func Content(root *Node) []Entry {
	var out []Entry
	for _, e := range Flatten(root) {
		if e.IsContent() {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first entry with the given id.
func Find(root *Node, id int64) (Entry, bool) {
	for _, e := range Flatten(root) {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// WorkspaceOf walks parent links from id up to the enclosing workspace.
func WorkspaceOf(root *Node, id int64) (*Node, bool) {
	entries := Flatten(root)
	byID := make(map[int64]Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	e, ok := byID[id]
	for ok {
		if e.Type == TypeWorkspace {
			return e.Node, true
		}
		if e.Parent == 0 {
			break
		}
		e, ok = byID[e.Parent]
	}
	return nil, false
}

package tree

// RemoveNode deletes key, every descendant reachable through children, and
// the reference in the former parent's children. Removing the current root
// leaves an empty tree. Unknown keys are a no-op.
//
// Unlike Apply, this mutates the passed tree in place: it exists for bulk
// cleanup outside the streaming hot path, where allocating a new version per
// removal buys nothing. Callers holding older versions must not pass them
// here.
func RemoveNode(t *Tree, key string) {
	if t == nil {
		return
	}
	el := t.Elements[key]
	if el == nil {
		return
	}
	if el.ParentKey != "" {
		if parent := t.Elements[el.ParentKey]; parent != nil {
			parent.Children = withoutKey(parent.Children, key)
		}
	}
	deleteSubtree(t, key)
	if t.Root == key {
		t.Root = ""
	}
}

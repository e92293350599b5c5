package tree

import (
	"strconv"
	"strings"

	"canvas/internal/patch"
)

// Apply produces a new tree version with one patch applied. The input tree is
// never mutated: the edited element and every ancestor up to the root get
// fresh objects, all other elements keep their references. Unknown or
// invalid paths, missing targets, and cycle-forming links all degrade to
// returning the input tree unchanged; Apply never panics.
func Apply(t *Tree, p patch.Patch) *Tree {
	if t == nil {
		t = New()
	}
	segments := splitPath(p.Path)
	if len(segments) == 0 {
		return t
	}

	if segments[0] == "root" && len(segments) == 1 {
		return applyRoot(t, p)
	}
	if segments[0] != "elements" || len(segments) < 2 {
		return t
	}
	key := segments[1]

	switch len(segments) {
	case 2:
		return applyElement(t, key, p)
	case 4:
		switch segments[2] {
		case "props":
			return applyProp(t, key, segments[3], p)
		case "children":
			return applyChild(t, key, segments[3], p)
		}
	}
	return t
}

func applyRoot(t *Tree, p patch.Patch) *Tree {
	switch p.Op {
	case patch.OpSet, patch.OpReplace:
		root, ok := p.Value.(string)
		if !ok {
			return t
		}
		next := t.cloneShallow()
		next.Root = root
		return next
	case patch.OpRemove:
		next := t.cloneShallow()
		next.Root = ""
		return next
	}
	return t
}

func applyElement(t *Tree, key string, p patch.Patch) *Tree {
	switch p.Op {
	case patch.OpAdd, patch.OpReplace, patch.OpSet:
		el := elementFromValue(key, p.Value)
		if el == nil {
			return t
		}
		if existing := t.Elements[key]; existing != nil {
			// Replacing in place: structure not named by the value survives,
			// so a payload-only replace does not orphan the subtree.
			if el.Children == nil {
				el.Children = append([]string(nil), existing.Children...)
			}
			if el.ParentKey == "" {
				el.ParentKey = existing.ParentKey
			}
		}
		if el.Props == nil {
			el.Props = map[string]any{}
		}
		if el.Children == nil {
			el.Children = []string{}
		}
		next := t.cloneShallow()
		if el.ParentKey != "" {
			parent := next.Elements[el.ParentKey]
			if parent == nil || next.isAncestor(key, el.ParentKey) {
				// No such parent yet, or the link would close a cycle. An
				// already-placed element keeps its old link rather than being
				// orphaned by a bogus one.
				el.ParentKey = ""
				if existing := t.Elements[key]; existing != nil {
					el.ParentKey = existing.ParentKey
				}
			} else {
				if existing := t.Elements[key]; existing != nil &&
					existing.ParentKey != "" && existing.ParentKey != el.ParentKey {
					detachFromParent(next, existing.ParentKey, key)
				}
				if !containsKey(parent.Children, key) {
					linked := cloneElement(parent)
					linked.Children = append(linked.Children, key)
					next.Elements[el.ParentKey] = linked
				}
			}
		}
		next.Elements[key] = el
		cloneAncestors(next, key)
		return next
	case patch.OpRemove:
		return removeCopyOnWrite(t, key)
	}
	return t
}

func applyProp(t *Tree, key, name string, p patch.Patch) *Tree {
	el := t.Elements[key]
	if el == nil {
		return t
	}
	switch p.Op {
	case patch.OpSet, patch.OpAdd, patch.OpReplace:
		next := t.cloneShallow()
		edited := cloneElement(el)
		if edited.Props == nil {
			edited.Props = map[string]any{}
		}
		edited.Props[name] = p.Value
		next.Elements[key] = edited
		cloneAncestors(next, key)
		return next
	case patch.OpRemove:
		if el.Props == nil {
			return t
		}
		if _, ok := el.Props[name]; !ok {
			return t
		}
		next := t.cloneShallow()
		edited := cloneElement(el)
		delete(edited.Props, name)
		next.Elements[key] = edited
		cloneAncestors(next, key)
		return next
	}
	return t
}

func applyChild(t *Tree, key, position string, p patch.Patch) *Tree {
	parent := t.Elements[key]
	if parent == nil {
		return t
	}

	switch p.Op {
	case patch.OpAdd:
		childKey, ok := p.Value.(string)
		if !ok || childKey == "" {
			return t
		}
		if containsKey(parent.Children, childKey) {
			return t
		}
		if t.isAncestor(childKey, key) {
			return t
		}
		index := len(parent.Children)
		if position != "-" {
			parsed, err := strconv.Atoi(position)
			if err != nil || parsed < 0 || parsed > len(parent.Children) {
				return t
			}
			index = parsed
		}
		next := t.cloneShallow()
		edited := cloneElement(parent)
		if edited.Children == nil {
			edited.Children = []string{}
		}
		edited.Children = append(edited.Children, "")
		copy(edited.Children[index+1:], edited.Children[index:])
		edited.Children[index] = childKey
		next.Elements[key] = edited
		if child := next.Elements[childKey]; child != nil && child.ParentKey != key {
			if child.ParentKey != "" {
				detachFromParent(next, child.ParentKey, childKey)
			}
			linked := cloneElement(child)
			linked.ParentKey = key
			next.Elements[childKey] = linked
		}
		cloneAncestors(next, key)
		return next
	case patch.OpSet, patch.OpReplace:
		childKey, ok := p.Value.(string)
		if !ok || childKey == "" {
			return t
		}
		index, err := strconv.Atoi(position)
		if err != nil || index < 0 || index >= len(parent.Children) {
			return t
		}
		previous := parent.Children[index]
		if previous == childKey {
			return t
		}
		if t.isAncestor(childKey, key) {
			return t
		}
		next := t.cloneShallow()
		edited := cloneElement(parent)
		edited.Children[index] = childKey
		next.Elements[key] = edited
		if child := next.Elements[childKey]; child != nil && child.ParentKey != key {
			if child.ParentKey != "" {
				detachFromParent(next, child.ParentKey, childKey)
			}
			linked := cloneElement(child)
			linked.ParentKey = key
			next.Elements[childKey] = linked
		}
		// The displaced child and its subtree are no longer reachable.
		deleteSubtree(next, previous)
		cloneAncestors(next, key)
		return next
	case patch.OpRemove:
		index, err := strconv.Atoi(position)
		if err != nil || index < 0 || index >= len(parent.Children) {
			return t
		}
		removed := parent.Children[index]
		next := t.cloneShallow()
		edited := cloneElement(parent)
		edited.Children = append(edited.Children[:index], edited.Children[index+1:]...)
		next.Elements[key] = edited
		deleteSubtree(next, removed)
		cloneAncestors(next, key)
		return next
	}
	return t
}

// detachFromParent removes childKey from its former parent's children list,
// cloning the parent so older versions keep theirs. Re-parenting must run this
// first: a key may never be listed under two parents at once.
func detachFromParent(t *Tree, parentKey, childKey string) {
	parent := t.Elements[parentKey]
	if parent == nil || !containsKey(parent.Children, childKey) {
		return
	}
	edited := cloneElement(parent)
	edited.Children = withoutKey(edited.Children, childKey)
	t.Elements[parentKey] = edited
	cloneAncestors(t, parentKey)
}

// removeCopyOnWrite is the patch-path counterpart of RemoveNode: same deep
// removal, but on a fresh tree version.
func removeCopyOnWrite(t *Tree, key string) *Tree {
	el := t.Elements[key]
	if el == nil {
		return t
	}
	next := t.cloneShallow()
	if el.ParentKey != "" {
		if parent := next.Elements[el.ParentKey]; parent != nil && containsKey(parent.Children, key) {
			edited := cloneElement(parent)
			edited.Children = withoutKey(edited.Children, key)
			next.Elements[el.ParentKey] = edited
			cloneAncestors(next, el.ParentKey)
		}
	}
	deleteSubtree(next, key)
	if next.Root == key {
		next.Root = ""
	}
	return next
}

// deleteSubtree removes key and every descendant from the element map. The
// caller is responsible for detaching key from its former parent.
func deleteSubtree(t *Tree, key string) {
	el := t.Elements[key]
	if el == nil {
		return
	}
	for _, child := range el.Children {
		deleteSubtree(t, child)
	}
	delete(t.Elements, key)
}

// cloneAncestors re-allocates every element on the parent chain above key so
// that a version change anywhere in a subtree is visible, by reference, on
// each ancestor. The walk is bounded by the map size to stay safe against
// corrupted parent links.
func cloneAncestors(t *Tree, key string) {
	el := t.Elements[key]
	if el == nil {
		return
	}
	for steps := 0; steps <= len(t.Elements); steps++ {
		parentKey := el.ParentKey
		if parentKey == "" {
			return
		}
		parent := t.Elements[parentKey]
		if parent == nil {
			return
		}
		cloned := cloneElement(parent)
		t.Elements[parentKey] = cloned
		el = cloned
	}
}

func elementFromValue(key string, value any) *Element {
	switch v := value.(type) {
	case *Element:
		el := cloneElement(v)
		el.Key = key
		return el
	case Element:
		el := cloneElement(&v)
		el.Key = key
		return el
	case map[string]any:
		el := &Element{Key: key}
		el.Type, _ = v["type"].(string)
		if props, ok := v["props"].(map[string]any); ok {
			el.Props = make(map[string]any, len(props))
			for k, val := range props {
				el.Props[k] = val
			}
		}
		if children, ok := v["children"].([]any); ok {
			el.Children = make([]string, 0, len(children))
			for _, c := range children {
				if childKey, ok := c.(string); ok && childKey != "" {
					el.Children = append(el.Children, childKey)
				}
			}
		} else if children, ok := v["children"].([]string); ok {
			el.Children = append([]string(nil), children...)
		}
		if parentKey, ok := v["parentKey"].(string); ok {
			el.ParentKey = parentKey
		}
		if visible, ok := v["visible"]; ok {
			el.Visible = visible
		}
		if layout, ok := v["layout"].(map[string]any); ok {
			el.Layout = layout
		}
		if editable, ok := v["editable"]; ok {
			el.Editable = editable
		}
		if locked, ok := v["locked"].(bool); ok {
			el.Locked = locked
		}
		return el
	}
	return nil
}

func splitPath(path string) []string {
	if path == "" || path == "/" {
		return nil
	}
	raw := strings.Split(strings.TrimPrefix(path, "/"), "/")
	segments := make([]string, 0, len(raw))
	for _, segment := range raw {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func withoutKey(keys []string, key string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

// Package tree owns the canonical streamed document: a root key plus a keyed
// element map. Patches are applied copy-on-write with structural sharing so a
// consumer can detect subtree changes by comparing element references across
// versions instead of deep-comparing values.
package tree

// Element is one node of the document. Key is unique and immutable for the
// element's lifetime; Children holds child keys in render order and every
// child's ParentKey points back at this element.
type Element struct {
	Key       string         `json:"key"`
	Type      string         `json:"type"`
	Props     map[string]any `json:"props"`
	Children  []string       `json:"children"`
	ParentKey string         `json:"parentKey,omitempty"`
	Visible   any            `json:"visible,omitempty"`
	Layout    map[string]any `json:"layout,omitempty"`
	Editable  any            `json:"editable,omitempty"`
	Locked    bool           `json:"locked,omitempty"`
}

// Tree is one immutable version of the document. Root is "" while the
// document is empty; otherwise it names an element with no parent, and every
// element in the map is reachable from it.
type Tree struct {
	Root     string              `json:"root"`
	Elements map[string]*Element `json:"elements"`
}

func New() *Tree {
	return &Tree{Elements: map[string]*Element{}}
}

// Get returns the element for key, or nil.
func (t *Tree) Get(key string) *Element {
	if t == nil {
		return nil
	}
	return t.Elements[key]
}

// Len returns the number of elements in the map.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Elements)
}

// cloneShallow copies the tree handle and its element map while sharing every
// element pointer. Callers then replace only the elements they touch.
func (t *Tree) cloneShallow() *Tree {
	next := &Tree{Root: t.Root, Elements: make(map[string]*Element, len(t.Elements))}
	for key, el := range t.Elements {
		next.Elements[key] = el
	}
	return next
}

// cloneElement copies one element, including its props map and children
// slice, so the copy can be edited without touching the original version.
func cloneElement(el *Element) *Element {
	next := *el
	if el.Props != nil {
		next.Props = make(map[string]any, len(el.Props))
		for k, v := range el.Props {
			next.Props[k] = v
		}
	}
	if el.Children != nil {
		next.Children = append([]string(nil), el.Children...)
	}
	if el.Layout != nil {
		next.Layout = make(map[string]any, len(el.Layout))
		for k, v := range el.Layout {
			next.Layout[k] = v
		}
	}
	return &next
}

// DeepCopy duplicates the tree and every element in it. Used for history
// snapshots, which must not alias live versions.
func (t *Tree) DeepCopy() *Tree {
	if t == nil {
		return nil
	}
	next := &Tree{Root: t.Root, Elements: make(map[string]*Element, len(t.Elements))}
	for key, el := range t.Elements {
		next.Elements[key] = cloneElement(el)
	}
	return next
}

// isAncestor reports whether candidate is key itself or one of its ancestors,
// walking ParentKey links. Used to refuse cycle-forming child links.
func (t *Tree) isAncestor(candidate, key string) bool {
	for cur := key; cur != ""; {
		if cur == candidate {
			return true
		}
		el := t.Elements[cur]
		if el == nil {
			return false
		}
		cur = el.ParentKey
	}
	return false
}

package tree

import (
	"reflect"
	"testing"

	"canvas/internal/patch"
)

func applyAll(t *Tree, patches ...patch.Patch) *Tree {
	for _, p := range patches {
		t = Apply(t, p)
	}
	return t
}

func TestApplyBuildsTreeFromStream(t *testing.T) {
	tr := applyAll(New(),
		patch.Patch{Op: patch.OpSet, Path: "/root", Value: "dashboard"},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/dashboard", Value: map[string]any{
			"type": "Container", "props": map[string]any{"title": "Q3"},
		}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/card", Value: map[string]any{
			"type": "Card", "parentKey": "dashboard",
		}},
	)

	if tr.Root != "dashboard" {
		t.Fatalf("root = %q, want dashboard", tr.Root)
	}
	dashboard := tr.Get("dashboard")
	if dashboard == nil || dashboard.Type != "Container" {
		t.Fatalf("dashboard = %#v", dashboard)
	}
	if !reflect.DeepEqual(dashboard.Children, []string{"card"}) {
		t.Fatalf("dashboard children = %#v", dashboard.Children)
	}
	card := tr.Get("card")
	if card == nil || card.ParentKey != "dashboard" {
		t.Fatalf("card = %#v", card)
	}
}

func TestApplyChildAppendLinksBothDirections(t *testing.T) {
	tr := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/row", Value: map[string]any{"type": "Row"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/cell", Value: map[string]any{"type": "Cell"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/row/children/-", Value: "cell"},
	)
	if !reflect.DeepEqual(tr.Get("row").Children, []string{"cell"}) {
		t.Fatalf("row children = %#v", tr.Get("row").Children)
	}
	if tr.Get("cell").ParentKey != "row" {
		t.Fatalf("cell parentKey = %q", tr.Get("cell").ParentKey)
	}
}

func TestApplyChildAppendSurvivesBatchBoundary(t *testing.T) {
	// Parent arrives in one batch, the append lands in the next one. The
	// append must still resolve against the already-applied version.
	tr := Apply(New(), patch.Patch{Op: patch.OpAdd, Path: "/elements/list", Value: map[string]any{"type": "List"}})
	tr = Apply(tr, patch.Patch{Op: patch.OpAdd, Path: "/elements/list/children/-", Value: "item-1"})
	tr = Apply(tr, patch.Patch{Op: patch.OpAdd, Path: "/elements/list/children/-", Value: "item-2"})
	if !reflect.DeepEqual(tr.Get("list").Children, []string{"item-1", "item-2"}) {
		t.Fatalf("list children = %#v", tr.Get("list").Children)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpSet, Path: "/root", Value: "a"},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/a", Value: map[string]any{"type": "Box"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/b", Value: map[string]any{"type": "Box", "parentKey": "a"}},
	)
	before := base.DeepCopy()

	next := Apply(base, patch.Patch{Op: patch.OpSet, Path: "/elements/b/props/label", Value: "x"})
	if next == base {
		t.Fatalf("expected a fresh tree version")
	}
	if !reflect.DeepEqual(base, before) {
		t.Fatalf("input tree mutated:\nbefore %#v\nafter  %#v", before, base)
	}
	if next.Get("b").Props["label"] != "x" {
		t.Fatalf("edit missing on new version: %#v", next.Get("b"))
	}
}

func TestApplySharesUntouchedElements(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpSet, Path: "/root", Value: "root"},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/root", Value: map[string]any{"type": "Container"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/left", Value: map[string]any{"type": "Pane", "parentKey": "root"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/right", Value: map[string]any{"type": "Pane", "parentKey": "root"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/leaf", Value: map[string]any{"type": "Text", "parentKey": "left"}},
	)

	next := Apply(base, patch.Patch{Op: patch.OpSet, Path: "/elements/leaf/props/text", Value: "hi"})

	if next.Get("right") != base.Get("right") {
		t.Fatalf("untouched sibling was re-allocated")
	}
	// Edited element and its whole ancestor chain get fresh objects so the
	// change is detectable by reference at every level.
	for _, key := range []string{"leaf", "left", "root"} {
		if next.Get(key) == base.Get(key) {
			t.Fatalf("%s should be a new object after a descendant edit", key)
		}
	}
}

func TestApplyReplaceElementKeepsStructure(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/panel", Value: map[string]any{"type": "Panel"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/child", Value: map[string]any{"type": "Text", "parentKey": "panel"}},
	)
	next := Apply(base, patch.Patch{Op: patch.OpReplace, Path: "/elements/child", Value: map[string]any{
		"type": "Heading", "props": map[string]any{"level": float64(2)},
	}})

	child := next.Get("child")
	if child.Type != "Heading" || child.Props["level"] != float64(2) {
		t.Fatalf("replace did not land: %#v", child)
	}
	if child.ParentKey != "panel" {
		t.Fatalf("replace orphaned the element: parentKey = %q", child.ParentKey)
	}
	if !reflect.DeepEqual(next.Get("panel").Children, []string{"child"}) {
		t.Fatalf("panel children = %#v", next.Get("panel").Children)
	}
}

func TestApplyPropRemove(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/card", Value: map[string]any{
			"type": "Card", "props": map[string]any{"title": "t", "badge": "new"},
		}},
	)
	next := Apply(base, patch.Patch{Op: patch.OpRemove, Path: "/elements/card/props/badge"})
	if _, ok := next.Get("card").Props["badge"]; ok {
		t.Fatalf("badge prop should be gone: %#v", next.Get("card").Props)
	}
	if next.Get("card").Props["title"] != "t" {
		t.Fatalf("unrelated prop lost: %#v", next.Get("card").Props)
	}
	// Removing an absent prop is a no-op on the same version.
	if again := Apply(next, patch.Patch{Op: patch.OpRemove, Path: "/elements/card/props/badge"}); again != next {
		t.Fatalf("absent-prop remove should return the input version")
	}
}

func TestApplyChildIndexOps(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/row", Value: map[string]any{"type": "Row"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/a", Value: map[string]any{"type": "Cell"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/b", Value: map[string]any{"type": "Cell"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/c", Value: map[string]any{"type": "Cell"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/row/children/-", Value: "a"},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/row/children/-", Value: "c"},
	)

	inserted := Apply(base, patch.Patch{Op: patch.OpAdd, Path: "/elements/row/children/1", Value: "b"})
	if !reflect.DeepEqual(inserted.Get("row").Children, []string{"a", "b", "c"}) {
		t.Fatalf("indexed insert: %#v", inserted.Get("row").Children)
	}

	removed := Apply(inserted, patch.Patch{Op: patch.OpRemove, Path: "/elements/row/children/1"})
	if !reflect.DeepEqual(removed.Get("row").Children, []string{"a", "c"}) {
		t.Fatalf("indexed remove: %#v", removed.Get("row").Children)
	}
	if removed.Get("b") != nil {
		t.Fatalf("removed child should leave the element map")
	}
}

func TestApplyChildReplaceDeletesDisplacedSubtree(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/slot", Value: map[string]any{"type": "Slot"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/old", Value: map[string]any{"type": "Box", "parentKey": "slot"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/old-leaf", Value: map[string]any{"type": "Text", "parentKey": "old"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/new", Value: map[string]any{"type": "Box"}},
	)
	next := Apply(base, patch.Patch{Op: patch.OpReplace, Path: "/elements/slot/children/0", Value: "new"})
	if !reflect.DeepEqual(next.Get("slot").Children, []string{"new"}) {
		t.Fatalf("slot children = %#v", next.Get("slot").Children)
	}
	if next.Get("old") != nil || next.Get("old-leaf") != nil {
		t.Fatalf("displaced subtree survived: old=%v leaf=%v", next.Get("old"), next.Get("old-leaf"))
	}
	if next.Get("new").ParentKey != "slot" {
		t.Fatalf("new child not relinked: %#v", next.Get("new"))
	}
}

func TestApplyRejectsCycleFormingLinks(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/top", Value: map[string]any{"type": "Box"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/mid", Value: map[string]any{"type": "Box", "parentKey": "top"}},
	)
	// Appending an ancestor under its own descendant must be refused.
	next := Apply(base, patch.Patch{Op: patch.OpAdd, Path: "/elements/mid/children/-", Value: "top"})
	if next != base {
		t.Fatalf("cycle-forming append should be a no-op")
	}
	// Self-parenting likewise.
	next = Apply(base, patch.Patch{Op: patch.OpAdd, Path: "/elements/top/children/-", Value: "top"})
	if next != base {
		t.Fatalf("self-append should be a no-op")
	}
}

func TestApplyChildAppendMovesChildBetweenParents(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/p1", Value: map[string]any{"type": "Box"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/p2", Value: map[string]any{"type": "Box"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/c", Value: map[string]any{"type": "Text", "parentKey": "p1"}},
	)
	next := Apply(base, patch.Patch{Op: patch.OpAdd, Path: "/elements/p2/children/-", Value: "c"})

	if len(next.Get("p1").Children) != 0 {
		t.Fatalf("old parent still lists the moved child: %#v", next.Get("p1").Children)
	}
	if !reflect.DeepEqual(next.Get("p2").Children, []string{"c"}) {
		t.Fatalf("new parent children = %#v", next.Get("p2").Children)
	}
	if next.Get("c").ParentKey != "p2" {
		t.Fatalf("child parentKey = %q", next.Get("c").ParentKey)
	}
	// The input version still shows the original placement.
	if !reflect.DeepEqual(base.Get("p1").Children, []string{"c"}) {
		t.Fatalf("input version mutated: %#v", base.Get("p1").Children)
	}
}

func TestApplyElementReplaceMovesChildBetweenParents(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/p1", Value: map[string]any{"type": "Box"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/p2", Value: map[string]any{"type": "Box"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/c", Value: map[string]any{"type": "Text", "parentKey": "p1"}},
	)
	next := Apply(base, patch.Patch{Op: patch.OpReplace, Path: "/elements/c", Value: map[string]any{
		"type": "Text", "parentKey": "p2",
	}})

	if len(next.Get("p1").Children) != 0 {
		t.Fatalf("old parent still lists the moved child: %#v", next.Get("p1").Children)
	}
	if !reflect.DeepEqual(next.Get("p2").Children, []string{"c"}) {
		t.Fatalf("new parent children = %#v", next.Get("p2").Children)
	}
	if next.Get("c").ParentKey != "p2" {
		t.Fatalf("child parentKey = %q", next.Get("c").ParentKey)
	}
}

func TestApplyChildSetMovesChildBetweenParents(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/p1", Value: map[string]any{"type": "Box"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/p2", Value: map[string]any{"type": "Box"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/c", Value: map[string]any{"type": "Text", "parentKey": "p1"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/slot", Value: map[string]any{"type": "Box", "parentKey": "p2"}},
	)
	next := Apply(base, patch.Patch{Op: patch.OpReplace, Path: "/elements/p2/children/0", Value: "c"})

	if len(next.Get("p1").Children) != 0 {
		t.Fatalf("old parent still lists the moved child: %#v", next.Get("p1").Children)
	}
	if !reflect.DeepEqual(next.Get("p2").Children, []string{"c"}) {
		t.Fatalf("new parent children = %#v", next.Get("p2").Children)
	}
	if next.Get("c").ParentKey != "p2" {
		t.Fatalf("child parentKey = %q", next.Get("c").ParentKey)
	}
}

func TestApplyReplaceWithUnknownParentKeepsOldLink(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/p1", Value: map[string]any{"type": "Box"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/c", Value: map[string]any{"type": "Text", "parentKey": "p1"}},
	)
	next := Apply(base, patch.Patch{Op: patch.OpReplace, Path: "/elements/c", Value: map[string]any{
		"type": "Text", "parentKey": "ghost",
	}})

	if next.Get("c").ParentKey != "p1" {
		t.Fatalf("bogus parent should leave the old link: %q", next.Get("c").ParentKey)
	}
	if !reflect.DeepEqual(next.Get("p1").Children, []string{"c"}) {
		t.Fatalf("p1 children = %#v", next.Get("p1").Children)
	}
}

func TestApplyRemoveElement(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpSet, Path: "/root", Value: "root"},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/root", Value: map[string]any{"type": "Container"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/section", Value: map[string]any{"type": "Section", "parentKey": "root"}},
		patch.Patch{Op: patch.OpAdd, Path: "/elements/leaf", Value: map[string]any{"type": "Text", "parentKey": "section"}},
	)
	next := Apply(base, patch.Patch{Op: patch.OpRemove, Path: "/elements/section"})
	if next.Get("section") != nil || next.Get("leaf") != nil {
		t.Fatalf("removal should take the subtree with it")
	}
	if len(next.Get("root").Children) != 0 {
		t.Fatalf("root still lists removed child: %#v", next.Get("root").Children)
	}
	// Input version is untouched.
	if base.Get("section") == nil || base.Get("leaf") == nil {
		t.Fatalf("input version mutated by remove")
	}

	rootGone := Apply(next, patch.Patch{Op: patch.OpRemove, Path: "/elements/root"})
	if rootGone.Root != "" || rootGone.Len() != 0 {
		t.Fatalf("removing the root element should empty the tree: %#v", rootGone)
	}
}

func TestApplyIgnoresGarbage(t *testing.T) {
	base := applyAll(New(),
		patch.Patch{Op: patch.OpAdd, Path: "/elements/a", Value: map[string]any{"type": "Box"}},
	)
	cases := []patch.Patch{
		{Op: patch.OpSet, Path: "", Value: "x"},
		{Op: patch.OpSet, Path: "/unknown", Value: "x"},
		{Op: patch.OpSet, Path: "/root", Value: 42},
		{Op: patch.OpSet, Path: "/elements/a", Value: "not an element"},
		{Op: patch.OpSet, Path: "/elements/missing/props/x", Value: 1},
		{Op: patch.OpAdd, Path: "/elements/a/children/7", Value: "b"},
		{Op: patch.OpAdd, Path: "/elements/a/children/-", Value: 12},
		{Op: patch.OpRemove, Path: "/elements/a/children/0"},
		{Op: patch.OpSet, Path: "/elements/a/children/nope", Value: "b"},
	}
	for _, p := range cases {
		if next := Apply(base, p); next != base {
			t.Fatalf("patch %#v should be a no-op", p)
		}
	}
	if Apply(nil, patch.Patch{Op: patch.OpSet, Path: "/root", Value: "r"}) == nil {
		t.Fatalf("nil tree input should still yield a tree")
	}
}

func TestApplyParentlessLinkDegrades(t *testing.T) {
	// parentKey naming an element that does not exist yet: the element lands
	// unparented rather than being dropped.
	tr := Apply(New(), patch.Patch{Op: patch.OpAdd, Path: "/elements/orphan", Value: map[string]any{
		"type": "Box", "parentKey": "ghost",
	}})
	orphan := tr.Get("orphan")
	if orphan == nil {
		t.Fatalf("element should still be registered")
	}
	if orphan.ParentKey != "" {
		t.Fatalf("dangling parent link kept: %q", orphan.ParentKey)
	}
}

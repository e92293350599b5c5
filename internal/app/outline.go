package app

import (
	"encoding/json"
	"fmt"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"

	"canvas/internal/tree"
)

type outlineRow struct {
	key    string
	depth  int
	typ    string
	label  string
	locked bool
}

// buildOutline flattens the tree into display rows by depth-first walk from
// the root. Elements not reachable from the root never show up, matching the
// tree's own reachability invariant.
func buildOutline(t *tree.Tree) []outlineRow {
	if t == nil || t.Root == "" {
		return nil
	}
	rows := make([]outlineRow, 0, t.Len())
	var walk func(key string, depth int)
	walk = func(key string, depth int) {
		el := t.Get(key)
		if el == nil {
			return
		}
		rows = append(rows, outlineRow{
			key:    el.Key,
			depth:  depth,
			typ:    el.Type,
			label:  elementLabel(el),
			locked: el.Locked,
		})
		for _, child := range el.Children {
			walk(child, depth+1)
		}
	}
	walk(t.Root, 0)
	return rows
}

// elementLabel picks a human-readable descriptor out of the props.
func elementLabel(el *tree.Element) string {
	for _, prop := range []string{"title", "label", "text", "name"} {
		if value, ok := el.Props[prop].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func renderOutline(rows []outlineRow, selected, width int) string {
	if len(rows) == 0 {
		return helpStyle.Render("Empty document.")
	}
	var b strings.Builder
	for i, row := range rows {
		indent := strings.Repeat("  ", row.depth)
		typ := row.typ
		if typ == "" {
			typ = "?"
		}
		line := indent + typeStyle.Render(typ)
		if row.label != "" {
			line += " " + elementStyle.Render(row.label)
		}
		line += " " + keyStyle.Render("("+row.key+")")
		if row.locked {
			line += " " + lockedStyle.Render("locked")
		}
		// Styled lines carry escape sequences, so width math must be
		// ANSI-aware or the truncation counts invisible bytes.
		line = xansi.Truncate(line, max(1, width), "…")
		if i == selected {
			line = selectedStyle.Render(xansi.Truncate(
				fmt.Sprintf("%s%s %s (%s)", indent, typ, row.label, row.key), max(1, width), "…"))
		}
		b.WriteString(line)
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// subtreeJSON serializes the selected element and its descendants, in
// outline order, for clipboard export.
func subtreeJSON(t *tree.Tree, key string) (string, error) {
	el := t.Get(key)
	if el == nil {
		return "", fmt.Errorf("no element %q", key)
	}
	var elements []*tree.Element
	var walk func(key string)
	walk = func(key string) {
		el := t.Get(key)
		if el == nil {
			return
		}
		elements = append(elements, el)
		for _, child := range el.Children {
			walk(child)
		}
	}
	walk(key)
	data, err := json.MarshalIndent(elements, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

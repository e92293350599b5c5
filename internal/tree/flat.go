package tree

import "encoding/json"

// FlatElement is one entry of the flattened document form. ParentKeySet
// distinguishes an explicit `"parentKey": null` from a field that was simply
// absent: only the explicit null marks a root candidate.
type FlatElement struct {
	Key          string         `json:"key"`
	Type         string         `json:"type"`
	Props        map[string]any `json:"props"`
	Children     []string       `json:"children"`
	ParentKey    string         `json:"-"`
	ParentKeySet bool           `json:"-"`
	Visible      any            `json:"visible,omitempty"`
	Layout       map[string]any `json:"layout,omitempty"`
	Editable     any            `json:"editable,omitempty"`
	Locked       bool           `json:"locked,omitempty"`
}

func (f *FlatElement) UnmarshalJSON(data []byte) error {
	type alias FlatElement
	var decoded struct {
		alias
		ParentKey *string         `json:"parentKey"`
		Raw       json.RawMessage `json:"-"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*f = FlatElement(decoded.alias)
	if _, present := keys["parentKey"]; present {
		f.ParentKeySet = true
		if decoded.ParentKey != nil {
			f.ParentKey = *decoded.ParentKey
		}
	}
	return nil
}

func (f FlatElement) MarshalJSON() ([]byte, error) {
	type alias FlatElement
	out := struct {
		alias
		ParentKey *string `json:"parentKey"`
	}{alias: alias(f)}
	if f.ParentKeySet && f.ParentKey != "" {
		out.ParentKey = &f.ParentKey
	}
	return json.Marshal(out)
}

// FromFlat rebuilds a tree from its flattened form in two passes: the first
// registers every element with empty children, the second links each element
// carrying a parent into that parent's children. An element becomes the root
// candidate only through an explicit null parentKey; when the input names
// several such elements the last one wins, which mirrors the upstream
// protocol's behavior and is relied on by replays of recorded streams.
func FromFlat(flat []FlatElement) *Tree {
	t := New()
	for _, entry := range flat {
		if entry.Key == "" {
			continue
		}
		el := &Element{
			Key:      entry.Key,
			Type:     entry.Type,
			Children: []string{},
			Visible:  entry.Visible,
			Layout:   entry.Layout,
			Editable: entry.Editable,
			Locked:   entry.Locked,
		}
		if entry.Props != nil {
			el.Props = make(map[string]any, len(entry.Props))
			for k, v := range entry.Props {
				el.Props[k] = v
			}
		} else {
			el.Props = map[string]any{}
		}
		t.Elements[entry.Key] = el
	}
	for _, entry := range flat {
		if entry.Key == "" || t.Elements[entry.Key] == nil {
			continue
		}
		if !entry.ParentKeySet {
			continue
		}
		if entry.ParentKey == "" {
			// Explicit null parent: root candidate, last one wins.
			t.Root = entry.Key
			continue
		}
		parent := t.Elements[entry.ParentKey]
		if parent == nil || t.isAncestor(entry.Key, entry.ParentKey) {
			continue
		}
		child := t.Elements[entry.Key]
		child.ParentKey = entry.ParentKey
		if !containsKey(parent.Children, entry.Key) {
			parent.Children = append(parent.Children, entry.Key)
		}
	}
	return t
}

// Flatten produces the flattened form by depth-first traversal from the
// root. Elements unreachable from the root are not emitted.
func (t *Tree) Flatten() []FlatElement {
	if t == nil || t.Root == "" {
		return nil
	}
	out := make([]FlatElement, 0, len(t.Elements))
	var walk func(key string, explicitNull bool)
	walk = func(key string, explicitNull bool) {
		el := t.Elements[key]
		if el == nil {
			return
		}
		entry := FlatElement{
			Key:          el.Key,
			Type:         el.Type,
			Props:        el.Props,
			ParentKey:    el.ParentKey,
			ParentKeySet: true,
			Visible:      el.Visible,
			Layout:       el.Layout,
			Editable:     el.Editable,
			Locked:       el.Locked,
		}
		if explicitNull {
			entry.ParentKey = ""
		}
		out = append(out, entry)
		for _, child := range el.Children {
			walk(child, false)
		}
	}
	walk(t.Root, true)
	return out
}

// Package patch normalizes the heterogeneous edit payloads carried by the
// stream into one canonical record and batches them for application. All
// shape-sniffing of the wire payloads lives here; nothing downstream ever
// sees a tuple or a nested domain object.
package patch

// Op is a canonical tree edit operation.
type Op string

const (
	OpSet     Op = "set"
	OpAdd     Op = "add"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
)

// Patch is a JSON-Pointer-style edit against the document tree.
type Patch struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// OperationKind discriminates what a classified payload turned out to be.
type OperationKind string

const (
	OperationPatch      OperationKind = "patch"
	OperationMessage    OperationKind = "message"
	OperationQuestion   OperationKind = "question"
	OperationSuggestion OperationKind = "suggestion"
	OperationUnknown    OperationKind = "unknown"
)

// Operation is the classifier output: either a canonical Patch or a
// conversational payload that arrived on the patch channel.
type Operation struct {
	Kind    OperationKind
	Patch   *Patch
	Role    string
	Content string
}

// Classify converts one raw patch payload into an Operation. Three wire
// shapes are accepted: the tuple form [op, path, value], the flat object
// form {op, path, value}, and nested domain objects such as
// {op: "message", role, content}. Anything else is OperationUnknown; the
// function never panics on malformed input.
func Classify(raw any) Operation {
	switch v := raw.(type) {
	case []any:
		return classifyTuple(v)
	case map[string]any:
		return classifyObject(v)
	}
	return Operation{Kind: OperationUnknown}
}

func classifyTuple(tuple []any) Operation {
	if len(tuple) < 2 {
		return Operation{Kind: OperationUnknown}
	}
	op, _ := tuple[0].(string)
	path, _ := tuple[1].(string)
	if !validOp(op) || path == "" {
		return Operation{Kind: OperationUnknown}
	}
	var value any
	if len(tuple) > 2 {
		value = tuple[2]
	}
	return Operation{Kind: OperationPatch, Patch: &Patch{Op: Op(op), Path: path, Value: value}}
}

func classifyObject(obj map[string]any) Operation {
	op, _ := obj["op"].(string)
	switch op {
	case "set", "add", "replace", "remove":
		path, _ := obj["path"].(string)
		if path == "" {
			return Operation{Kind: OperationUnknown}
		}
		return Operation{Kind: OperationPatch, Patch: &Patch{Op: Op(op), Path: path, Value: obj["value"]}}
	case "message":
		role, _ := obj["role"].(string)
		if role == "" {
			role = "assistant"
		}
		content, _ := obj["content"].(string)
		return Operation{Kind: OperationMessage, Role: role, Content: content}
	case "question":
		content, _ := obj["content"].(string)
		if content == "" {
			content, _ = obj["prompt"].(string)
		}
		return Operation{Kind: OperationQuestion, Role: "assistant", Content: content}
	case "suggestion":
		content, _ := obj["content"].(string)
		if content == "" {
			content, _ = obj["text"].(string)
		}
		return Operation{Kind: OperationSuggestion, Role: "assistant", Content: content}
	}
	return Operation{Kind: OperationUnknown}
}

func validOp(op string) bool {
	switch Op(op) {
	case OpSet, OpAdd, OpReplace, OpRemove:
		return true
	}
	return false
}

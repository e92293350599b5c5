package wire

import (
	"encoding/json"
	"strings"

	"canvas/internal/logging"
)

// Data-channel tags, one per line. The text-delta channel carries a bare JSON
// string, the data-event channel carries the {sequence, event} envelope, and
// the done channel terminates the stream.
const (
	tagTextDelta = "0"
	tagDataEvent = "2"
	tagDone      = "d"
)

const doneMarker = "[DONE]"

// Parser decodes one stream line into a typed event. It never returns an
// error: malformed input is logged and dropped so the stream keeps flowing.
type Parser struct {
	log logging.Logger
}

func NewParser(log logging.Logger) *Parser {
	if log == nil {
		log = logging.Nop()
	}
	return &Parser{log: log}
}

// ParseLine decodes a single `tag:payload` line. It returns nil for blank
// lines, unrecognized tags, undecodable JSON, and frames that fail the wire
// schema; none of those stop the stream.
func (p *Parser) ParseLine(line string) *StreamEvent {
	line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	idx := strings.Index(line, ":")
	if idx <= 0 {
		p.log.Debug("stream line without tag", logging.F("line", clip(line)))
		return nil
	}
	tag, payload := line[:idx], line[idx+1:]

	switch tag {
	case tagTextDelta:
		var text string
		if err := json.Unmarshal([]byte(payload), &text); err != nil {
			p.log.Warn("text delta decode failed", logging.F("err", err))
			return nil
		}
		return &StreamEvent{Kind: KindTextDelta, Text: text}
	case tagDone:
		// Payload is either the literal end marker or a terminal JSON blob;
		// both mean the same thing.
		return &StreamEvent{Kind: KindDone}
	case tagDataEvent:
		if strings.TrimSpace(payload) == doneMarker {
			return &StreamEvent{Kind: KindDone}
		}
		return p.parseFrame(payload)
	default:
		p.log.Debug("unrecognized stream tag", logging.F("tag", tag))
		return nil
	}
}

type frameEnvelope struct {
	Sequence int            `json:"sequence"`
	Event    map[string]any `json:"event"`
}

func (p *Parser) parseFrame(payload string) *StreamEvent {
	var frame frameEnvelope
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		p.log.Warn("wire frame decode failed", logging.F("err", err))
		return nil
	}
	event, issues := validateFrame(frame)
	if len(issues) > 0 {
		p.log.Warn("wire frame rejected",
			logging.F("issues", strings.Join(issues, "; ")),
			logging.F("sequence", frame.Sequence))
		return nil
	}
	return event
}

// validateFrame checks the decoded envelope against the wire schema and
// builds the typed event. A non-empty issue list means the frame is dropped.
func validateFrame(frame frameEnvelope) (*StreamEvent, []string) {
	if frame.Event == nil {
		return nil, []string{"event object is missing"}
	}
	kind, _ := frame.Event["kind"].(string)
	if strings.TrimSpace(kind) == "" {
		return nil, []string{"event.kind is missing"}
	}

	event := &StreamEvent{Sequence: frame.Sequence}
	var issues []string

	switch kind {
	case "control":
		action, _ := frame.Event["action"].(string)
		if action == "" {
			issues = append(issues, "control event without action")
			break
		}
		if !knownControlAction(ControlAction(action)) {
			issues = append(issues, "unknown control action "+action)
			break
		}
		event.Kind = KindControl
		event.Action = ControlAction(action)
		if data, ok := frame.Event["data"].(map[string]any); ok {
			event.Data = data
		}
	case "progress":
		tool, _ := frame.Event["tool"].(string)
		phase, _ := frame.Event["phase"].(string)
		if tool == "" && phase == "" {
			issues = append(issues, "progress event without tool or phase")
			break
		}
		detail, _ := frame.Event["detail"].(string)
		event.Kind = KindToolProgress
		event.Progress = &ToolProgress{Tool: tool, Phase: phase, Detail: detail}
	case "message":
		content, ok := frame.Event["content"].(string)
		if !ok {
			issues = append(issues, "message event without string content")
			break
		}
		role, _ := frame.Event["role"].(string)
		if role == "" {
			role = "assistant"
		}
		event.Kind = KindMessage
		event.Message = &Message{Role: role, Content: content}
	case "patch":
		raw := unwrapPatchPayload(frame.Event)
		if raw == nil {
			issues = append(issues, "patch event without patch payload")
			break
		}
		if !usablePatch(raw) {
			// Malformed patches are suppressed here rather than handed on,
			// so downstream only ever sees candidates worth classifying.
			issues = append(issues, "patch payload missing usable op/path")
			break
		}
		event.Kind = KindPatch
		event.RawPatch = raw
	case "error":
		message, _ := frame.Event["message"].(string)
		if message == "" {
			issues = append(issues, "error event without message")
			break
		}
		code, _ := frame.Event["code"].(string)
		recoverable, _ := frame.Event["recoverable"].(bool)
		event.Kind = KindError
		event.Err = &StreamError{Code: code, Message: message, Recoverable: recoverable}
	case "done":
		event.Kind = KindDone
	default:
		event.Kind = KindUnknown
	}

	if issues != nil {
		return nil, issues
	}
	return event, nil
}

// unwrapPatchPayload extracts the raw patch from either the singular `patch`
// field or the first entry of a `patches` array.
func unwrapPatchPayload(event map[string]any) any {
	if raw, ok := event["patch"]; ok && raw != nil {
		return raw
	}
	if list, ok := event["patches"].([]any); ok && len(list) > 0 {
		return list[0]
	}
	return nil
}

// usablePatch reports whether the raw payload carries enough structure for
// the classifier to work with: tree ops need a non-empty path, conversational
// ops just need their op tag.
func usablePatch(raw any) bool {
	switch v := raw.(type) {
	case []any:
		if len(v) < 2 {
			return false
		}
		op, _ := v[0].(string)
		path, _ := v[1].(string)
		return treeOp(op) && path != ""
	case map[string]any:
		op, _ := v["op"].(string)
		if op == "" {
			return false
		}
		if treeOp(op) {
			path, _ := v["path"].(string)
			return path != ""
		}
		switch op {
		case "message", "question", "suggestion":
			return true
		}
		return false
	}
	return false
}

func treeOp(op string) bool {
	switch op {
	case "set", "add", "replace", "remove":
		return true
	}
	return false
}

func clip(line string) string {
	const max = 120
	if len(line) <= max {
		return line
	}
	return line[:max] + "…"
}

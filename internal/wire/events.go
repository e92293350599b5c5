package wire

// EventKind discriminates the stream event union. An event is produced once
// per parsed line, handed to the dispatcher, and never retained.
type EventKind string

const (
	KindTextDelta    EventKind = "text-delta"
	KindMessage      EventKind = "message"
	KindQuestion     EventKind = "question"
	KindSuggestion   EventKind = "suggestion"
	KindToolProgress EventKind = "tool-progress"
	KindPatch        EventKind = "patch"
	KindControl      EventKind = "control"
	KindError        EventKind = "error"
	KindDone         EventKind = "done"
	KindUnknown      EventKind = "unknown"
)

// ControlAction enumerates the orchestration lifecycle markers carried by
// control events.
type ControlAction string

const (
	ControlStart                ControlAction = "start"
	ControlPersistedAttachments ControlAction = "persisted-attachments"
	ControlPlanCreated          ControlAction = "plan-created"
	ControlStepStarted          ControlAction = "step-started"
	ControlStepDone             ControlAction = "step-done"
	ControlSubtaskStarted       ControlAction = "subtask-started"
	ControlSubtaskDone          ControlAction = "subtask-done"
	ControlLevelStarted         ControlAction = "level-started"
	ControlLevelCompleted       ControlAction = "level-completed"
	ControlOrchestrationDone    ControlAction = "orchestration-done"
	ControlDocumentIndexUI      ControlAction = "document-index-ui"
	ControlCitations            ControlAction = "citations"
)

func knownControlAction(action ControlAction) bool {
	switch action {
	case ControlStart, ControlPersistedAttachments, ControlPlanCreated,
		ControlStepStarted, ControlStepDone, ControlSubtaskStarted,
		ControlSubtaskDone, ControlLevelStarted, ControlLevelCompleted,
		ControlOrchestrationDone, ControlDocumentIndexUI, ControlCitations:
		return true
	}
	return false
}

// Message is a conversational payload (message, question, suggestion).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolProgress reports intermediate tool activity while the server works.
type ToolProgress struct {
	Tool   string `json:"tool"`
	Phase  string `json:"phase"`
	Detail string `json:"detail,omitempty"`
}

// StreamError carries an explicit protocol-level error from the server. The
// engine surfaces it untouched; recoverability is the caller's call.
type StreamError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// StreamEvent is the tagged union produced by the parser. Exactly the fields
// relevant to Kind are populated; everything else stays zero.
type StreamEvent struct {
	Kind     EventKind
	Sequence int

	// KindTextDelta
	Text string

	// KindMessage, KindQuestion, KindSuggestion
	Message *Message

	// KindToolProgress
	Progress *ToolProgress

	// KindPatch: the raw, not-yet-normalized patch payload. Normalization
	// into the canonical patch record happens in one place downstream.
	RawPatch any

	// KindControl
	Action ControlAction
	Data   map[string]any

	// KindError
	Err *StreamError
}

// Package engine wires the stream pipeline together: raw chunks go through
// the line buffer and frame parser, patch events are classified and batched,
// batches are applied to the canonical tree on scheduling boundaries, and new
// tree versions fan out to subscribers. One Engine serves one stream.
package engine

import (
	"sync"
	"time"

	"canvas/internal/history"
	"canvas/internal/logging"
	"canvas/internal/patch"
	"canvas/internal/tree"
	"canvas/internal/wire"
)

// State describes where the stream stands. A stream that closes without a
// done event ends Interrupted, never Done, so callers can decide to retry.
type State string

const (
	StateStreaming   State = "streaming"
	StateDone        State = "done"
	StateInterrupted State = "interrupted"
)

type Options struct {
	Logger logging.Logger

	// FlushInterval drives the periodic patch flush. Zero disables the
	// timer; the buffer then flushes on size and on explicit boundaries.
	FlushInterval time.Duration

	// MaxBatch is the pending-patch threshold that forces an early flush.
	MaxBatch int

	// HistoryLimit caps retained undo checkpoints. Zero means unbounded.
	HistoryLimit int
}

type Engine struct {
	mu sync.Mutex

	log    logging.Logger
	lines  *wire.LineBuffer
	parser *wire.Parser
	buffer *patch.Buffer
	hub    *treeHub
	hist   *history.History

	current      *tree.Tree
	conversation []history.Turn
	draft        string
	state        State
	lastErr      *wire.StreamError
	lastSeq      int

	stopFlush chan struct{}
	flushDone chan struct{}
}

func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	e := &Engine{
		log:     log,
		lines:   wire.NewLineBuffer(),
		parser:  wire.NewParser(log),
		buffer:  patch.NewBuffer(opts.MaxBatch, log),
		hub:     newTreeHub(),
		hist:    history.New(opts.HistoryLimit),
		current: tree.New(),
		state:   StateStreaming,
		lastSeq: -1,
	}
	if opts.FlushInterval > 0 {
		e.stopFlush = make(chan struct{})
		e.flushDone = make(chan struct{})
		go e.flushLoop(opts.FlushInterval)
	}
	return e
}

func (e *Engine) flushLoop(interval time.Duration) {
	defer close(e.flushDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.FlushPatches()
		case <-e.stopFlush:
			return
		}
	}
}

// ProcessChunk feeds one raw text chunk through the pipeline and returns the
// events parsed out of it, in arrival order. Patch events are queued for the
// next flush; conversational payloads that arrived on the patch channel come
// back retyped as message, question, or suggestion events.
func (e *Engine) ProcessChunk(text string) []wire.StreamEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var events []wire.StreamEvent
	for _, line := range e.lines.Add(text) {
		if event := e.processLine(line); event != nil {
			events = append(events, *event)
		}
	}
	return events
}

func (e *Engine) processLine(line string) *wire.StreamEvent {
	event := e.parser.ParseLine(line)
	if event == nil {
		return nil
	}
	if event.Sequence > 0 && e.lastSeq >= 0 && event.Sequence < e.lastSeq {
		e.log.Debug("out-of-order frame",
			logging.F("sequence", event.Sequence), logging.F("last", e.lastSeq))
	}
	if event.Sequence > e.lastSeq {
		e.lastSeq = event.Sequence
	}

	switch event.Kind {
	case wire.KindTextDelta:
		e.draft += event.Text
	case wire.KindMessage:
		e.recordMessage(event.Message)
	case wire.KindPatch:
		return e.dispatchPatch(event)
	case wire.KindError:
		e.lastErr = event.Err
		e.log.Warn("stream error event",
			logging.F("code", event.Err.Code),
			logging.F("recoverable", event.Err.Recoverable))
	case wire.KindDone:
		e.finishLocked(true)
	}
	return event
}

// dispatchPatch runs the classifier over the raw payload. Real patches are
// queued; domain payloads are converted into their conversational event.
func (e *Engine) dispatchPatch(event *wire.StreamEvent) *wire.StreamEvent {
	op := patch.Classify(event.RawPatch)
	switch op.Kind {
	case patch.OperationPatch:
		if e.buffer.Add(*op.Patch) {
			e.applyPending()
		}
		return event
	case patch.OperationMessage:
		message := &wire.Message{Role: op.Role, Content: op.Content}
		e.recordMessage(message)
		return &wire.StreamEvent{Kind: wire.KindMessage, Sequence: event.Sequence, Message: message}
	case patch.OperationQuestion:
		e.finalizeDraft()
		e.conversation = append(e.conversation, history.Turn{Role: op.Role, Content: op.Content})
		return &wire.StreamEvent{Kind: wire.KindQuestion, Sequence: event.Sequence,
			Message: &wire.Message{Role: op.Role, Content: op.Content}}
	case patch.OperationSuggestion:
		return &wire.StreamEvent{Kind: wire.KindSuggestion, Sequence: event.Sequence,
			Message: &wire.Message{Role: op.Role, Content: op.Content}}
	}
	e.log.Debug("unclassifiable patch payload dropped")
	return &wire.StreamEvent{Kind: wire.KindUnknown, Sequence: event.Sequence}
}

func (e *Engine) recordMessage(message *wire.Message) {
	if message == nil {
		return
	}
	if message.Role == "assistant" && e.draft != "" {
		// The delta stream was the in-progress view of this same message;
		// the complete event supersedes it.
		e.draft = ""
	} else {
		e.finalizeDraft()
	}
	e.conversation = append(e.conversation, history.Turn{Role: message.Role, Content: message.Content})
}

func (e *Engine) finalizeDraft() {
	if e.draft == "" {
		return
	}
	e.conversation = append(e.conversation, history.Turn{Role: "assistant", Content: e.draft})
	e.draft = ""
}

// FlushPatches applies the pending batch immediately and returns the current
// tree version. It is the explicit scheduling boundary; the interval timer
// calls it too.
func (e *Engine) FlushPatches() *tree.Tree {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyPending()
	return e.current
}

func (e *Engine) applyPending() {
	batch := e.buffer.Flush()
	if len(batch) == 0 {
		return
	}
	next := e.current
	for _, p := range batch {
		next = tree.Apply(next, p)
	}
	e.current = next
	e.log.Debug("patch batch applied",
		logging.F("patches", len(batch)), logging.F("elements", next.Len()))
	e.hub.Broadcast(next)
}

// Finish marks the end of input. The carry-over line fragment, if any, is
// parsed, pending patches are applied, and the terminal state records
// whether a done event was ever seen; raw closure without one ends
// Interrupted.
func (e *Engine) Finish(sawDone bool) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishLocked(sawDone)
	return e.state
}

func (e *Engine) finishLocked(sawDone bool) {
	if rest, ok := e.lines.Flush(); ok {
		// A final line may legally arrive without its newline.
		if event := e.parser.ParseLine(rest); event != nil && event.Kind == wire.KindDone {
			sawDone = true
		}
	}
	e.finalizeDraft()
	e.applyPending()
	if e.state != StateStreaming {
		return
	}
	if sawDone {
		e.state = StateDone
	} else {
		e.state = StateInterrupted
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Tree returns the current document version. Treat it as read-only; the next
// applied batch produces a new version rather than mutating this one.
func (e *Engine) Tree() *tree.Tree {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Engine) Conversation() []history.Turn {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]history.Turn(nil), e.conversation...)
}

// Draft returns the assistant text streamed so far for the message still in
// flight.
func (e *Engine) Draft() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

func (e *Engine) LastError() *wire.StreamError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Subscribe registers for tree versions produced by future flushes. The
// cancel func must be called to release the subscription.
func (e *Engine) Subscribe() (<-chan *tree.Tree, func()) {
	return e.hub.Add()
}

// PushHistory checkpoints the current tree and conversation. Checkpoints are
// caller-chosen boundaries, not per-patch.
func (e *Engine) PushHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyPending()
	e.hist.Push(e.current, e.conversation)
}

func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := e.hist.Undo()
	if snapshot == nil {
		return false
	}
	e.restore(snapshot)
	return true
}

func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := e.hist.Redo()
	if snapshot == nil {
		return false
	}
	e.restore(snapshot)
	return true
}

func (e *Engine) restore(snapshot *history.Snapshot) {
	e.current = snapshot.Tree
	e.conversation = snapshot.Conversation
	e.hub.Broadcast(e.current)
}

func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.CanUndo()
}

func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.CanRedo()
}

func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hist.Clear()
}

// Close stops the flush timer and closes all subscriber channels. The engine
// state remains readable afterwards.
func (e *Engine) Close() {
	if e.stopFlush != nil {
		close(e.stopFlush)
		<-e.flushDone
		e.stopFlush = nil
	}
	e.hub.Close()
}

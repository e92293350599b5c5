// Package history keeps caller-driven undo/redo checkpoints of the streamed
// document plus its conversation. Checkpoints are explicit: the engine never
// snapshots on its own, granularity belongs to the integrating application.
package history

import "canvas/internal/tree"

// Turn is one conversational exchange recorded alongside the document.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Snapshot is a fully detached copy of document and conversation state.
type Snapshot struct {
	Tree         *tree.Tree
	Conversation []Turn
}

// History is an ordered snapshot list with a cursor. Index -1 means nothing
// to undo. Pushing while the cursor sits before the end discards the redo
// tail, as editors do.
type History struct {
	entries []Snapshot
	index   int
	limit   int
}

// New returns an empty history. A positive limit caps retained snapshots;
// once full, the oldest checkpoint is dropped on push.
func New(limit int) *History {
	return &History{index: -1, limit: limit}
}

func (h *History) Push(t *tree.Tree, conversation []Turn) {
	snapshot := Snapshot{
		Tree:         t.DeepCopy(),
		Conversation: copyTurns(conversation),
	}
	h.entries = append(h.entries[:h.index+1], snapshot)
	h.index = len(h.entries) - 1
	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([]Snapshot(nil), h.entries[drop:]...)
		h.index -= drop
	}
}

// Undo returns the checkpoint at the cursor and steps the cursor back, or
// nil when there is nothing left to undo.
func (h *History) Undo() *Snapshot {
	if h.index < 0 {
		return nil
	}
	snapshot := h.entries[h.index]
	h.index--
	return detach(snapshot)
}

// Redo returns the checkpoint after the cursor and steps forward, or nil at
// the end of history.
func (h *History) Redo() *Snapshot {
	if h.index+1 >= len(h.entries) {
		return nil
	}
	h.index++
	return detach(h.entries[h.index])
}

func (h *History) Clear() {
	h.entries = nil
	h.index = -1
}

func (h *History) CanUndo() bool { return h.index >= 0 }

func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }

func (h *History) Len() int { return len(h.entries) }

// detach hands the caller copies so later undo/redo still sees the recorded
// state even if the caller mutates what it got back.
func detach(snapshot Snapshot) *Snapshot {
	return &Snapshot{
		Tree:         snapshot.Tree.DeepCopy(),
		Conversation: copyTurns(snapshot.Conversation),
	}
}

func copyTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	return append([]Turn(nil), turns...)
}

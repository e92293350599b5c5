package engine

import (
	"sync"

	"canvas/internal/tree"
)

type treeSubscriber struct {
	id int
	ch chan *tree.Tree
}

// treeHub fans freshly applied tree versions out to subscribers. Sends never
// block: a slow subscriber misses intermediate versions rather than stalling
// the stream, and can always catch up from the next broadcast.
type treeHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*treeSubscriber
}

func newTreeHub() *treeHub {
	return &treeHub{subs: make(map[int]*treeSubscriber)}
}

func (h *treeHub) Add() (<-chan *tree.Tree, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	ch := make(chan *tree.Tree, 64)
	h.subs[id] = &treeSubscriber{id: id, ch: ch}
	cancel := func() {
		h.mu.Lock()
		sub, ok := h.subs[id]
		if ok {
			delete(h.subs, id)
		}
		h.mu.Unlock()
		if ok {
			close(sub.ch)
		}
	}
	return ch, cancel
}

func (h *treeHub) Broadcast(version *tree.Tree) {
	if version == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- version:
		default:
		}
	}
}

func (h *treeHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}

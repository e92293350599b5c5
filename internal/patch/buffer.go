package patch

import (
	"sort"
	"strings"

	"canvas/internal/logging"
)

// DefaultMaxPending is the size threshold at which a Buffer reports that the
// caller should flush without waiting for the next scheduling boundary.
const DefaultMaxPending = 64

// Buffer collects normalized patches between scheduling boundaries and hands
// them out as one deterministically ordered batch. The handle is caller-owned
// state; there is no package-level queue.
type Buffer struct {
	log     logging.Logger
	max     int
	pending []Patch
}

func NewBuffer(max int, log logging.Logger) *Buffer {
	if max <= 0 {
		max = DefaultMaxPending
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Buffer{log: log, max: max}
}

// Add queues a patch and reports whether the buffer has reached its size
// threshold, in which case the caller should flush now rather than wait.
func (b *Buffer) Add(p Patch) bool {
	b.pending = append(b.pending, p)
	return len(b.pending) >= b.max
}

func (b *Buffer) Len() int {
	return len(b.pending)
}

// Flush drains the buffer and returns the batch ordered for application:
// shallower target paths first so an element always exists before anything
// links to it or appends into its children, with insertion order preserved
// among equal-depth patches. Repeated writes to the same property are
// coalesced to the last one. Malformed entries are logged and skipped; they
// never abort the rest of the batch.
func (b *Buffer) Flush() []Patch {
	if len(b.pending) == 0 {
		return nil
	}
	pending := b.pending
	b.pending = nil

	batch := make([]Patch, 0, len(pending))
	for _, p := range pending {
		if p.Path == "" || !validOp(string(p.Op)) {
			b.log.Warn("skipping malformed patch in batch",
				logging.F("op", string(p.Op)), logging.F("path", p.Path))
			continue
		}
		batch = append(batch, p)
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return pathDepth(batch[i].Path) < pathDepth(batch[j].Path)
	})

	return coalesceProps(batch)
}

// coalesceProps collapses multiple set/replace/add writes to the same
// property path into the final write, cutting intermediate allocations when
// the server streams rapid-fire updates to one field. Only exact-path
// property writes are merged; structural patches are left alone.
func coalesceProps(batch []Patch) []Patch {
	last := make(map[string]int, len(batch))
	drop := make(map[int]bool)
	for i, p := range batch {
		if p.Op == OpRemove || !strings.Contains(p.Path, "/props/") {
			continue
		}
		if prev, ok := last[p.Path]; ok {
			drop[prev] = true
		}
		last[p.Path] = i
	}
	if len(drop) == 0 {
		return batch
	}
	out := batch[:0]
	for i, p := range batch {
		if drop[i] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func pathDepth(path string) int {
	depth := 0
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			depth++
		}
	}
	return depth
}

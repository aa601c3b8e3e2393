// Package history sequences undo and redo over an opaque edit type.
//
// A History does not know how edits are applied. It is given a perform
// callback at construction and replays recorded edits through it, one entry
// at a time:
//
//	h := history.New(func(e xedit.Edit) { xedit.Apply(e) })
//	h.NewEntry(undo, redo)
//	h.Undo(1)
//	h.Redo(1)
//
// Recording a new entry while some entries are undone discards them.
package history

// Entry is one recorded edit together with the edit that undoes it.
type Entry[T any] struct {
	Undo T
	Redo T
}

// History is a linear undo/redo log. It is not safe for concurrent use, and
// perform must not call back into the History that invoked it.
type History[T any] struct {
	perform    func(T)
	entries    []Entry[T]
	editCount  int // entries[:editCount] are done, the rest undone
	version    int
	maxEntries int
}

// Option configures a History.
type Option func(*options)

type options struct {
	maxEntries int
}

// WithMaxEntries bounds the log. When a new entry would exceed max, the oldest
// entries are dropped. Zero or less keeps every entry.
func WithMaxEntries(max int) Option {
	return func(o *options) {
		o.maxEntries = max
	}
}

// New creates an empty History that replays edits through perform.
func New[T any](perform func(T), opts ...Option) *History[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &History[T]{
		perform:    perform,
		maxEntries: o.maxEntries,
	}
}

// NewEntry records an applied edit. Undone entries are discarded.
func (h *History[T]) NewEntry(undo, redo T) {
	h.entries = append(h.entries[:h.editCount], Entry[T]{Undo: undo, Redo: redo})
	h.editCount++
	h.evict()
	h.version++
}

// Squash folds an applied edit into the entry before the cursor so both undo
// together. merge(first, second) must return an edit performing first, then
// second. With nothing to fold into, Squash is NewEntry.
func (h *History[T]) Squash(undo, redo T, merge func(first, second T) T) {
	if h.editCount == 0 {
		h.NewEntry(undo, redo)
		return
	}
	h.entries = h.entries[:h.editCount]
	prev := h.entries[h.editCount-1]
	h.entries[h.editCount-1] = Entry[T]{
		Undo: merge(undo, prev.Undo),
		Redo: merge(prev.Redo, redo),
	}
	h.version++
}

func (h *History[T]) evict() {
	if h.maxEntries <= 0 || len(h.entries) <= h.maxEntries {
		return
	}
	excess := len(h.entries) - h.maxEntries
	h.entries = append(h.entries[:0:0], h.entries[excess:]...)
	h.editCount -= excess
}

// Undo reverts up to n done entries, most recent first. It stops early when
// there is nothing left to undo.
func (h *History[T]) Undo(n int) {
	for ; n > 0 && h.CanUndo(); n-- {
		h.perform(h.entries[h.editCount-1].Undo)
		h.editCount--
		h.version++
	}
}

// Redo reapplies up to n undone entries, oldest first. It stops early when
// there is nothing left to redo.
func (h *History[T]) Redo(n int) {
	for ; n > 0 && h.CanRedo(); n-- {
		h.perform(h.entries[h.editCount].Redo)
		h.editCount++
		h.version++
	}
}

func (h *History[T]) CanUndo() bool {
	return h.editCount > 0
}

func (h *History[T]) CanRedo() bool {
	return h.editCount < len(h.entries)
}

// EditCount returns the number of done entries, which is also the index of
// the next entry to redo.
func (h *History[T]) EditCount() int {
	return h.editCount
}

// Len returns the number of entries, done and undone.
func (h *History[T]) Len() int {
	return len(h.entries)
}

// Version increases every time an entry is recorded, squashed, undone or
// redone.
func (h *History[T]) Version() int {
	return h.version
}

// Entries returns a copy of the log.
func (h *History[T]) Entries() []Entry[T] {
	return append([]Entry[T](nil), h.entries...)
}

// Clear drops every entry. The version keeps counting.
func (h *History[T]) Clear() {
	h.entries = nil
	h.editCount = 0
	h.version++
}

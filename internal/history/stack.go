// Package history keeps the linear undo history of a document as whole
// serialized snapshots with a cursor.
package history

// DefaultMaxEntries is the number of snapshots kept when no limit is given.
const DefaultMaxEntries = 50

// Snapshot is an opaque serialized capture of a document.
type Snapshot []byte

// Options bounds a Stack.
type Options struct {
	MaxEntries int   // <= 0 means DefaultMaxEntries
	MaxBytes   int64 // <= 0 disables the byte budget
}

// Stack is a bounded list of snapshots with a cursor pointing at the entry
// that matches the live document. It is not safe for concurrent use.
type Stack struct {
	entries    []Snapshot
	cursor     int
	size       int64
	maxEntries int
	maxBytes   int64
}

// New returns an empty stack.
func New(opts Options) *Stack {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	return &Stack{
		cursor:     -1,
		maxEntries: opts.MaxEntries,
		maxBytes:   opts.MaxBytes,
	}
}

// Push discards every entry after the cursor, appends s and moves the cursor
// to it. The oldest entries are evicted while the stack is over its entry
// limit or byte budget; the entry just pushed is never evicted.
func (h *Stack) Push(s Snapshot) {
	for i := h.cursor + 1; i < len(h.entries); i++ {
		h.size -= int64(len(h.entries[i]))
		h.entries[i] = nil
	}
	h.entries = append(h.entries[:h.cursor+1], s)
	h.size += int64(len(s))
	h.cursor = len(h.entries) - 1

	for len(h.entries) > h.maxEntries {
		h.evictOldest()
	}
	for h.maxBytes > 0 && h.size > h.maxBytes && len(h.entries) > 1 {
		h.evictOldest()
	}
}

func (h *Stack) evictOldest() {
	h.size -= int64(len(h.entries[0]))
	h.entries[0] = nil
	h.entries = h.entries[1:]
	h.cursor--
}

// Undo moves the cursor back one entry and returns that entry. It reports
// false and changes nothing when there is no earlier entry.
func (h *Stack) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo moves the cursor forward one entry and returns that entry. It reports
// false and changes nothing when there is no later entry.
func (h *Stack) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// CanUndo reports whether Undo would move the cursor.
func (h *Stack) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would move the cursor.
func (h *Stack) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Current returns the entry at the cursor.
func (h *Stack) Current() (Snapshot, bool) {
	if h.cursor < 0 {
		return nil, false
	}
	return h.entries[h.cursor], true
}

// Len returns the number of entries.
func (h *Stack) Len() int { return len(h.entries) }

// Cursor returns the index of the current entry, or -1 when empty.
func (h *Stack) Cursor() int { return h.cursor }

// Size returns the total byte size of all entries.
func (h *Stack) Size() int64 { return h.size }

// Entries returns a copy of the entry list for persistence.
func (h *Stack) Entries() []Snapshot {
	out := make([]Snapshot, len(h.entries))
	copy(out, h.entries)
	return out
}

// Restore replaces the stack contents with previously saved entries. An out
// of range cursor is clamped to the last entry, and the limits are reapplied.
func (h *Stack) Restore(entries []Snapshot, cursor int) {
	h.entries = make([]Snapshot, len(entries))
	copy(h.entries, entries)
	h.size = 0
	for _, e := range h.entries {
		h.size += int64(len(e))
	}
	switch {
	case len(h.entries) == 0:
		h.cursor = -1
		return
	case cursor < 0:
		h.cursor = 0
	case cursor >= len(h.entries):
		h.cursor = len(h.entries) - 1
	default:
		h.cursor = cursor
	}

	for len(h.entries) > h.maxEntries && h.cursor > 0 {
		h.evictOldest()
	}
	for len(h.entries) > h.maxEntries {
		h.size -= int64(len(h.entries[len(h.entries)-1]))
		h.entries = h.entries[:len(h.entries)-1]
	}
}

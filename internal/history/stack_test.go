package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(i int) Snapshot {
	return Snapshot(fmt.Sprintf("s%02d", i))
}

func TestPush_AdvancesCursor(t *testing.T) {
	h := New(Options{})
	assert.Equal(t, -1, h.Cursor())

	h.Push(snap(0))
	h.Push(snap(1))

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Cursor())
	cur, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, snap(1), cur)
}

func TestPush_TruncatesAtFiftyEntries(t *testing.T) {
	h := New(Options{})
	for i := 0; i < 60; i++ {
		h.Push(snap(i))
	}

	assert.Equal(t, 50, h.Len())
	assert.Equal(t, 49, h.Cursor())
	entries := h.Entries()
	assert.Equal(t, snap(10), entries[0], "the ten oldest entries are evicted")
	assert.Equal(t, snap(59), entries[49])
}

func TestPush_DiscardsRedoBranch(t *testing.T) {
	h := New(Options{})
	for i := 0; i < 4; i++ {
		h.Push(snap(i))
	}
	h.Undo()
	h.Undo()
	require.True(t, h.CanRedo())

	h.Push(snap(9))

	assert.False(t, h.CanRedo())
	assert.Equal(t, []Snapshot{snap(0), snap(1), snap(9)}, h.Entries())
	assert.Equal(t, int64(9), h.Size())
}

func TestUndoRedo(t *testing.T) {
	h := New(Options{})
	h.Push(snap(0))
	h.Push(snap(1))
	h.Push(snap(2))

	s, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, snap(1), s)

	s, ok = h.Undo()
	require.True(t, ok)
	assert.Equal(t, snap(0), s)

	_, ok = h.Undo()
	assert.False(t, ok, "undo at the first entry is a no-op")
	assert.Equal(t, 0, h.Cursor())

	s, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, snap(1), s)
	h.Redo()

	_, ok = h.Redo()
	assert.False(t, ok, "redo at the last entry is a no-op")
	assert.Equal(t, 2, h.Cursor())
}

func TestUndo_Empty(t *testing.T) {
	h := New(Options{})
	_, ok := h.Undo()
	assert.False(t, ok)
	_, ok = h.Redo()
	assert.False(t, ok)
	_, ok = h.Current()
	assert.False(t, ok)
}

func TestPush_ByteBudget(t *testing.T) {
	h := New(Options{MaxBytes: 10})
	for i := 0; i < 5; i++ {
		h.Push(snap(i)) // 3 bytes each
	}

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, int64(9), h.Size())
	assert.Equal(t, snap(2), h.Entries()[0])
	assert.Equal(t, 2, h.Cursor())
}

func TestPush_ByteBudgetKeepsCurrent(t *testing.T) {
	h := New(Options{MaxBytes: 4})
	h.Push(snap(0))
	h.Push(Snapshot("a much larger snapshot"))

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 0, h.Cursor())
	assert.False(t, h.CanUndo())
}

func TestRestore(t *testing.T) {
	h := New(Options{MaxEntries: 3})
	h.Restore([]Snapshot{snap(0), snap(1), snap(2), snap(3), snap(4)}, 4)

	assert.Equal(t, []Snapshot{snap(2), snap(3), snap(4)}, h.Entries())
	assert.Equal(t, 2, h.Cursor())

	h.Restore([]Snapshot{snap(0), snap(1)}, 7)
	assert.Equal(t, 1, h.Cursor())

	h.Restore(nil, 3)
	assert.Equal(t, -1, h.Cursor())
	assert.Equal(t, 0, h.Len())
}

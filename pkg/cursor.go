package browser

import "fmt"

// Cursor sequences a selection in fixed-size batches. It is a pure
// single-threaded state machine: it yields index batches and performs
// no I/O. One Cursor owns its position exclusively; two cursors may
// share a selection but never a position.
type Cursor struct {
	selection Selection
	pos       int
	nDrawn    int
}

func NewCursor(selection Selection, nDrawn int) (*Cursor, error) {
	if nDrawn < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", nDrawn)
	}
	return &Cursor{selection: selection, nDrawn: nDrawn}, nil
}

// AdvanceBatch returns the next batch of at most nDrawn indices and
// advances the position. An empty batch signals end-of-selection, not
// an error.
func (c *Cursor) AdvanceBatch() []int {
	remaining := len(c.selection) - c.pos
	if remaining <= 0 {
		return nil
	}
	n := c.nDrawn
	if n > remaining {
		n = remaining
	}
	batch := make([]int, n)
	copy(batch, c.selection[c.pos:c.pos+n])
	c.pos += n
	return batch
}

// JumpTo moves the position directly to k, bypassing sequential order.
// k == len(selection) is valid and leaves the cursor exhausted.
func (c *Cursor) JumpTo(k int) error {
	if k < 0 || k > len(c.selection) {
		return &ErrIndexOutOfRange{Index: k, Size: len(c.selection) + 1}
	}
	c.pos = k
	return nil
}

// Reset returns the cursor to the start from any state.
func (c *Cursor) Reset() {
	c.pos = 0
}

func (c *Cursor) Pos() int {
	return c.pos
}

func (c *Cursor) Exhausted() bool {
	return c.pos == len(c.selection)
}

func (c *Cursor) BatchSize() int {
	return c.nDrawn
}

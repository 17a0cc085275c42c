// Package osmbuf implements the pointer-free, append-only Item arena
// that every OSM object (node, way, relation, changeset) and its
// sub-items live in, plus the Builder that constructs Items inside it.
//
// The design follows the same hand-rolled binary-layout discipline as
// github.com/SnellerInc/sneller's ion package: a Buffer is a flat byte
// slice, every record in it is self-describing (tag + size), and
// Builders patch the size field in on completion rather than computing
// it up front.
package osmbuf

import "fmt"

// Buffer is an append-only arena holding a sequence of A-byte aligned
// Items. It progresses through the epochs described in the package
// documentation: bytes between [0, committed) are visible to readers,
// bytes in [committed, written) are being constructed by an in-progress
// Builder, and bytes in [written, capacity) are unused.
//
// A Buffer is not safe for concurrent use; the read/write pipeline
// achieves parallelism by handing whole Buffers between goroutines by
// ownership transfer, never by sharing one across goroutines.
type Buffer struct {
	buf       []byte
	committed int
	written   int
	align     int
	external  bool // wraps caller-owned memory; never grows
	autoGrow  bool

	openBuilders []*Builder

	// fullCB is the deprecated full-callback mechanism (§4.B). New code
	// should rely on auto-grow or a size check before ReserveSpace.
	fullCB func(*Buffer) error
}

// NewBuffer creates an empty, internally-owned Buffer with the given
// initial capacity (rounded up to the alignment) that grows
// automatically as items are reserved.
func NewBuffer(capacity int) *Buffer {
	return newBuffer(capacity, DefaultAlign, true)
}

// NewBufferAlign is like NewBuffer but lets the caller pick the
// alignment A (must be a power of two, >= 8).
func NewBufferAlign(capacity, align int) *Buffer {
	return newBuffer(capacity, align, true)
}

func newBuffer(capacity, align int, autoGrow bool) *Buffer {
	if !isPowerOfTwo(align) || align < 8 {
		panic(fmt.Sprintf("osmbuf: invalid alignment %d", align))
	}
	capacity = PaddedLength(capacity, align)
	if capacity == 0 {
		capacity = align
	}
	return &Buffer{
		buf:      make([]byte, capacity),
		align:    align,
		autoGrow: autoGrow,
	}
}

// WrapExternal creates a Buffer backed by caller-owned memory. External
// buffers are read-only after construction in the sense that they never
// grow; reserve_space on a full external buffer always fails with
// ErrBufferFull. data's length is treated as both committed and written
// (the whole slice is assumed to already hold valid committed Items).
func WrapExternal(data []byte) *Buffer {
	return WrapExternalAlign(data, DefaultAlign)
}

// WrapExternalAlign is WrapExternal with an explicit alignment.
func WrapExternalAlign(data []byte, align int) *Buffer {
	if !isPowerOfTwo(align) || align < 8 {
		panic(fmt.Sprintf("osmbuf: invalid alignment %d", align))
	}
	return &Buffer{
		buf:       data,
		align:     align,
		committed: len(data),
		written:   len(data),
		external:  true,
	}
}

// Valid reports whether b is a usable buffer as opposed to the
// end-of-stream sentinel. In this Go port the sentinel is simply a nil
// *Buffer; Valid is provided so call sites that already hold a non-nil
// pointer can still express the "capacity == 0" truthiness test from
// the source design.
func (b *Buffer) Valid() bool {
	return b != nil && len(b.buf) > 0
}

// Align returns the Buffer's alignment A.
func (b *Buffer) Align() int { return b.align }

// Committed returns the current committed watermark.
func (b *Buffer) Committed() int { return b.committed }

// Written returns the current written watermark.
func (b *Buffer) Written() int { return b.written }

// Capacity returns the Buffer's current backing capacity.
func (b *Buffer) Capacity() int { return len(b.buf) }

// Bytes returns the committed prefix of the buffer, i.e. the bytes that
// constitute well-formed, finished Items.
func (b *Buffer) Bytes() []byte { return b.buf[:b.committed] }

// SetFullCallback installs the deprecated full-callback mechanism: when
// ReserveSpace would otherwise fail, cb is invoked once with the
// opportunity to clear or grow the buffer before the reservation is
// retried. New code should not use this; prefer auto-grow or a size
// check ahead of ReserveSpace.
//
// Deprecated: rely on auto-grow (the default for NewBuffer) instead.
func (b *Buffer) SetFullCallback(cb func(*Buffer) error) {
	b.fullCB = cb
}

// ReserveSpace returns a writable span of exactly n bytes, advancing the
// written watermark. It fails with ErrBufferFull if written+n exceeds
// capacity and the buffer cannot grow (external storage, or auto-grow
// disabled and no full-callback recovers enough space); for an
// auto-growing internal buffer capacity is doubled until n fits.
func (b *Buffer) ReserveSpace(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrInvalidArgument
	}
	for b.written+n > len(b.buf) {
		if b.fullCB != nil && (b.external || !b.autoGrow) {
			if err := b.fullCB(b); err != nil {
				return nil, err
			}
			if b.written+n <= len(b.buf) {
				break
			}
		}
		if b.external || !b.autoGrow {
			return nil, ErrBufferFull
		}
		b.grow(n)
	}
	span := b.buf[b.written : b.written+n]
	b.written += n
	return span, nil
}

func (b *Buffer) grow(n int) {
	need := b.written + n
	newCap := len(b.buf)
	if newCap == 0 {
		newCap = b.align
	}
	for newCap < need {
		newCap *= 2
	}
	nb := make([]byte, newCap)
	copy(nb, b.buf)
	b.buf = nb
}

// Commit promotes the current written watermark to committed, making
// every byte written since the previous commit visible to readers. It
// returns the previous committed offset, i.e. the start of the Item(s)
// just committed. Commit requires written to be A-aligned.
func (b *Buffer) Commit() (int, error) {
	if b.written%b.align != 0 {
		return 0, ErrInvalidArgument
	}
	if len(b.openBuilders) != 0 {
		return 0, &LogicError{Msg: "Commit called with an open Builder"}
	}
	prev := b.committed
	b.committed = b.written
	return prev, nil
}

// Rollback discards everything written since the last Commit.
func (b *Buffer) Rollback() {
	b.written = b.committed
	b.openBuilders = nil
}

// Clear resets both watermarks to zero and returns the prior committed
// offset.
func (b *Buffer) Clear() int {
	prev := b.committed
	b.committed = 0
	b.written = 0
	b.openBuilders = nil
	return prev
}

// AddItem appends an already-formed Item verbatim. This and AddBuffer
// are the only supported copy paths across Buffers; Items themselves
// never hold cross-Buffer references.
func (b *Buffer) AddItem(it Item) error {
	if len(it.raw)%b.align != 0 {
		return ErrInvalidArgument
	}
	span, err := b.ReserveSpace(len(it.raw))
	if err != nil {
		return err
	}
	copy(span, it.raw)
	_, err = b.Commit()
	return err
}

// AddBuffer copies another Buffer's committed prefix into b.
func (b *Buffer) AddBuffer(other *Buffer) error {
	if !other.Valid() {
		return nil
	}
	data := other.Bytes()
	if len(data) == 0 {
		return nil
	}
	span, err := b.ReserveSpace(len(data))
	if err != nil {
		return err
	}
	copy(span, data)
	_, err = b.Commit()
	return err
}

// PurgeRemoved compacts the buffer in place, overwriting every Item
// whose removed flag is set. For each surviving Item that shifts
// position, cb is invoked with (oldOffset, newOffset) before the move,
// so that external indexes keyed on offset can be patched. It runs in a
// single O(committed) pass and invalidates all outstanding offsets and
// iterators.
func (b *Buffer) PurgeRemoved(cb func(oldOffset, newOffset int)) {
	read := 0
	write := 0
	for read < b.committed {
		it := itemAt(b.buf[read:], b.align)
		size := it.Size()
		if !itemRemoved(it) {
			if write != read {
				if cb != nil {
					cb(read, write)
				}
				copy(b.buf[write:write+size], b.buf[read:read+size])
			}
			write += size
		}
		read += size
	}
	b.committed = write
	b.written = write
	b.openBuilders = nil
}

// itemRemoved reports whether an OSMObject Item has its removed flag
// set. Non-OSMObject items (tag lists, node-ref lists, ...) are never
// individually removed; purge only ever drops whole objects.
func itemRemoved(it Item) bool {
	if !it.Tag().IsOSMObject() {
		return false
	}
	obj := AsObjectView(it)
	return obj.Removed()
}

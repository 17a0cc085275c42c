package osmbuf

// Builder is a scoped cursor pinned to (Buffer, start offset) that
// constructs a single Item, including any nested sub-items, with
// automatic size back-patching on Finish.
//
// Builders nest strictly LIFO: the most recently created, unfinished
// Builder on a given Buffer must be the next one finished or closed.
// The zero value is not usable; obtain a Builder with NewBuilder or
// (*Builder).NewChild.
type Builder struct {
	buf      *Buffer
	tag      Tag
	start    int
	parent   *Builder
	finished bool
}

// NewBuilder reserves a header slot for a new top-level Item of the
// given tag inside buf and returns a Builder scoped to it. The caller
// must eventually call Finish (to keep the Item) or Close (to discard
// it and roll the Buffer back), typically via
//
//	b, err := osmbuf.NewBuilder(buf, osmbuf.TagNode)
//	if err != nil { return err }
//	defer b.Close()
//	... populate ...
//	if err := b.Finish(); err != nil { return err }
//	_, err = buf.Commit()
func NewBuilder(buf *Buffer, tag Tag) (*Builder, error) {
	return newBuilder(buf, tag)
}

// NewChild opens a nested Builder for a sub-item of b. b must be the
// Buffer's current innermost open Builder.
func (b *Builder) NewChild(tag Tag) (*Builder, error) {
	if !b.isTop() {
		return nil, &LogicError{Msg: "NewChild called on a non-innermost Builder"}
	}
	return newBuilder(b.buf, tag)
}

func newBuilder(buf *Buffer, tag Tag) (*Builder, error) {
	hs := HeaderSize(buf.align)
	span, err := buf.ReserveSpace(hs)
	if err != nil {
		return nil, err
	}
	start := buf.written - hs
	writeHeader(span, tag, 0)
	b := &Builder{buf: buf, tag: tag, start: start}
	if n := len(buf.openBuilders); n > 0 {
		b.parent = buf.openBuilders[n-1]
	}
	buf.openBuilders = append(buf.openBuilders, b)
	return b, nil
}

func (b *Builder) isTop() bool {
	n := len(b.buf.openBuilders)
	return n > 0 && b.buf.openBuilders[n-1] == b
}

// Tag returns the tag this Builder is constructing.
func (b *Builder) Tag() Tag { return b.tag }

// Buffer returns the Buffer this Builder writes into.
func (b *Builder) Buffer() *Buffer { return b.buf }

// Write appends raw bytes directly into the Item's body. It is used by
// the typed convenience helpers (add_tag, add_node_ref, ...) to pack
// bytes that are not themselves nested Items (e.g. a TagList's
// back-to-back null-terminated strings). b must be the innermost open
// Builder.
func (b *Builder) Write(data []byte) error {
	if !b.isTop() {
		return &LogicError{Msg: "Write called on a non-innermost Builder"}
	}
	span, err := b.buf.ReserveSpace(len(data))
	if err != nil {
		return err
	}
	copy(span, data)
	return nil
}

// Finish writes the final padded size into the Item's header. On
// return, if b had a parent Builder, the parent's own eventual size
// automatically includes b's bytes (size is computed from the Buffer's
// written watermark at each Finish, so no explicit propagation step is
// needed). Finish must be called in strict LIFO order.
func (b *Builder) Finish() error {
	if b.finished {
		return nil
	}
	if !b.isTop() {
		return &LogicError{Msg: "Finish called out of LIFO order"}
	}
	size := b.buf.written - b.start
	padded := PaddedLength(size, b.buf.align)
	if padded > size {
		if _, err := b.buf.ReserveSpace(padded - size); err != nil {
			return err
		}
	}
	writeHeader(b.buf.buf[b.start:b.start+8], b.tag, padded)
	b.buf.openBuilders = b.buf.openBuilders[:len(b.buf.openBuilders)-1]
	b.finished = true
	return nil
}

// Close is the Builder's rollback guard: called (typically via defer)
// before Finish has succeeded, it rolls the Buffer all the way back to
// the pre-Builder committed mark, so that no half-built Item ever
// becomes visible. Calling Close after a successful Finish is a no-op.
func (b *Builder) Close() {
	if b.finished {
		return
	}
	b.buf.written = b.buf.committed
	b.buf.openBuilders = nil
	b.finished = true
}

// Item returns the Item built by b. It is only meaningful after Finish
// has returned successfully.
func (b *Builder) Item() Item {
	return itemAt(b.buf.buf[b.start:], b.buf.align)
}

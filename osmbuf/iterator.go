package osmbuf

// Iterator is a forward iterator over the committed Items of a Buffer,
// advancing by each Item's padded size and skipping Items whose tag
// does not satisfy the configured filter. It does not allocate.
type Iterator struct {
	buf    *Buffer
	pos    int
	filter func(Tag) bool
}

// Iter returns an iterator over buf's committed items, restricted to
// those whose tag satisfies filter. A nil filter matches every item.
func (b *Buffer) Iter(filter func(Tag) bool) *Iterator {
	return &Iterator{buf: b, filter: filter}
}

// IterAll returns an iterator over every committed item in buf.
func (b *Buffer) IterAll() *Iterator { return b.Iter(nil) }

// Objects returns an iterator over the committed top-level OSM objects
// in buf (nodes, ways, relations, changesets).
func (b *Buffer) Objects() *Iterator {
	return b.Iter(Tag.IsOSMObject)
}

// Next advances the iterator and reports whether an item satisfying the
// filter was found.
func (it *Iterator) Next() (Item, bool) {
	for it.pos < it.buf.committed {
		item := itemAt(it.buf.buf[it.pos:it.buf.committed], it.buf.align)
		it.pos += item.Size()
		if it.filter == nil || it.filter(item.Tag()) {
			return item, true
		}
	}
	return Item{}, false
}

// Offset returns the byte offset the iterator will read from next.
// (p - buf.data()) is always a multiple of the buffer's alignment.
func (it *Iterator) Offset() int { return it.pos }

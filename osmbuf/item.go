package osmbuf

import "encoding/binary"

// Item is a non-owning view over a single self-describing record inside
// a Buffer: a header (type tag + padded size) followed by the record's
// body. Items never allocate and never copy; they borrow the Buffer's
// backing array. Moving or dropping the Buffer invalidates every Item
// view taken from it.
type Item struct {
	raw   []byte // header + body, exactly Size() bytes
	align int
}

// itemAt reads the Item header starting at buf[0:] and returns a view
// over the whole padded record. It does not validate that the record
// fits within the supplied slice; callers that walk a Buffer already
// know the bound from the commit watermark.
func itemAt(buf []byte, align int) Item {
	tag := Tag(binary.LittleEndian.Uint32(buf[0:4]))
	size := int(binary.LittleEndian.Uint32(buf[4:8]))
	_ = tag
	return Item{raw: buf[:size], align: align}
}

// Tag returns the item's type tag.
func (it Item) Tag() Tag {
	return Tag(binary.LittleEndian.Uint32(it.raw[0:4]))
}

// Size returns the item's padded on-disk footprint, header included.
func (it Item) Size() int {
	return int(binary.LittleEndian.Uint32(it.raw[4:8]))
}

// PaddedSize is an alias for Size: every stored Item is already padded.
func (it Item) PaddedSize() int { return it.Size() }

// Bytes returns the raw header+body bytes of the item.
func (it Item) Bytes() []byte { return it.raw }

// Body returns the bytes following the header, up to the item's
// reported size (i.e. including trailing alignment padding).
func (it Item) Body() []byte {
	h := HeaderSize(it.align)
	if h > len(it.raw) {
		return nil
	}
	return it.raw[h:]
}

func writeHeader(dst []byte, tag Tag, size int) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(tag))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(size))
}

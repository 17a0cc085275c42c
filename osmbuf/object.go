package osmbuf

import "encoding/binary"

// Flag bits packed into an OSMObject's flags word.
const (
	FlagVisible uint32 = 1 << 0
	FlagRemoved uint32 = 1 << 1
)

// objectBodyFixedSize is the size, in bytes, of the fixed OSMObject
// header fields (id, version, changeset, timestamp, uid, flags) that
// precede the variable tail of every node/way/relation/changeset.
const objectBodyFixedSize = 32

// ObjectView is a read-only, zero-copy view over the fixed fields
// shared by every OSM object kind. Concrete views (NodeView, WayView,
// ...) embed it and add their own object-specific tail accessors.
type ObjectView struct {
	it   Item
	body []byte // full body, fixed fields + variable tail
}

// AsObjectView interprets it as an OSMObject. It panics if it is not
// tagged as one of node/way/relation/changeset; callers that don't
// already know the tag should switch on it.Tag() first.
func AsObjectView(it Item) ObjectView {
	if !it.Tag().IsOSMObject() {
		panic("osmbuf: AsObjectView called on a non-OSMObject item")
	}
	return ObjectView{it: it, body: it.Body()}
}

func (o ObjectView) Item() Item { return o.it }
func (o ObjectView) Tag() Tag   { return o.it.Tag() }

func (o ObjectView) ID() int64 {
	return int64(binary.LittleEndian.Uint64(o.body[0:8]))
}

func (o ObjectView) Version() uint32 {
	return binary.LittleEndian.Uint32(o.body[8:12])
}

func (o ObjectView) Changeset() uint32 {
	return binary.LittleEndian.Uint32(o.body[12:16])
}

// Timestamp returns the object's UNIX timestamp in seconds, or 0 if
// absent.
func (o ObjectView) Timestamp() int64 {
	return int64(binary.LittleEndian.Uint64(o.body[16:24]))
}

// UserID returns the object's user id, or 0 if the edit is anonymous.
func (o ObjectView) UserID() uint32 {
	return binary.LittleEndian.Uint32(o.body[24:28])
}

func (o ObjectView) flags() uint32 {
	return binary.LittleEndian.Uint32(o.body[28:32])
}

func (o ObjectView) Visible() bool { return o.flags()&FlagVisible != 0 }
func (o ObjectView) Removed() bool { return o.flags()&FlagRemoved != 0 }

// tail returns the bytes following the fixed fields: the variable-length
// sequence of user-name, tag-list, then object-specific sub-items, in
// that canonical order.
func (o ObjectView) tail() []byte {
	if len(o.body) < objectBodyFixedSize {
		return nil
	}
	return o.body[objectBodyFixedSize:]
}

// UserName returns the object's user name and whether one was written.
func (o ObjectView) UserName() (string, bool) {
	tail := o.tail()
	if len(tail) == 0 {
		return "", false
	}
	it := itemAt(tail, o.it.align)
	if it.Tag() != TagUserName {
		return "", false
	}
	return string(trimNulPad(it.Body())), true
}

// Tags returns a view over the object's tag list, if any.
func (o ObjectView) Tags() TagListView {
	tail := o.tail()
	if len(tail) == 0 {
		return TagListView{}
	}
	it := itemAt(tail, o.it.align)
	if it.Tag() == TagUserName {
		tail = tail[it.Size():]
		if len(tail) == 0 {
			return TagListView{}
		}
		it = itemAt(tail, o.it.align)
	}
	if it.Tag() != TagTagList {
		return TagListView{}
	}
	return TagListView{it: it}
}

// specificTail returns the bytes after user-name and tag-list, where an
// object-specific sub-item (location, node-ref-list, member-list,
// discussion) lives.
func (o ObjectView) specificTail() []byte {
	tail := o.tail()
	for len(tail) > 0 {
		it := itemAt(tail, o.it.align)
		if it.Tag() == TagUserName || it.Tag() == TagTagList {
			tail = tail[it.Size():]
			continue
		}
		break
	}
	return tail
}

// trimNulPad strips a trailing NUL terminator and any alignment padding
// zero bytes from a packed string body.
func trimNulPad(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

package osmbuf

import "encoding/binary"

// objectBuilder holds the state shared by the four typed OSMObject
// builders (NodeBuilder, WayBuilder, RelationBuilder, ChangesetBuilder):
// it enforces the canonical tail order (user-name, tag-list, then the
// object-specific sub-item) by tracking how far construction has
// progressed.
type objectBuilder struct {
	b         *Builder
	userDone  bool
	tagsDone  bool
	specDone  bool
}

func newObjectBuilder(buf *Buffer, tag Tag, id int64, version, changeset uint32, timestamp int64, uid uint32, visible bool) (*objectBuilder, error) {
	b, err := NewBuilder(buf, tag)
	if err != nil {
		return nil, err
	}
	fixed := make([]byte, objectBodyFixedSize)
	binary.LittleEndian.PutUint64(fixed[0:8], uint64(id))
	binary.LittleEndian.PutUint32(fixed[8:12], version)
	binary.LittleEndian.PutUint32(fixed[12:16], changeset)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(timestamp))
	binary.LittleEndian.PutUint32(fixed[24:28], uid)
	var flags uint32
	if visible {
		flags |= FlagVisible
	}
	binary.LittleEndian.PutUint32(fixed[28:32], flags)
	if err := b.Write(fixed); err != nil {
		b.Close()
		return nil, err
	}
	return &objectBuilder{b: b}, nil
}

// SetRemoved sets the removed flag in the already-written flags word.
// It must be called before any sub-item has been opened, since the
// flags word lives in the fixed prefix.
func (o *objectBuilder) SetRemoved(removed bool) error {
	off := o.b.start + HeaderSize(o.b.buf.align) + 28
	flags := binary.LittleEndian.Uint32(o.b.buf.buf[off : off+4])
	if removed {
		flags |= FlagRemoved
	} else {
		flags &^= FlagRemoved
	}
	binary.LittleEndian.PutUint32(o.b.buf.buf[off:off+4], flags)
	return nil
}

func (o *objectBuilder) SetUser(name string) error {
	if o.userDone || o.tagsDone || o.specDone {
		return &LogicError{Msg: "SetUser must be called before AddTag and before any object-specific data"}
	}
	child, err := o.b.NewChild(TagUserName)
	if err != nil {
		return err
	}
	defer child.Close()
	if err := child.Write(cString(name)); err != nil {
		return err
	}
	o.userDone = true
	return child.Finish()
}

func (o *objectBuilder) AddTags(tags []KV) error {
	if o.tagsDone || o.specDone {
		return &LogicError{Msg: "AddTags must be called before any object-specific data, and only once"}
	}
	o.userDone = true
	o.tagsDone = true
	return addTagList(o.b, tags)
}

func (o *objectBuilder) beginSpecific() error {
	if o.specDone {
		return &LogicError{Msg: "object-specific sub-item already written"}
	}
	o.userDone = true
	o.tagsDone = true
	o.specDone = true
	return nil
}

// finish completes the object Item and commits it, so it is visible to
// Objects and the readers/writers as soon as Finish returns.
func (o *objectBuilder) finish() (Item, error) {
	if err := o.b.Finish(); err != nil {
		return Item{}, err
	}
	if _, err := o.b.buf.Commit(); err != nil {
		return Item{}, err
	}
	return o.b.Item(), nil
}

func (o *objectBuilder) close() { o.b.Close() }

package osmbuf

// RelationView is a read-only view over a Relation item.
type RelationView struct {
	ObjectView
}

// AsRelationView interprets it as a Relation. It panics if
// it.Tag() != TagRelation.
func AsRelationView(it Item) RelationView {
	if it.Tag() != TagRelation {
		panic("osmbuf: AsRelationView called on a non-Relation item")
	}
	return RelationView{AsObjectView(it)}
}

// Members returns the relation's ordered member list.
func (r RelationView) Members() RelationMemberListView {
	tail := r.specificTail()
	if len(tail) == 0 {
		return RelationMemberListView{}
	}
	it := itemAt(tail, r.Item().align)
	if it.Tag() != TagRelationMemberList {
		return RelationMemberListView{}
	}
	return RelationMemberListView{it: it}
}

// RelationBuilder constructs a Relation Item.
type RelationBuilder struct {
	*objectBuilder
}

// NewRelationBuilder starts building a Relation into buf.
func NewRelationBuilder(buf *Buffer, id int64, version, changeset uint32, timestamp int64, uid uint32, visible bool) (*RelationBuilder, error) {
	ob, err := newObjectBuilder(buf, TagRelation, id, version, changeset, timestamp, uid, visible)
	if err != nil {
		return nil, err
	}
	return &RelationBuilder{ob}, nil
}

func (r *RelationBuilder) SetUser(name string) error     { return r.objectBuilder.SetUser(name) }
func (r *RelationBuilder) AddTags(tags []KV) error       { return r.objectBuilder.AddTags(tags) }
func (r *RelationBuilder) SetRemoved(removed bool) error { return r.objectBuilder.SetRemoved(removed) }

// SetMembers writes the relation's member list. Must be called at most
// once, after any SetUser / AddTags calls.
func (r *RelationBuilder) SetMembers(members []Member) error {
	if err := r.beginSpecific(); err != nil {
		return err
	}
	return addMemberList(r.b, members)
}

// Finish completes the Relation Item and returns a view over it.
func (r *RelationBuilder) Finish() (RelationView, error) {
	it, err := r.finish()
	if err != nil {
		return RelationView{}, err
	}
	return AsRelationView(it), nil
}

// Close rolls back an unfinished Relation Builder.
func (r *RelationBuilder) Close() { r.close() }

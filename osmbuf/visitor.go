package osmbuf

// Visitor exposes one handler per concrete entity type. Every method
// has a default no-op implementation via BaseVisitor, so a caller only
// overrides the handlers it cares about. Apply dispatches on an Item's
// tag with a plain switch, not a virtual call per item, so walking a
// Buffer never allocates.
type Visitor interface {
	VisitNode(NodeView)
	VisitWay(WayView)
	VisitRelation(RelationView)
	VisitChangeset(ChangesetView)
	VisitTagList(TagListView)
	VisitNodeRefList(NodeRefListView)
	VisitRelationMemberList(RelationMemberListView)
}

// BaseVisitor implements Visitor with no-op methods; embed it to avoid
// implementing handlers you don't need.
type BaseVisitor struct{}

func (BaseVisitor) VisitNode(NodeView)                             {}
func (BaseVisitor) VisitWay(WayView)                               {}
func (BaseVisitor) VisitRelation(RelationView)                     {}
func (BaseVisitor) VisitChangeset(ChangesetView)                   {}
func (BaseVisitor) VisitTagList(TagListView)                       {}
func (BaseVisitor) VisitNodeRefList(NodeRefListView)               {}
func (BaseVisitor) VisitRelationMemberList(RelationMemberListView) {}

// Apply walks every committed item in buf and dispatches it to the
// matching handler on v.
func Apply(buf *Buffer, v Visitor) {
	it := buf.IterAll()
	for item, ok := it.Next(); ok; item, ok = it.Next() {
		dispatch(item, v)
	}
}

func dispatch(item Item, v Visitor) {
	switch item.Tag() {
	case TagNode:
		v.VisitNode(AsNodeView(item))
	case TagWay:
		v.VisitWay(AsWayView(item))
	case TagRelation:
		v.VisitRelation(AsRelationView(item))
	case TagChangeset:
		v.VisitChangeset(AsChangesetView(item))
	case TagTagList:
		v.VisitTagList(TagListView{it: item})
	case TagNodeRefList:
		v.VisitNodeRefList(NodeRefListView{it: item})
	case TagRelationMemberList:
		v.VisitRelationMemberList(RelationMemberListView{it: item})
	}
}

// MultiVisitor composes several Visitors, forwarding every Item to each
// of them, in declaration order.
type MultiVisitor []Visitor

func (m MultiVisitor) VisitNode(n NodeView) {
	for _, v := range m {
		v.VisitNode(n)
	}
}
func (m MultiVisitor) VisitWay(w WayView) {
	for _, v := range m {
		v.VisitWay(w)
	}
}
func (m MultiVisitor) VisitRelation(r RelationView) {
	for _, v := range m {
		v.VisitRelation(r)
	}
}
func (m MultiVisitor) VisitChangeset(c ChangesetView) {
	for _, v := range m {
		v.VisitChangeset(c)
	}
}
func (m MultiVisitor) VisitTagList(t TagListView) {
	for _, v := range m {
		v.VisitTagList(t)
	}
}
func (m MultiVisitor) VisitNodeRefList(n NodeRefListView) {
	for _, v := range m {
		v.VisitNodeRefList(n)
	}
}
func (m MultiVisitor) VisitRelationMemberList(l RelationMemberListView) {
	for _, v := range m {
		v.VisitRelationMemberList(l)
	}
}

package osmbuf

// NodeView is a read-only view over a Node item.
type NodeView struct {
	ObjectView
}

// AsNodeView interprets it as a Node. It panics if it.Tag() != TagNode.
func AsNodeView(it Item) NodeView {
	if it.Tag() != TagNode {
		panic("osmbuf: AsNodeView called on a non-Node item")
	}
	return NodeView{AsObjectView(it)}
}

// Location returns the node's coordinates.
func (n NodeView) Location() Location {
	tail := n.specificTail()
	if len(tail) < locationSize {
		return Location{LatE7: CoordUndefined, LonE7: CoordUndefined}
	}
	return decodeLocation(tail[:locationSize])
}

// NodeBuilder constructs a Node Item.
type NodeBuilder struct {
	*objectBuilder
}

// NewNodeBuilder starts building a Node into buf.
func NewNodeBuilder(buf *Buffer, id int64, version, changeset uint32, timestamp int64, uid uint32, visible bool) (*NodeBuilder, error) {
	ob, err := newObjectBuilder(buf, TagNode, id, version, changeset, timestamp, uid, visible)
	if err != nil {
		return nil, err
	}
	return &NodeBuilder{ob}, nil
}

func (n *NodeBuilder) SetUser(name string) error     { return n.objectBuilder.SetUser(name) }
func (n *NodeBuilder) AddTags(tags []KV) error       { return n.objectBuilder.AddTags(tags) }
func (n *NodeBuilder) SetRemoved(removed bool) error { return n.objectBuilder.SetRemoved(removed) }

// SetLocation writes the node's coordinates. It is the node-specific
// tail sub-item and must be called at most once, after any SetUser /
// AddTags calls.
func (n *NodeBuilder) SetLocation(loc Location) error {
	if err := n.beginSpecific(); err != nil {
		return err
	}
	buf := make([]byte, locationSize)
	encodeLocation(buf, loc)
	return n.b.Write(buf)
}

// Finish completes the Node Item and returns a view over it.
func (n *NodeBuilder) Finish() (NodeView, error) {
	it, err := n.finish()
	if err != nil {
		return NodeView{}, err
	}
	return AsNodeView(it), nil
}

// Close rolls back an unfinished Node Builder.
func (n *NodeBuilder) Close() { n.close() }

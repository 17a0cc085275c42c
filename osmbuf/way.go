package osmbuf

// WayView is a read-only view over a Way item.
type WayView struct {
	ObjectView
}

// AsWayView interprets it as a Way. It panics if it.Tag() != TagWay.
func AsWayView(it Item) WayView {
	if it.Tag() != TagWay {
		panic("osmbuf: AsWayView called on a non-Way item")
	}
	return WayView{AsObjectView(it)}
}

// Nodes returns the way's ordered node ref list.
func (w WayView) Nodes() NodeRefListView {
	tail := w.specificTail()
	if len(tail) == 0 {
		return NodeRefListView{}
	}
	it := itemAt(tail, w.Item().align)
	if it.Tag() != TagNodeRefList {
		return NodeRefListView{}
	}
	return NodeRefListView{it: it}
}

// WayBuilder constructs a Way Item.
type WayBuilder struct {
	*objectBuilder
}

// NewWayBuilder starts building a Way into buf.
func NewWayBuilder(buf *Buffer, id int64, version, changeset uint32, timestamp int64, uid uint32, visible bool) (*WayBuilder, error) {
	ob, err := newObjectBuilder(buf, TagWay, id, version, changeset, timestamp, uid, visible)
	if err != nil {
		return nil, err
	}
	return &WayBuilder{ob}, nil
}

func (w *WayBuilder) SetUser(name string) error     { return w.objectBuilder.SetUser(name) }
func (w *WayBuilder) AddTags(tags []KV) error       { return w.objectBuilder.AddTags(tags) }
func (w *WayBuilder) SetRemoved(removed bool) error { return w.objectBuilder.SetRemoved(removed) }

// SetNodes writes the way's node ref list. Must be called at most once,
// after any SetUser / AddTags calls.
func (w *WayBuilder) SetNodes(ids []int64) error {
	if err := w.beginSpecific(); err != nil {
		return err
	}
	return addNodeRefList(w.b, ids)
}

// Finish completes the Way Item and returns a view over it.
func (w *WayBuilder) Finish() (WayView, error) {
	it, err := w.finish()
	if err != nil {
		return WayView{}, err
	}
	return AsWayView(it), nil
}

// Close rolls back an unfinished Way Builder.
func (w *WayBuilder) Close() { w.close() }

package osmbuf

import "encoding/binary"

const commentFixedSize = 4 + 8 // uid, timestamp

// Comment is a single changeset discussion comment.
type Comment struct {
	UserID    uint32
	Timestamp int64
	Text      string
}

// CommentView is a read-only view over a Comment item.
type CommentView struct {
	it Item
}

func (c CommentView) UserID() uint32 {
	return binary.LittleEndian.Uint32(c.it.Body()[0:4])
}

func (c CommentView) Timestamp() int64 {
	return int64(binary.LittleEndian.Uint64(c.it.Body()[4:12]))
}

func (c CommentView) Text() string {
	return string(trimNulPad(c.it.Body()[commentFixedSize:]))
}

// DiscussionView is a read-only view over a Changeset's discussion.
type DiscussionView struct {
	it Item
}

func (d DiscussionView) Valid() bool { return d.it.raw != nil }

// Each calls fn for every comment in order, stopping early if fn
// returns false.
func (d DiscussionView) Each(fn func(CommentView) bool) {
	if !d.Valid() {
		return
	}
	body := d.it.Body()
	for len(body) > 0 {
		it := itemAt(body, d.it.align)
		if !fn(CommentView{it: it}) {
			return
		}
		body = body[it.Size():]
	}
}

// ChangesetView is a read-only view over a Changeset item.
type ChangesetView struct {
	ObjectView
}

// AsChangesetView interprets it as a Changeset. It panics if
// it.Tag() != TagChangeset.
func AsChangesetView(it Item) ChangesetView {
	if it.Tag() != TagChangeset {
		panic("osmbuf: AsChangesetView called on a non-Changeset item")
	}
	return ChangesetView{AsObjectView(it)}
}

// Discussion returns the changeset's discussion, if any.
func (c ChangesetView) Discussion() DiscussionView {
	tail := c.specificTail()
	if len(tail) == 0 {
		return DiscussionView{}
	}
	it := itemAt(tail, c.Item().align)
	if it.Tag() != TagDiscussion {
		return DiscussionView{}
	}
	return DiscussionView{it: it}
}

// ChangesetBuilder constructs a Changeset Item.
type ChangesetBuilder struct {
	*objectBuilder
}

// NewChangesetBuilder starts building a Changeset into buf.
func NewChangesetBuilder(buf *Buffer, id int64, version, changeset uint32, timestamp int64, uid uint32, visible bool) (*ChangesetBuilder, error) {
	ob, err := newObjectBuilder(buf, TagChangeset, id, version, changeset, timestamp, uid, visible)
	if err != nil {
		return nil, err
	}
	return &ChangesetBuilder{ob}, nil
}

func (c *ChangesetBuilder) SetUser(name string) error { return c.objectBuilder.SetUser(name) }
func (c *ChangesetBuilder) AddTags(tags []KV) error   { return c.objectBuilder.AddTags(tags) }

// SetDiscussion writes the changeset's discussion comments. Must be
// called at most once, after any SetUser / AddTags calls.
func (c *ChangesetBuilder) SetDiscussion(comments []Comment) error {
	if len(comments) == 0 {
		return c.beginSpecific()
	}
	if err := c.beginSpecific(); err != nil {
		return err
	}
	disc, err := c.b.NewChild(TagDiscussion)
	if err != nil {
		return err
	}
	defer disc.Close()
	for _, cm := range comments {
		if err := addComment(disc, cm); err != nil {
			return err
		}
	}
	return disc.Finish()
}

func addComment(parent *Builder, cm Comment) error {
	child, err := parent.NewChild(TagComment)
	if err != nil {
		return err
	}
	defer child.Close()
	fixed := make([]byte, commentFixedSize)
	binary.LittleEndian.PutUint32(fixed[0:4], cm.UserID)
	binary.LittleEndian.PutUint64(fixed[4:12], uint64(cm.Timestamp))
	if err := child.Write(fixed); err != nil {
		return err
	}
	if err := child.Write([]byte(cm.Text)); err != nil {
		return err
	}
	return child.Finish()
}

// Finish completes the Changeset Item and returns a view over it.
func (c *ChangesetBuilder) Finish() (ChangesetView, error) {
	it, err := c.finish()
	if err != nil {
		return ChangesetView{}, err
	}
	return AsChangesetView(it), nil
}

// Close rolls back an unfinished Changeset Builder.
func (c *ChangesetBuilder) Close() { c.close() }

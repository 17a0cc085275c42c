package osmbuf

import "encoding/binary"

// NodeRefListView is a read-only view over a Way's packed array of
// 64-bit signed node ids.
type NodeRefListView struct {
	it Item
}

func (n NodeRefListView) Valid() bool { return n.it.raw != nil }

// Len returns the number of node refs.
func (n NodeRefListView) Len() int {
	if !n.Valid() {
		return 0
	}
	return len(n.it.Body()) / 8
}

// At returns the i'th node id.
func (n NodeRefListView) At(i int) int64 {
	body := n.it.Body()
	return int64(binary.LittleEndian.Uint64(body[i*8 : i*8+8]))
}

// Each calls fn for every node id in order, stopping early if fn
// returns false.
func (n NodeRefListView) Each(fn func(id int64) bool) {
	for i := 0; i < n.Len(); i++ {
		if !fn(n.At(i)) {
			return
		}
	}
}

// Slice materializes the node ref list as a []int64.
func (n NodeRefListView) Slice() []int64 {
	out := make([]int64, n.Len())
	for i := range out {
		out[i] = n.At(i)
	}
	return out
}

func addNodeRefList(parent *Builder, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	child, err := parent.NewChild(TagNodeRefList)
	if err != nil {
		return err
	}
	defer child.Close()
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:i*8+8], uint64(id))
	}
	if err := child.Write(buf); err != nil {
		return err
	}
	return child.Finish()
}

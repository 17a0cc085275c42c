package osmbuf

// TagListView is a read-only view over a TagList sub-item: a sequence
// of (key, value) pairs, each a null-terminated string packed back to
// back. The list's own size delimits it; there is no count prefix and
// no deduplication (deduplication into a StringTable, when it happens,
// is a PBF block-level concern, not part of this in-memory layout).
type TagListView struct {
	it Item
}

// Valid reports whether the view refers to an actual TagList item.
func (t TagListView) Valid() bool { return t.it.raw != nil }

// Each calls fn(key, value) for every tag in order. It stops early if
// fn returns false.
func (t TagListView) Each(fn func(key, value string) bool) {
	if !t.Valid() {
		return
	}
	body := t.it.Body()
	for len(body) > 0 {
		key, rest := readCString(body)
		val, rest2 := readCString(rest)
		if !fn(key, val) {
			return
		}
		body = rest2
	}
}

// Map collects the tag list into a map. Convenience for tests and small
// lists; production consumers should prefer Each to avoid the
// allocation.
func (t TagListView) Map() map[string]string {
	m := make(map[string]string)
	t.Each(func(k, v string) bool {
		m[k] = v
		return true
	})
	return m
}

func readCString(b []byte) (string, []byte) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:]
		}
	}
	return string(b), nil
}

// addTagList writes a full TagList sub-item (header + packed pairs)
// into parent, with one Write call for each key and one for each value.
func addTagList(parent *Builder, tags []KV) error {
	if len(tags) == 0 {
		return nil
	}
	child, err := parent.NewChild(TagTagList)
	if err != nil {
		return err
	}
	defer child.Close()
	for _, kv := range tags {
		if err := child.Write(cString(kv.Key)); err != nil {
			return err
		}
		if err := child.Write(cString(kv.Value)); err != nil {
			return err
		}
	}
	return child.Finish()
}

func cString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// KV is a single tag (key, value) pair, used by the typed Builders'
// AddTags method.
type KV struct {
	Key, Value string
}

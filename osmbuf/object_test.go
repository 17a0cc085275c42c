package osmbuf

import "testing"

func TestNodeRoundTrip(t *testing.T) {
	buf := NewBuffer(256)
	nb, err := NewNodeBuilder(buf, 1, 1, 42, 1000, 7, true)
	if err != nil {
		t.Fatal(err)
	}
	defer nb.Close()
	if err := nb.SetUser("alice"); err != nil {
		t.Fatal(err)
	}
	if err := nb.AddTags([]KV{{Key: "natural", Value: "peak"}}); err != nil {
		t.Fatal(err)
	}
	if err := nb.SetLocation(LocationFromDegrees(50.0, 10.0)); err != nil {
		t.Fatal(err)
	}
	view, err := nb.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Commit(); err != nil {
		t.Fatal(err)
	}

	if view.ID() != 1 || view.Version() != 1 || view.Changeset() != 42 {
		t.Fatalf("unexpected fixed fields: %+v", view)
	}
	if name, ok := view.UserName(); !ok || name != "alice" {
		t.Fatalf("expected user alice, got %q (%v)", name, ok)
	}
	if v := view.Tags().Map()["natural"]; v != "peak" {
		t.Fatalf("expected tag natural=peak, got %q", v)
	}
	loc := view.Location()
	if loc.LatE7 != 500000000 || loc.LonE7 != 100000000 {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestRelationMemberOrderPreserved(t *testing.T) {
	buf := NewBuffer(512)
	rb, err := NewRelationBuilder(buf, 9, 1, 1, 0, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	defer rb.Close()
	members := []Member{
		{Ref: 5, Type: TagNode, Role: "start"},
		{Ref: 7, Type: TagWay, Role: "via"},
		{Ref: 9, Type: TagRelation, Role: "end"},
	}
	if err := rb.SetMembers(members); err != nil {
		t.Fatal(err)
	}
	view, err := rb.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Commit(); err != nil {
		t.Fatal(err)
	}

	var got []Member
	view.Members().Each(func(m MemberView) bool {
		got = append(got, Member{Ref: m.Ref(), Type: m.Type(), Role: m.Role()})
		return true
	})
	if len(got) != len(members) {
		t.Fatalf("got %d members, want %d", len(got), len(members))
	}
	for i := range members {
		if got[i] != members[i] {
			t.Fatalf("member %d: got %+v, want %+v", i, got[i], members[i])
		}
	}
}

func TestChangesetDiscussion(t *testing.T) {
	buf := NewBuffer(512)
	cb, err := NewChangesetBuilder(buf, 1, 1, 1, 0, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	defer cb.Close()
	comments := []Comment{
		{UserID: 1, Timestamp: 10, Text: "looks good"},
		{UserID: 2, Timestamp: 20, Text: "thanks"},
	}
	if err := cb.SetDiscussion(comments); err != nil {
		t.Fatal(err)
	}
	view, err := cb.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Commit(); err != nil {
		t.Fatal(err)
	}

	var texts []string
	view.Discussion().Each(func(c CommentView) bool {
		texts = append(texts, c.Text())
		return true
	})
	if len(texts) != 2 || texts[0] != "looks good" || texts[1] != "thanks" {
		t.Fatalf("unexpected comments: %v", texts)
	}
}

func TestPurgeRemoved(t *testing.T) {
	buf := NewBuffer(512)
	for i, removed := range []bool{false, true, false} {
		nb, err := NewNodeBuilder(buf, int64(i), 1, 1, 0, 0, true)
		if err != nil {
			t.Fatal(err)
		}
		if removed {
			if err := nb.SetRemoved(true); err != nil {
				t.Fatal(err)
			}
		}
		if err := nb.SetLocation(Location{LatE7: CoordUndefined, LonE7: CoordUndefined}); err != nil {
			t.Fatal(err)
		}
		if _, err := nb.Finish(); err != nil {
			t.Fatal(err)
		}
		if _, err := buf.Commit(); err != nil {
			t.Fatal(err)
		}
	}

	var shifted []int
	buf.PurgeRemoved(func(old, new int) {
		shifted = append(shifted, new)
	})

	var ids []int64
	it := buf.Objects()
	for item, ok := it.Next(); ok; item, ok = it.Next() {
		ids = append(ids, AsObjectView(item).ID())
	}
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 2 {
		t.Fatalf("expected surviving ids [0 2], got %v", ids)
	}
	if len(shifted) != 1 {
		t.Fatalf("expected exactly one shifted item, got %d", len(shifted))
	}
}

func TestPurgeRemovedIdempotent(t *testing.T) {
	buf := NewBuffer(256)
	nb, err := NewNodeBuilder(buf, 1, 1, 1, 0, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := nb.Finish(); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Commit(); err != nil {
		t.Fatal(err)
	}
	before := buf.Committed()
	buf.PurgeRemoved(nil)
	if buf.Committed() != before {
		t.Fatalf("purge on a buffer with no removed items should be a no-op")
	}
	buf.PurgeRemoved(nil)
	if buf.Committed() != before {
		t.Fatalf("applying purge twice should equal applying once")
	}
}

package osmbuf

import "testing"

func TestBuilderAbnormalExitRollsBack(t *testing.T) {
	buf := NewBuffer(256)
	b, err := NewBuilder(buf, TagNode)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Write(make([]byte, 32)); err != nil {
		t.Fatal(err)
	}
	// simulate an abnormal exit: never call Finish, just Close.
	b.Close()

	if buf.Written() != buf.Committed() {
		t.Fatalf("expected written to be rolled back to committed, written=%d committed=%d", buf.Written(), buf.Committed())
	}
}

func TestBuilderFinishAfterCloseIsNoop(t *testing.T) {
	buf := NewBuffer(256)
	b, err := NewBuilder(buf, TagNode)
	if err != nil {
		t.Fatal(err)
	}
	b.Close()
	if err := b.Finish(); err != nil {
		t.Fatalf("Finish after Close should be a no-op, got %v", err)
	}
}

func TestBuilderNonLIFOFinishFails(t *testing.T) {
	buf := NewBuffer(256)
	parent, err := NewBuilder(buf, TagRelation)
	if err != nil {
		t.Fatal(err)
	}
	defer parent.Close()
	if err := parent.Write(make([]byte, objectBodyFixedSize)); err != nil {
		t.Fatal(err)
	}
	child, err := parent.NewChild(TagRelationMemberList)
	if err != nil {
		t.Fatal(err)
	}
	defer child.Close()

	// finishing the parent while the child is still open must fail.
	if err := parent.Finish(); err == nil {
		t.Fatal("expected non-LIFO Finish to fail")
	}
}

func TestNestedBuilderSizeIncludesChild(t *testing.T) {
	buf := NewBuffer(256)
	wb, err := NewWayBuilder(buf, 1, 1, 1, 0, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()
	if err := wb.SetNodes([]int64{10, 12, 11}); err != nil {
		t.Fatal(err)
	}
	view, err := wb.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Commit(); err != nil {
		t.Fatal(err)
	}
	got := view.Nodes().Slice()
	want := []int64{10, 12, 11}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if view.Item().Size()%buf.Align() != 0 {
		t.Fatalf("item size %d is not aligned to %d", view.Item().Size(), buf.Align())
	}
}

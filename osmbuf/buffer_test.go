package osmbuf

import "testing"

func TestBufferEmptyIteratesEmpty(t *testing.T) {
	buf := NewBuffer(64)
	it := buf.IterAll()
	if _, ok := it.Next(); ok {
		t.Fatal("expected empty buffer to iterate as empty")
	}
}

func TestBufferReserveCommitRollback(t *testing.T) {
	buf := NewBuffer(64)
	span, err := buf.ReserveSpace(16)
	if err != nil {
		t.Fatal(err)
	}
	if len(span) != 16 {
		t.Fatalf("expected span of 16 bytes, got %d", len(span))
	}
	if buf.Written() != 16 {
		t.Fatalf("expected written=16, got %d", buf.Written())
	}
	prev, err := buf.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if prev != 0 {
		t.Fatalf("expected prior committed=0, got %d", prev)
	}
	if buf.Committed() != 16 {
		t.Fatalf("expected committed=16, got %d", buf.Committed())
	}

	if _, err := buf.ReserveSpace(8); err != nil {
		t.Fatal(err)
	}
	buf.Rollback()
	if buf.Written() != buf.Committed() {
		t.Fatalf("rollback should reset written to committed")
	}
}

func TestBufferCommitRequiresAlignment(t *testing.T) {
	buf := NewBuffer(64)
	if _, err := buf.ReserveSpace(3); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Commit(); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBufferFullWithoutAutoGrow(t *testing.T) {
	buf := newBuffer(16, DefaultAlign, false)
	if _, err := buf.ReserveSpace(16); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.ReserveSpace(8); err != ErrBufferFull {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
}

func TestBufferAutoGrow(t *testing.T) {
	buf := NewBuffer(8)
	if _, err := buf.ReserveSpace(1 << 20); err != nil {
		t.Fatal(err)
	}
	if buf.Capacity() < 1<<20 {
		t.Fatalf("expected capacity to grow to at least 1MiB, got %d", buf.Capacity())
	}
}

func TestExternalBufferNeverGrows(t *testing.T) {
	data := make([]byte, 8)
	buf := WrapExternal(data)
	if _, err := buf.ReserveSpace(1); err != ErrBufferFull {
		t.Fatalf("expected ErrBufferFull for external buffer, got %v", err)
	}
}

func TestSentinelBufferIsInvalid(t *testing.T) {
	var sentinel *Buffer
	if sentinel.Valid() {
		t.Fatal("nil buffer should not be valid")
	}
}

func TestAddBufferCopiesCommittedPrefix(t *testing.T) {
	src := NewBuffer(64)
	nb, err := NewNodeBuilder(src, 1, 1, 1, 100, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	defer nb.Close()
	if _, err := nb.Finish(); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Commit(); err != nil {
		t.Fatal(err)
	}

	dst := NewBuffer(64)
	if err := dst.AddBuffer(src); err != nil {
		t.Fatal(err)
	}
	if dst.Committed() != src.Committed() {
		t.Fatalf("expected dst committed %d to equal src committed %d", dst.Committed(), src.Committed())
	}
}

package osmbuf

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
)

// syntheticID derives a deterministic, non-zero uint32 from a random
// UUID, standing in for the kind of externally-assigned id a real
// changeset or user would carry.
func syntheticID(u uuid.UUID) uint32 {
	v := binary.BigEndian.Uint32(u[:4])
	if v == 0 {
		v = 1
	}
	return v
}

func TestChangesetRoundTripWithDiscussion(t *testing.T) {
	changeset := syntheticID(uuid.New())
	commenter := syntheticID(uuid.New())

	buf := NewBuffer(512)
	cb, err := NewChangesetBuilder(buf, int64(changeset), 1, changeset, 1700000000, commenter, true)
	if err != nil {
		t.Fatal(err)
	}
	defer cb.Close()
	if err := cb.SetUser("mapper"); err != nil {
		t.Fatal(err)
	}
	if err := cb.AddTags([]KV{{Key: "comment", Value: "survey import"}}); err != nil {
		t.Fatal(err)
	}
	if err := cb.SetDiscussion([]Comment{
		{UserID: commenter, Timestamp: 1700000100, Text: "looks good"},
		{UserID: commenter, Timestamp: 1700000200, Text: "merged"},
	}); err != nil {
		t.Fatal(err)
	}
	view, err := cb.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Commit(); err != nil {
		t.Fatal(err)
	}

	if view.ID() != int64(changeset) {
		t.Fatalf("unexpected id: got %d want %d", view.ID(), changeset)
	}
	disc := view.Discussion()
	if !disc.Valid() {
		t.Fatal("expected a valid discussion")
	}
	var texts []string
	disc.Each(func(c CommentView) bool {
		texts = append(texts, c.Text())
		return true
	})
	if len(texts) != 2 || texts[0] != "looks good" || texts[1] != "merged" {
		t.Fatalf("unexpected comments: %v", texts)
	}
}

func TestChangesetWithoutDiscussion(t *testing.T) {
	buf := NewBuffer(256)
	cb, err := NewChangesetBuilder(buf, 1, 1, 1, 0, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	defer cb.Close()
	if err := cb.SetDiscussion(nil); err != nil {
		t.Fatal(err)
	}
	view, err := cb.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if view.Discussion().Valid() {
		t.Fatal("expected no discussion")
	}
}

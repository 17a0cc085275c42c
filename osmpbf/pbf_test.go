package osmpbf

import (
	"bytes"
	"testing"

	"github.com/osmbuf/osmbuf/osmbuf"
)

func buildSampleBuffer(t *testing.T) *osmbuf.Buffer {
	t.Helper()
	buf := osmbuf.NewBuffer(1 << 12)

	n, err := osmbuf.NewNodeBuilder(buf, 1, 3, 100, 1700000000, 42, true)
	if err != nil {
		t.Fatalf("NewNodeBuilder: %v", err)
	}
	if err := n.SetUser("alice"); err != nil {
		t.Fatal(err)
	}
	if err := n.AddTags([]osmbuf.KV{{Key: "amenity", Value: "cafe"}}); err != nil {
		t.Fatal(err)
	}
	if err := n.SetLocation(osmbuf.LocationFromDegrees(48.8566, 2.3522)); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Finish(); err != nil {
		t.Fatal(err)
	}

	n2, err := osmbuf.NewNodeBuilder(buf, 2, 1, 100, 1700000000, 42, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := n2.SetLocation(osmbuf.LocationFromDegrees(48.86, 2.35)); err != nil {
		t.Fatal(err)
	}
	if _, err := n2.Finish(); err != nil {
		t.Fatal(err)
	}

	w, err := osmbuf.NewWayBuilder(buf, 10, 1, 100, 1700000000, 42, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddTags([]osmbuf.KV{{Key: "highway", Value: "residential"}}); err != nil {
		t.Fatal(err)
	}
	if err := w.SetNodes([]int64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Finish(); err != nil {
		t.Fatal(err)
	}

	r, err := osmbuf.NewRelationBuilder(buf, 20, 1, 100, 1700000000, 42, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.AddTags([]osmbuf.KV{{Key: "type", Value: "multipolygon"}}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetMembers([]osmbuf.Member{
		{Ref: 10, Type: osmbuf.TagWay, Role: "outer"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Finish(); err != nil {
		t.Fatal(err)
	}

	return buf
}

func countKinds(buf *osmbuf.Buffer) (nodes, ways, rels int) {
	it := buf.Objects()
	for item, ok := it.Next(); ok; item, ok = it.Next() {
		switch item.Tag() {
		case osmbuf.TagNode:
			nodes++
		case osmbuf.TagWay:
			ways++
		case osmbuf.TagRelation:
			rels++
		}
	}
	return
}

func TestWriterReaderRoundTripDense(t *testing.T) {
	src := buildSampleBuffer(t)

	var out bytes.Buffer
	w, err := NewWriter(&out, Header{WritingProgram: "osmbuf-test"}, WriterConfig{
		DenseNodes:  true,
		AddMetadata: true,
	})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteBuffer(src); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	var gotNodes, gotWays, gotRels int
	for {
		buf, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if buf == nil {
			break
		}
		n, w, rl := countKinds(buf)
		gotNodes += n
		gotWays += w
		gotRels += rl
	}
	if gotNodes != 2 || gotWays != 1 || gotRels != 1 {
		t.Fatalf("got nodes=%d ways=%d rels=%d, want 2/1/1", gotNodes, gotWays, gotRels)
	}
}

func TestWriterReaderRoundTripPlainNodes(t *testing.T) {
	src := buildSampleBuffer(t)

	var out bytes.Buffer
	w, err := NewWriter(&out, Header{}, WriterConfig{DenseNodes: false, AddMetadata: false})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBuffer(src); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Header().WritingProgram != "" {
		t.Fatal("unexpected writing program")
	}

	var gotNodes, gotWays, gotRels int
	for {
		buf, err := r.Next()
		if err != nil {
			t.Fatal(err)
		}
		if buf == nil {
			break
		}
		n, w, rl := countKinds(buf)
		gotNodes += n
		gotWays += w
		gotRels += rl
	}
	if gotNodes != 2 || gotWays != 1 || gotRels != 1 {
		t.Fatalf("got nodes=%d ways=%d rels=%d, want 2/1/1", gotNodes, gotWays, gotRels)
	}
}

func TestLatLonRoundTrip(t *testing.T) {
	loc := osmbuf.LocationFromDegrees(48.8566009, -2.3522001)
	raw := latLonToRaw(loc.LatE7, 0, defaultGranularity)
	back := rawToLatLon(raw, 0, defaultGranularity)
	if back != loc.LatE7 {
		t.Fatalf("lat round trip: got %d want %d", back, loc.LatE7)
	}
	raw2 := latLonToRaw(loc.LonE7, 0, defaultGranularity)
	back2 := rawToLatLon(raw2, 0, defaultGranularity)
	if back2 != loc.LonE7 {
		t.Fatalf("lon round trip: got %d want %d", back2, loc.LonE7)
	}
}

func TestDeltaEncodeDecode(t *testing.T) {
	vals := []int64{5, 5, 6, 100, -50}
	deltas := deltaEncode(vals)
	got := deltaDecode(deltas)
	if len(got) != len(vals) {
		t.Fatalf("length mismatch")
	}
	for i := range vals {
		if got[i] != vals[i] {
			t.Fatalf("index %d: got %d want %d", i, got[i], vals[i])
		}
	}
}

func TestBlobSizeLimit(t *testing.T) {
	big := make([]byte, MaxUncompressedBlobSize+1)
	_, err := encodeBlob(big, CompressionNone)
	if err != nil {
		t.Fatalf("encodeBlob should not itself reject oversized raw blobs: %v", err)
	}
	bl := blob{Raw: big}
	if _, err := bl.payload(); err == nil {
		t.Fatal("expected FormatError for oversized raw blob")
	}
}

func TestStringTableInternReuse(t *testing.T) {
	st := newStringTable()
	a := st.Intern("amenity")
	b := st.Intern("cafe")
	a2 := st.Intern("amenity")
	if a != a2 {
		t.Fatalf("Intern should return the same index for repeated strings")
	}
	if a == b {
		t.Fatalf("distinct strings must get distinct indices")
	}
	if got, ok := st.Get(0); !ok || got != "" {
		t.Fatalf("index 0 must be the reserved empty string")
	}

	st.reset()
	if st.Len() != 1 {
		t.Fatalf("reset should leave only the reserved empty string, got len %d", st.Len())
	}
	if c := st.Intern("amenity"); c != 1 {
		t.Fatalf("reset should let indices be reassigned from 1, got %d", c)
	}
}

func TestHeaderUnknownRequiredFeatureRejected(t *testing.T) {
	body := encodeHeader(Header{RequiredFeatures: []string{"SomeFutureFeature"}})
	if _, err := decodeHeader(body); err == nil {
		t.Fatal("expected FormatError for unknown required feature")
	}
}

// TestRoundTripPreservesObjectEquality exercises the §8 testable
// property that decode(encode_pbf(b)) yields a Buffer equal to b under
// osmbuf.Equal (same ids, versions, tags, geometries, member lists,
// visible bits).
func TestRoundTripPreservesObjectEquality(t *testing.T) {
	src := buildSampleBuffer(t)

	var out bytes.Buffer
	w, err := NewWriter(&out, Header{}, WriterConfig{DenseNodes: true, AddMetadata: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBuffer(src); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	want := itemsByID(src)
	var got []osmbuf.Item
	for {
		buf, err := r.Next()
		if err != nil {
			t.Fatal(err)
		}
		if buf == nil {
			break
		}
		it := buf.Objects()
		for item, ok := it.Next(); ok; item, ok = it.Next() {
			got = append(got, item)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got %d objects, want %d", len(got), len(want))
	}
	for _, g := range got {
		wantItem, ok := want[objectKey(g)]
		if !ok {
			t.Fatalf("unexpected object %d/%v in round trip", osmbuf.AsObjectView(g).ID(), g.Tag())
		}
		if !osmbuf.Equal(g, wantItem) {
			t.Fatalf("object %d/%v not equal after round trip", osmbuf.AsObjectView(g).ID(), g.Tag())
		}
	}
}

type objID struct {
	tag osmbuf.Tag
	id  int64
}

func objectKey(it osmbuf.Item) objID {
	return objID{tag: it.Tag(), id: osmbuf.AsObjectView(it).ID()}
}

func itemsByID(buf *osmbuf.Buffer) map[objID]osmbuf.Item {
	m := make(map[objID]osmbuf.Item)
	it := buf.Objects()
	for item, ok := it.Next(); ok; item, ok = it.Next() {
		m[objectKey(item)] = item
	}
	return m
}

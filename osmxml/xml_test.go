package osmxml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/osmbuf/osmbuf/osmbuf"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="48.8566000" lon="2.3522000" version="3" changeset="100" timestamp="2023-11-14T22:13:20Z" uid="42" user="alice" visible="true">
    <tag k="amenity" v="cafe"/>
  </node>
  <node id="2" lat="48.8600000" lon="2.3500000" version="1" visible="true"/>
  <way id="10" version="1" visible="true">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="residential"/>
  </way>
  <relation id="20" version="1" visible="true">
    <member type="way" ref="10" role="outer"/>
    <tag k="type" v="multipolygon"/>
  </relation>
</osm>
`

func decodeAll(t *testing.T, r *strings.Reader) (nodes, ways, rels int) {
	t.Helper()
	d := NewDecoder(r)
	for {
		buf, err := d.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if buf == nil {
			break
		}
		n, w, rl := countKinds(buf)
		nodes += n
		ways += w
		rels += rl
	}
	return
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

func TestDecodeSampleDocument(t *testing.T) {
	n, w, r := decodeAll(t, strings.NewReader(sampleDoc))
	if n != 2 || w != 1 || r != 1 {
		t.Fatalf("got nodes=%d ways=%d rels=%d, want 2/1/1", n, w, r)
	}
}

func buildSampleBuffer(t *testing.T) *osmbuf.Buffer {
	t.Helper()
	buf := osmbuf.NewBuffer(1 << 12)

	n, err := osmbuf.NewNodeBuilder(buf, 1, 3, 100, 1700000000, 42, true)
	if err != nil {
		t.Fatal(err)
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

	w, err := osmbuf.NewWayBuilder(buf, 10, 1, 100, 1700000000, 42, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.SetNodes([]int64{1}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Finish(); err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := buildSampleBuffer(t)

	var out bytes.Buffer
	enc, err := NewEncoder(&out, EncoderConfig{Generator: "osmbuf-test"})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if err := enc.WriteBuffer(src); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	n, w, rl := decodeAll(t, strings.NewReader(out.String()))
	if n != 1 || w != 1 || rl != 0 {
		t.Fatalf("got nodes=%d ways=%d rels=%d, want 1/1/0", n, w, rl)
	}
}

func TestEncodeOsmChangeDeleteForcesInvisible(t *testing.T) {
	buf := osmbuf.NewBuffer(1 << 10)
	n, err := osmbuf.NewNodeBuilder(buf, 5, 2, 1, 1700000000, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := n.SetLocation(osmbuf.Location{LatE7: osmbuf.CoordUndefined, LonE7: osmbuf.CoordUndefined}); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Finish(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	enc, err := NewEncoder(&out, EncoderConfig{ChangeFormat: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.WriteBuffer(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	doc := out.String()
	if !strings.Contains(doc, "<delete>") {
		t.Fatalf("expected <delete> wrapper in output:\n%s", doc)
	}
	if !strings.Contains(doc, `visible="false"`) {
		t.Fatalf("expected visible=\"false\" in output:\n%s", doc)
	}
}

func TestDecodeOsmChangeDeleteForcesInvisible(t *testing.T) {
	const doc = `<?xml version="1.0" encoding="UTF-8"?>
<osmChange version="0.6" generator="test">
  <delete>
    <node id="5" version="2" visible="true"/>
  </delete>
</osmChange>
`
	d := NewDecoder(strings.NewReader(doc))
	buf, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if buf == nil {
		t.Fatal("expected a decoded buffer")
	}
	it := buf.Objects()
	item, ok := it.Next()
	if !ok {
		t.Fatal("expected one object")
	}
	view := osmbuf.AsNodeView(item)
	if view.Visible() {
		t.Fatal("node inside <delete> must be forced invisible regardless of source attribute")
	}
}

// TestRoundTripPreservesObjectEquality exercises the §8 testable
// property that decode(encode_xml(b)) yields a Buffer equal to b under
// osmbuf.Equal.
func TestRoundTripPreservesObjectEquality(t *testing.T) {
	src := buildSampleBuffer(t)

	var out bytes.Buffer
	enc, err := NewEncoder(&out, EncoderConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.WriteBuffer(src); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	want := make(map[int64]osmbuf.Item)
	sit := src.Objects()
	for item, ok := sit.Next(); ok; item, ok = sit.Next() {
		want[osmbuf.AsObjectView(item).ID()] = item
	}

	d := NewDecoder(strings.NewReader(out.String()))
	var got []osmbuf.Item
	for {
		buf, err := d.Next()
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
		w, ok := want[osmbuf.AsObjectView(g).ID()]
		if !ok {
			t.Fatalf("unexpected object id %d in round trip", osmbuf.AsObjectView(g).ID())
		}
		if !osmbuf.Equal(g, w) {
			t.Fatalf("object %d not equal after XML round trip", osmbuf.AsObjectView(g).ID())
		}
	}
}

func TestEscapeAttrEscapesControlChars(t *testing.T) {
	in := "a&b\"c'd<e>f\ng\rh\ti"
	got := escapeAttr(in)
	for _, want := range []string{"&amp;", "&quot;", "&apos;", "&lt;", "&gt;", "&#10;", "&#13;", "&#9;"} {
		if !strings.Contains(got, want) {
			t.Fatalf("escapeAttr(%q) = %q, missing %q", in, got, want)
		}
	}
}

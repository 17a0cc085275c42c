package osm

import (
	"bytes"
	"testing"

	"github.com/osmbuf/osmbuf/osmbuf"
)

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"planet.osm":      FormatXML,
		"changes.osc":     FormatXMLChange,
		"planet.osm.pbf":  FormatPBF,
		"extract.pbf":     FormatPBF,
		"planet.osm.gz":   FormatXMLGzip,
		"planet.osm.bz2":  FormatXMLBzip2,
		"notes.txt":       FormatUnknown,
		"PLANET.OSM.PBF":  FormatPBF,
	}
	for name, want := range cases {
		if got := DetectFormat(name); got != want {
			t.Errorf("DetectFormat(%q) = %v, want %v", name, got, want)
		}
	}
}

func buildSample(t *testing.T) *osmbuf.Buffer {
	t.Helper()
	buf := osmbuf.NewBuffer(1 << 12)
	n, err := osmbuf.NewNodeBuilder(buf, 1, 1, 0, 0, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := n.SetLocation(osmbuf.LocationFromDegrees(1, 2)); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Finish(); err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestRoundTripPBF(t *testing.T) {
	src := buildSample(t)
	var out bytes.Buffer
	w, err := NewWriter(&out, File{Format: FormatPBF, PBFDenseNodes: true, AddMetadata: true, PBFCompression: "zlib"})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBuffer(src); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(out.Bytes()), File{Format: FormatPBF})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	buf, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if buf == nil {
		t.Fatal("expected a buffer")
	}
}

func TestRoundTripXML(t *testing.T) {
	src := buildSample(t)
	var out bytes.Buffer
	w, err := NewWriter(&out, File{Format: FormatXML})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBuffer(src); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(out.Bytes()), File{Format: FormatXML})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	buf, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if buf == nil {
		t.Fatal("expected a buffer")
	}
}

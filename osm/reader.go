package osm

import (
	"io"

	"github.com/osmbuf/osmbuf/osmbuf"
	"github.com/osmbuf/osmbuf/pool"
	"github.com/osmbuf/osmbuf/osmpbf"
	"github.com/osmbuf/osmbuf/osmxml"
)

// Reader yields a stream of osmbuf.Buffers from either dialect,
// dispatching to osmxml.Decoder or osmpbf.Reader based on the File's
// Format (§6 "External interfaces").
type Reader struct {
	xml *osmxml.Decoder
	pbf *osmpbf.Reader
}

// NewReader opens r for reading according to f. The caller is
// responsible for unwrapping gzip/bzip2 compression before calling
// NewReader when f.Format.Compressed() (§6).
func NewReader(r io.Reader, f File) (*Reader, error) {
	if f.Format.IsXML() {
		return &Reader{xml: osmxml.NewDecoder(r)}, nil
	}
	opts := []osmpbf.ReaderOption{}
	if f.Pool != nil {
		opts = append(opts, osmpbf.WithPool(f.Pool))
	}
	pr, err := osmpbf.NewReader(r, opts...)
	if err != nil {
		return nil, err
	}
	return &Reader{pbf: pr}, nil
}

// Next returns the next decoded Buffer, or (nil, nil) at end of
// stream.
func (r *Reader) Next() (*osmbuf.Buffer, error) {
	if r.xml != nil {
		return r.xml.Next()
	}
	return r.pbf.Next()
}

// Header returns the decoded PBF OSMHeader. It is the zero Header for
// an XML source, which carries no equivalent block.
func (r *Reader) Header() osmpbf.Header {
	if r.pbf != nil {
		return r.pbf.Header()
	}
	return osmpbf.Header{}
}

// Close joins the reader's background decode goroutine(s).
func (r *Reader) Close() error {
	if r.xml != nil {
		return r.xml.Close()
	}
	return r.pbf.Close()
}

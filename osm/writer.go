package osm

import (
	"io"

	"github.com/osmbuf/osmbuf/osmbuf"
	"github.com/osmbuf/osmbuf/osmpbf"
	"github.com/osmbuf/osmbuf/osmxml"
)

// Writer serializes a stream of osmbuf.Buffers to either dialect,
// dispatching to osmxml.Encoder or osmpbf.Writer based on the File's
// Format.
type Writer struct {
	xml *osmxml.Encoder
	pbf *osmpbf.Writer
}

// pbfCompression maps the File's string compression key to the
// osmpbf package's constants, rejecting the historical "lzma" value
// per §9 Open Question (b).
func pbfCompression(key string) (string, error) {
	switch key {
	case "", "zlib":
		return osmpbf.CompressionZlib, nil
	case "none", "false":
		return osmpbf.CompressionNone, nil
	default:
		return "", osmbuf.NewFormatError("unsupported pbf_compression value "+key, nil)
	}
}

// NewWriter opens w for writing according to f.
func NewWriter(w io.Writer, f File) (*Writer, error) {
	if f.Format.IsXML() {
		enc, err := osmxml.NewEncoder(w, osmxml.EncoderConfig{
			ChangeFormat: f.XMLChangeFormat,
			Pool:         f.Pool,
		})
		if err != nil {
			return nil, err
		}
		return &Writer{xml: enc}, nil
	}

	comp, err := pbfCompression(f.PBFCompression)
	if err != nil {
		return nil, err
	}
	pw, err := osmpbf.NewWriter(w, osmpbf.Header{}, osmpbf.WriterConfig{
		DenseNodes:  f.PBFDenseNodes,
		AddMetadata: f.AddMetadata,
		Compression: comp,
		Pool:        f.Pool,
	})
	if err != nil {
		return nil, err
	}
	return &Writer{pbf: pw}, nil
}

// WriteBuffer submits buf for (de)serialization.
func (w *Writer) WriteBuffer(buf *osmbuf.Buffer) error {
	if w.xml != nil {
		return w.xml.WriteBuffer(buf)
	}
	return w.pbf.WriteBuffer(buf)
}

// Close flushes any buffered output and joins background work.
func (w *Writer) Close() error {
	if w.xml != nil {
		return w.xml.Close()
	}
	return w.pbf.Close()
}

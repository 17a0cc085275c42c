package osmpbf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compressor and Decompressor mirror the interface the teacher package
// (github.com/SnellerInc/sneller/compr) uses to make its block codec
// pluggable across compression algorithms; osmpbf only ships a zlib
// implementation (the only one the PBF spec requires). Blob decode and
// encode call the Zlib value directly, so there is no hook through which
// a caller can swap in another algorithm.
type Compressor interface {
	Name() string
	Compress(src []byte) ([]byte, error)
}

type Decompressor interface {
	Name() string
	Decompress(src []byte, sizeHint int) ([]byte, error)
}

type zlibCodec struct{}

func (zlibCodec) Name() string { return "zlib" }

func (zlibCodec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (zlibCodec) Decompress(src []byte, sizeHint int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	dst := make([]byte, 0, sizeHint)
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Zlib is the zlib Compressor/Decompressor pair used by default.
var Zlib = zlibCodec{}

// CompressionNone is used for "pbf_compression=none": the blob's raw
// bytes are stored verbatim.
const CompressionNone = "none"

// CompressionZlib is the default pbf_compression value.
const CompressionZlib = "zlib"

// CompressionLZMA is recognized (it appears in historical OSM data, per
// the PBF file_compression option) but not supported: decoding such a
// blob is a FormatError rather than silently producing garbage.
const CompressionLZMA = "lzma"

func unsupportedCompression(name string) error {
	return fmt.Errorf("osmpbf: unsupported blob compression %q", name)
}

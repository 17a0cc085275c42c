package osmpbf

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/osmbuf/osmbuf/osmbuf"
	"google.golang.org/protobuf/encoding/protowire"
)

// MaxUncompressedBlobSize is the largest a decompressed Blob payload
// may be (§4.G).
const MaxUncompressedBlobSize = 32 * 1024 * 1024

// MaxUsedBlobSize is the targeted fill ratio the encoder aims for when
// deciding to flush a block.
const MaxUsedBlobSize = int(float64(MaxUncompressedBlobSize) * 0.95)

// MaxEntitiesPerGroup bounds the number of objects batched into a
// single PrimitiveGroup / XML block (§4.F, §4.G).
const MaxEntitiesPerGroup = 8000

const (
	blobHeaderTypeField      protowire.Number = 1
	blobHeaderIndexDataField protowire.Number = 2
	blobHeaderDataSizeField  protowire.Number = 3

	blobRawField      protowire.Number = 1
	blobRawSizeField  protowire.Number = 2
	blobZlibDataField protowire.Number = 3
	blobLzmaDataField protowire.Number = 4
)

// BlobType is the BlobHeader.type discriminant.
type BlobType string

const (
	BlobOSMHeader BlobType = "OSMHeader"
	BlobOSMData   BlobType = "OSMData"
)

type blobHeader struct {
	Type      BlobType
	IndexData []byte
	DataSize  int32
}

func encodeBlobHeader(h blobHeader) []byte {
	var b []byte
	b = appendStringField(b, blobHeaderTypeField, string(h.Type))
	if h.IndexData != nil {
		b = appendBytesField(b, blobHeaderIndexDataField, h.IndexData)
	}
	b = appendVarintField(b, blobHeaderDataSizeField, uint64(h.DataSize))
	return b
}

func decodeBlobHeader(b []byte) (blobHeader, error) {
	var h blobHeader
	var haveType, haveSize bool
	err := eachField(b, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case blobHeaderTypeField:
			h.Type = BlobType(val)
			haveType = true
		case blobHeaderIndexDataField:
			h.IndexData = append([]byte(nil), val...)
		case blobHeaderDataSizeField:
			h.DataSize = int32(varintValue(val))
			haveSize = true
		}
		return nil
	})
	if err != nil {
		return blobHeader{}, osmbuf.NewFormatError("decoding BlobHeader", err)
	}
	if !haveType || !haveSize {
		return blobHeader{}, osmbuf.NewFormatError("BlobHeader missing required field", nil)
	}
	return h, nil
}

// blob is the decoded form of a Blob message: either raw bytes or a
// zlib-compressed payload with its uncompressed size.
type blob struct {
	Raw      []byte // set if uncompressed
	RawSize  int32  // uncompressed size, set whenever known
	ZlibData []byte // set if zlib-compressed
	LzmaData []byte // recognized, unsupported
}

func encodeBlob(payload []byte, comp string) ([]byte, error) {
	var b []byte
	switch comp {
	case CompressionNone, "":
		b = appendBytesField(b, blobRawField, payload)
	case CompressionZlib:
		compressed, err := Zlib.Compress(payload)
		if err != nil {
			return nil, err
		}
		b = appendVarintField(b, blobRawSizeField, uint64(len(payload)))
		b = appendBytesField(b, blobZlibDataField, compressed)
	default:
		return nil, unsupportedCompression(comp)
	}
	return b, nil
}

func decodeBlob(b []byte) (blob, error) {
	var bl blob
	err := eachField(b, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case blobRawField:
			bl.Raw = append([]byte(nil), val...)
		case blobRawSizeField:
			bl.RawSize = int32(varintValue(val))
		case blobZlibDataField:
			bl.ZlibData = append([]byte(nil), val...)
		case blobLzmaDataField:
			bl.LzmaData = append([]byte(nil), val...)
		}
		return nil
	})
	if err != nil {
		return blob{}, osmbuf.NewFormatError("decoding Blob", err)
	}
	return bl, nil
}

// payload returns the decompressed content of the blob.
func (bl blob) payload() ([]byte, error) {
	switch {
	case bl.LzmaData != nil:
		return nil, osmbuf.NewFormatError("lzma blob compression is not supported", nil)
	case bl.ZlibData != nil:
		if int(bl.RawSize) > MaxUncompressedBlobSize {
			return nil, osmbuf.NewFormatError(
				fmt.Sprintf("blob raw_size %d exceeds max uncompressed blob size %d", bl.RawSize, MaxUncompressedBlobSize), nil)
		}
		out, err := Zlib.Decompress(bl.ZlibData, int(bl.RawSize))
		if err != nil {
			return nil, osmbuf.NewFormatError("zlib inflate failed", err)
		}
		if len(out) != int(bl.RawSize) {
			return nil, osmbuf.NewFormatError(
				fmt.Sprintf("inflated size %d does not match raw_size %d", len(out), bl.RawSize), nil)
		}
		return out, nil
	default:
		if len(bl.Raw) > MaxUncompressedBlobSize {
			return nil, osmbuf.NewFormatError(
				fmt.Sprintf("blob size %d exceeds max uncompressed blob size %d", len(bl.Raw), MaxUncompressedBlobSize), nil)
		}
		return bl.Raw, nil
	}
}

// writeRecord writes one length-prefixed BlobHeader + Blob record: a
// 4-byte big-endian BlobHeader length, the BlobHeader bytes, then the
// Blob bytes (whose length is the BlobHeader's datasize field).
func writeRecord(w io.Writer, typ BlobType, payload []byte, comp string) error {
	blobBytes, err := encodeBlob(payload, comp)
	if err != nil {
		return err
	}
	hdrBytes := encodeBlobHeader(blobHeader{Type: typ, DataSize: int32(len(blobBytes))})

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(hdrBytes)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return err
	}
	if _, err := w.Write(hdrBytes); err != nil {
		return err
	}
	_, err = w.Write(blobBytes)
	return err
}

// readRecord reads one length-prefixed BlobHeader + Blob record and
// returns the header and the decompressed payload.
func readRecord(r io.Reader) (blobHeader, []byte, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		if err == io.EOF {
			return blobHeader{}, nil, io.EOF
		}
		return blobHeader{}, nil, err
	}
	hdrLen := binary.BigEndian.Uint32(lenPrefix[:])
	hdrBytes := make([]byte, hdrLen)
	if _, err := io.ReadFull(r, hdrBytes); err != nil {
		return blobHeader{}, nil, osmbuf.NewFormatError("truncated BlobHeader", err)
	}
	hdr, err := decodeBlobHeader(hdrBytes)
	if err != nil {
		return blobHeader{}, nil, err
	}
	if hdr.Type != BlobOSMHeader && hdr.Type != BlobOSMData {
		return blobHeader{}, nil, osmbuf.NewFormatError(fmt.Sprintf("unknown BlobHeader type %q", hdr.Type), nil)
	}
	blobBytes := make([]byte, hdr.DataSize)
	if _, err := io.ReadFull(r, blobBytes); err != nil {
		return blobHeader{}, nil, osmbuf.NewFormatError("truncated Blob", err)
	}
	bl, err := decodeBlob(blobBytes)
	if err != nil {
		return blobHeader{}, nil, err
	}
	payload, err := bl.payload()
	if err != nil {
		return blobHeader{}, nil, err
	}
	return hdr, payload, nil
}

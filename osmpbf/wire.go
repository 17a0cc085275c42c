// Package osmpbf implements the binary PBF dialect: BlobHeader/Blob
// framing, zlib-compressed PrimitiveBlocks, StringTable interning, and
// DenseNodes delta encoding (§4.G).
//
// Message encoding is hand-rolled field-by-field with
// google.golang.org/protobuf/encoding/protowire's low-level varint/tag
// primitives rather than through a protoc-generated codec — the same
// choice the teacher package (ion) makes for its own binary format: no
// codegen, no reflection, just appends and consumes over a []byte.
package osmpbf

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSintField(b []byte, num protowire.Number, v int64) []byte {
	return appendVarintField(b, num, protowire.EncodeZigZag(v))
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	return appendBytesField(b, num, []byte(v))
}

// appendPackedVarint writes vals as a single packed (length-delimited)
// repeated varint field.
func appendPackedVarint(b []byte, num protowire.Number, vals []uint64) []byte {
	if len(vals) == 0 {
		return b
	}
	var body []byte
	for _, v := range vals {
		body = protowire.AppendVarint(body, v)
	}
	return appendBytesField(b, num, body)
}

func appendPackedSint(b []byte, num protowire.Number, vals []int64) []byte {
	if len(vals) == 0 {
		return b
	}
	zz := make([]uint64, len(vals))
	for i, v := range vals {
		zz[i] = protowire.EncodeZigZag(v)
	}
	return appendPackedVarint(b, num, zz)
}

func appendPackedUint32(b []byte, num protowire.Number, vals []uint32) []byte {
	if len(vals) == 0 {
		return b
	}
	u := make([]uint64, len(vals))
	for i, v := range vals {
		u[i] = uint64(v)
	}
	return appendPackedVarint(b, num, u)
}

func appendPackedBool(b []byte, num protowire.Number, vals []bool) []byte {
	if len(vals) == 0 {
		return b
	}
	u := make([]uint64, len(vals))
	for i, v := range vals {
		if v {
			u[i] = 1
		}
	}
	return appendPackedVarint(b, num, u)
}

// consumePackedVarint parses a packed-varint field body (the bytes
// inside the length-delimited wrapper already stripped by the caller).
func consumePackedVarint(body []byte) ([]uint64, error) {
	var out []uint64
	for len(body) > 0 {
		v, n := protowire.ConsumeVarint(body)
		if n < 0 {
			return nil, fmt.Errorf("osmpbf: bad varint in packed field")
		}
		out = append(out, v)
		body = body[n:]
	}
	return out, nil
}

func consumePackedSint(body []byte) ([]int64, error) {
	raw, err := consumePackedVarint(body)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(raw))
	for i, v := range raw {
		out[i] = protowire.DecodeZigZag(v)
	}
	return out, nil
}

func consumePackedUint32(body []byte) ([]uint32, error) {
	raw, err := consumePackedVarint(body)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(raw))
	for i, v := range raw {
		out[i] = uint32(v)
	}
	return out, nil
}

func consumePackedBool(body []byte) ([]bool, error) {
	raw, err := consumePackedVarint(body)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(raw))
	for i, v := range raw {
		out[i] = v != 0
	}
	return out, nil
}

// eachField walks the top-level fields of a message body, calling fn
// with the field number, wire type, and the raw (still wire-encoded)
// value bytes appropriate to that type: for VarintType the value itself
// (not yet decoded); for BytesType the unwrapped payload; for
// Fixed32/64Type the raw fixed-width bytes. A non-nil error from fn
// aborts the walk and is returned.
func eachField(body []byte, fn func(num protowire.Number, typ protowire.Type, val []byte) error) error {
	for len(body) > 0 {
		num, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return fmt.Errorf("osmpbf: bad field tag")
		}
		body = body[n:]
		switch typ {
		case protowire.VarintType:
			_, n := protowire.ConsumeVarint(body)
			if n < 0 {
				return fmt.Errorf("osmpbf: bad varint for field %d", num)
			}
			if err := fn(num, typ, body[:n]); err != nil {
				return err
			}
			body = body[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(body)
			if n < 0 {
				return fmt.Errorf("osmpbf: bad length-delimited field %d", num)
			}
			if err := fn(num, typ, v); err != nil {
				return err
			}
			body = body[n:]
		case protowire.Fixed32Type:
			if len(body) < 4 {
				return fmt.Errorf("osmpbf: truncated fixed32 field %d", num)
			}
			if err := fn(num, typ, body[:4]); err != nil {
				return err
			}
			body = body[4:]
		case protowire.Fixed64Type:
			if len(body) < 8 {
				return fmt.Errorf("osmpbf: truncated fixed64 field %d", num)
			}
			if err := fn(num, typ, body[:8]); err != nil {
				return err
			}
			body = body[8:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, body)
			if n < 0 {
				return fmt.Errorf("osmpbf: cannot skip field %d of type %v", num, typ)
			}
			body = body[n:]
		}
	}
	return nil
}

func varintValue(val []byte) uint64 {
	v, _ := protowire.ConsumeVarint(val)
	return v
}

func sintValue(val []byte) int64 {
	return protowire.DecodeZigZag(varintValue(val))
}

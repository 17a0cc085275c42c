package osmpbf

import "google.golang.org/protobuf/encoding/protowire"

// wireDenseInfo holds the per-node metadata arrays of a DenseNodes
// group, already delta-decoded to absolute values (decode) or not yet
// delta-encoded (encode input).
type wireDenseInfo struct {
	Versions   []int32
	Timestamps []int64
	Changesets []int64
	UIDs       []int32
	UserSids   []int32
	Visibles   []bool // empty if the group carries no visibility info
}

func encodeDenseInfo(di *wireDenseInfo) []byte {
	if di == nil {
		return nil
	}
	var b []byte
	u := make([]uint64, len(di.Versions))
	for i, v := range di.Versions {
		u[i] = uint64(uint32(v))
	}
	b = appendPackedVarint(b, denseInfoVersionField, u)
	b = appendPackedSint(b, denseInfoTimestampField, deltaEncode(di.Timestamps))
	b = appendPackedSint(b, denseInfoChangesetField, deltaEncode(di.Changesets))
	b = appendPackedSint(b, denseInfoUIDField, int32ToInt64(di.UIDs, true))
	b = appendPackedSint(b, denseInfoUserSidField, int32ToInt64(di.UserSids, true))
	if len(di.Visibles) > 0 {
		b = appendPackedBool(b, denseInfoVisibleField, di.Visibles)
	}
	return b
}

func decodeDenseInfo(body []byte) (*wireDenseInfo, error) {
	di := &wireDenseInfo{}
	var rawUID, rawSid []int64
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case denseInfoVersionField:
			raw, err := consumePackedVarint(val)
			if err != nil {
				return err
			}
			di.Versions = make([]int32, len(raw))
			for i, v := range raw {
				di.Versions[i] = int32(uint32(v))
			}
		case denseInfoTimestampField:
			deltas, err := consumePackedSint(val)
			if err != nil {
				return err
			}
			di.Timestamps = deltaDecode(deltas)
		case denseInfoChangesetField:
			deltas, err := consumePackedSint(val)
			if err != nil {
				return err
			}
			di.Changesets = deltaDecode(deltas)
		case denseInfoUIDField:
			deltas, err := consumePackedSint(val)
			if err != nil {
				return err
			}
			rawUID = deltaDecode(deltas)
		case denseInfoUserSidField:
			deltas, err := consumePackedSint(val)
			if err != nil {
				return err
			}
			rawSid = deltaDecode(deltas)
		case denseInfoVisibleField:
			v, err := consumePackedBool(val)
			if err != nil {
				return err
			}
			di.Visibles = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	di.UIDs = int64ToInt32(rawUID)
	di.UserSids = int64ToInt32(rawSid)
	return di, nil
}

func int32ToInt64(vals []int32, _ bool) []int64 {
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return out
}

func int64ToInt32(vals []int64) []int32 {
	out := make([]int32, len(vals))
	for i, v := range vals {
		out[i] = int32(v)
	}
	return out
}

// wireDenseNodes is a decoded (or to-be-encoded) DenseNodes group, with
// ids/lat/lon already delta-decoded (decode) or to be delta-encoded
// (encode).
type wireDenseNodes struct {
	IDs      []int64
	Lats     []int64 // raw PBF units (granularity-scaled), not yet 1e-7 degrees
	Lons     []int64
	Info     *wireDenseInfo
	KeysVals []int32 // flat, 0-terminated per node; absent if empty
}

func encodeDenseNodes(d wireDenseNodes) []byte {
	var b []byte
	b = appendPackedSint(b, denseIDField, deltaEncode(d.IDs))
	if d.Info != nil {
		b = appendBytesField(b, denseInfoField, encodeDenseInfo(d.Info))
	}
	b = appendPackedSint(b, denseLatField, deltaEncode(d.Lats))
	b = appendPackedSint(b, denseLonField, deltaEncode(d.Lons))
	if len(d.KeysVals) > 0 {
		u := make([]uint64, len(d.KeysVals))
		for i, v := range d.KeysVals {
			u[i] = uint64(uint32(v))
		}
		b = appendPackedVarint(b, denseKeysValsField, u)
	}
	return b
}

func decodeDenseNodes(body []byte) (wireDenseNodes, error) {
	var d wireDenseNodes
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case denseIDField:
			deltas, err := consumePackedSint(val)
			if err != nil {
				return err
			}
			d.IDs = deltaDecode(deltas)
		case denseInfoField:
			di, err := decodeDenseInfo(val)
			if err != nil {
				return err
			}
			d.Info = di
		case denseLatField:
			deltas, err := consumePackedSint(val)
			if err != nil {
				return err
			}
			d.Lats = deltaDecode(deltas)
		case denseLonField:
			deltas, err := consumePackedSint(val)
			if err != nil {
				return err
			}
			d.Lons = deltaDecode(deltas)
		case denseKeysValsField:
			raw, err := consumePackedVarint(val)
			if err != nil {
				return err
			}
			d.KeysVals = make([]int32, len(raw))
			for i, v := range raw {
				d.KeysVals[i] = int32(uint32(v))
			}
		}
		return nil
	})
	return d, err
}

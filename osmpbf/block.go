package osmpbf

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers, matching osmpbf/osmformat.proto (§6).
const (
	blockStringTableField     protowire.Number = 1
	blockGroupField           protowire.Number = 2
	blockGranularityField     protowire.Number = 17
	blockDateGranularityField protowire.Number = 18
	blockLatOffsetField       protowire.Number = 19
	blockLonOffsetField       protowire.Number = 20

	groupNodesField      protowire.Number = 1
	groupDenseField      protowire.Number = 2
	groupWaysField       protowire.Number = 3
	groupRelationsField  protowire.Number = 4
	groupChangesetsField protowire.Number = 5

	nodeIDField   protowire.Number = 1
	nodeKeysField protowire.Number = 2
	nodeValsField protowire.Number = 3
	nodeInfoField protowire.Number = 4
	nodeLatField  protowire.Number = 8
	nodeLonField  protowire.Number = 9

	wayIDField   protowire.Number = 1
	wayKeysField protowire.Number = 2
	wayValsField protowire.Number = 3
	wayInfoField protowire.Number = 4
	wayRefsField protowire.Number = 8

	relIDField       protowire.Number = 1
	relKeysField     protowire.Number = 2
	relValsField     protowire.Number = 3
	relInfoField     protowire.Number = 4
	relRolesSidField protowire.Number = 8
	relMemIDsField   protowire.Number = 9
	relTypesField    protowire.Number = 10

	csIDField   protowire.Number = 1
	csInfoField protowire.Number = 4

	infoVersionField   protowire.Number = 1
	infoTimestampField protowire.Number = 2
	infoChangesetField protowire.Number = 3
	infoUIDField       protowire.Number = 4
	infoUserSidField   protowire.Number = 5
	infoVisibleField   protowire.Number = 6

	denseIDField        protowire.Number = 1
	denseInfoField      protowire.Number = 5
	denseLatField       protowire.Number = 8
	denseLonField       protowire.Number = 9
	denseKeysValsField  protowire.Number = 10

	denseInfoVersionField   protowire.Number = 1
	denseInfoTimestampField protowire.Number = 2
	denseInfoChangesetField protowire.Number = 3
	denseInfoUIDField       protowire.Number = 4
	denseInfoUserSidField   protowire.Number = 5
	denseInfoVisibleField   protowire.Number = 6
)

// memberType values for Relation.types (packed enum).
const (
	memberTypeNode     = 0
	memberTypeWay      = 1
	memberTypeRelation = 2
)

const (
	defaultGranularity     = 100
	defaultDateGranularity = 1000
)

type wireInfo struct {
	Version    int32
	Timestamp  int64
	Changeset  int64
	UID        int32
	UserSID    uint32
	Visible    bool
	HasVisible bool
}

func encodeInfo(info *wireInfo) []byte {
	if info == nil {
		return nil
	}
	var b []byte
	b = appendVarintField(b, infoVersionField, uint64(uint32(info.Version)))
	b = appendVarintField(b, infoTimestampField, uint64(info.Timestamp))
	b = appendVarintField(b, infoChangesetField, uint64(info.Changeset))
	b = appendVarintField(b, infoUIDField, uint64(uint32(info.UID)))
	b = appendVarintField(b, infoUserSidField, uint64(info.UserSID))
	if info.HasVisible {
		v := uint64(0)
		if info.Visible {
			v = 1
		}
		b = appendVarintField(b, infoVisibleField, v)
	}
	return b
}

func decodeInfo(body []byte) (*wireInfo, error) {
	info := &wireInfo{Version: -1}
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case infoVersionField:
			info.Version = int32(varintValue(val))
		case infoTimestampField:
			info.Timestamp = int64(varintValue(val))
		case infoChangesetField:
			info.Changeset = int64(varintValue(val))
		case infoUIDField:
			info.UID = int32(varintValue(val))
		case infoUserSidField:
			info.UserSID = uint32(varintValue(val))
		case infoVisibleField:
			info.Visible = varintValue(val) != 0
			info.HasVisible = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

type wireNode struct {
	ID          int64
	Keys, Vals  []uint32
	Info        *wireInfo
	LatRaw      int64
	LonRaw      int64
}

func encodeNode(n wireNode) []byte {
	var b []byte
	b = appendSintField(b, nodeIDField, n.ID)
	b = appendPackedUint32(b, nodeKeysField, n.Keys)
	b = appendPackedUint32(b, nodeValsField, n.Vals)
	if n.Info != nil {
		b = appendBytesField(b, nodeInfoField, encodeInfo(n.Info))
	}
	b = appendSintField(b, nodeLatField, n.LatRaw)
	b = appendSintField(b, nodeLonField, n.LonRaw)
	return b
}

func decodeNode(body []byte) (wireNode, error) {
	var n wireNode
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case nodeIDField:
			n.ID = sintValue(val)
		case nodeKeysField:
			v, err := consumePackedUint32(val)
			if err != nil {
				return err
			}
			n.Keys = v
		case nodeValsField:
			v, err := consumePackedUint32(val)
			if err != nil {
				return err
			}
			n.Vals = v
		case nodeInfoField:
			info, err := decodeInfo(val)
			if err != nil {
				return err
			}
			n.Info = info
		case nodeLatField:
			n.LatRaw = sintValue(val)
		case nodeLonField:
			n.LonRaw = sintValue(val)
		}
		return nil
	})
	return n, err
}

type wireWay struct {
	ID         int64
	Keys, Vals []uint32
	Info       *wireInfo
	Refs       []int64 // absolute ids, already delta-decoded
}

func encodeWay(w wireWay) []byte {
	var b []byte
	b = appendVarintField(b, wayIDField, uint64(w.ID))
	b = appendPackedUint32(b, wayKeysField, w.Keys)
	b = appendPackedUint32(b, wayValsField, w.Vals)
	if w.Info != nil {
		b = appendBytesField(b, wayInfoField, encodeInfo(w.Info))
	}
	b = appendPackedSint(b, wayRefsField, deltaEncode(w.Refs))
	return b
}

func decodeWay(body []byte) (wireWay, error) {
	var w wireWay
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case wayIDField:
			w.ID = int64(varintValue(val))
		case wayKeysField:
			v, err := consumePackedUint32(val)
			if err != nil {
				return err
			}
			w.Keys = v
		case wayValsField:
			v, err := consumePackedUint32(val)
			if err != nil {
				return err
			}
			w.Vals = v
		case wayInfoField:
			info, err := decodeInfo(val)
			if err != nil {
				return err
			}
			w.Info = info
		case wayRefsField:
			deltas, err := consumePackedSint(val)
			if err != nil {
				return err
			}
			w.Refs = deltaDecode(deltas)
		}
		return nil
	})
	return w, err
}

type wireRelation struct {
	ID         int64
	Keys, Vals []uint32
	Info       *wireInfo
	RolesSid   []int32
	MemIDs     []int64 // absolute ids, already delta-decoded
	Types      []int32
}

func encodeRelation(r wireRelation) []byte {
	var b []byte
	b = appendVarintField(b, relIDField, uint64(r.ID))
	b = appendPackedUint32(b, relKeysField, r.Keys)
	b = appendPackedUint32(b, relValsField, r.Vals)
	if r.Info != nil {
		b = appendBytesField(b, relInfoField, encodeInfo(r.Info))
	}
	rolesU := make([]uint64, len(r.RolesSid))
	for i, v := range r.RolesSid {
		rolesU[i] = uint64(uint32(v))
	}
	b = appendPackedVarint(b, relRolesSidField, rolesU)
	b = appendPackedSint(b, relMemIDsField, deltaEncode(r.MemIDs))
	typesU := make([]uint64, len(r.Types))
	for i, v := range r.Types {
		typesU[i] = uint64(v)
	}
	b = appendPackedVarint(b, relTypesField, typesU)
	return b
}

func decodeRelation(body []byte) (wireRelation, error) {
	var r wireRelation
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case relIDField:
			r.ID = int64(varintValue(val))
		case relKeysField:
			v, err := consumePackedUint32(val)
			if err != nil {
				return err
			}
			r.Keys = v
		case relValsField:
			v, err := consumePackedUint32(val)
			if err != nil {
				return err
			}
			r.Vals = v
		case relInfoField:
			info, err := decodeInfo(val)
			if err != nil {
				return err
			}
			r.Info = info
		case relRolesSidField:
			raw, err := consumePackedVarint(val)
			if err != nil {
				return err
			}
			r.RolesSid = make([]int32, len(raw))
			for i, v := range raw {
				r.RolesSid[i] = int32(uint32(v))
			}
		case relMemIDsField:
			deltas, err := consumePackedSint(val)
			if err != nil {
				return err
			}
			r.MemIDs = deltaDecode(deltas)
		case relTypesField:
			raw, err := consumePackedVarint(val)
			if err != nil {
				return err
			}
			r.Types = make([]int32, len(raw))
			for i, v := range raw {
				r.Types[i] = int32(v)
			}
		}
		return nil
	})
	return r, err
}

type wireChangeSet struct {
	ID   int64
	Info *wireInfo
}

func encodeChangeSet(c wireChangeSet) []byte {
	var b []byte
	b = appendVarintField(b, csIDField, uint64(c.ID))
	if c.Info != nil {
		b = appendBytesField(b, csInfoField, encodeInfo(c.Info))
	}
	return b
}

func decodeChangeSet(body []byte) (wireChangeSet, error) {
	var c wireChangeSet
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case csIDField:
			c.ID = int64(varintValue(val))
		case csInfoField:
			info, err := decodeInfo(val)
			if err != nil {
				return err
			}
			c.Info = info
		}
		return nil
	})
	return c, err
}

func deltaEncode(vals []int64) []int64 {
	out := make([]int64, len(vals))
	var prev int64
	for i, v := range vals {
		out[i] = v - prev
		prev = v
	}
	return out
}

func deltaDecode(deltas []int64) []int64 {
	out := make([]int64, len(deltas))
	var sum int64
	for i, d := range deltas {
		sum += d
		out[i] = sum
	}
	return out
}

func memberTypeName(t int32) (string, error) {
	switch t {
	case memberTypeNode:
		return "node", nil
	case memberTypeWay:
		return "way", nil
	case memberTypeRelation:
		return "relation", nil
	default:
		return "", fmt.Errorf("osmpbf: unknown relation member type %d", t)
	}
}

// wirePrimitiveGroup is exactly one of its non-nil fields populated, per
// the OSMPBF rule that a PrimitiveGroup never mixes nodes, dense nodes,
// ways, relations, or changesets (§4.G).
type wirePrimitiveGroup struct {
	Nodes      []wireNode
	Dense      *wireDenseNodes
	Ways       []wireWay
	Relations  []wireRelation
	ChangeSets []wireChangeSet
}

func encodePrimitiveGroup(g wirePrimitiveGroup) []byte {
	var b []byte
	for _, n := range g.Nodes {
		b = appendBytesField(b, groupNodesField, encodeNode(n))
	}
	if g.Dense != nil {
		b = appendBytesField(b, groupDenseField, encodeDenseNodes(*g.Dense))
	}
	for _, w := range g.Ways {
		b = appendBytesField(b, groupWaysField, encodeWay(w))
	}
	for _, r := range g.Relations {
		b = appendBytesField(b, groupRelationsField, encodeRelation(r))
	}
	for _, c := range g.ChangeSets {
		b = appendBytesField(b, groupChangesetsField, encodeChangeSet(c))
	}
	return b
}

func decodePrimitiveGroup(body []byte) (wirePrimitiveGroup, error) {
	var g wirePrimitiveGroup
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case groupNodesField:
			n, err := decodeNode(val)
			if err != nil {
				return err
			}
			g.Nodes = append(g.Nodes, n)
		case groupDenseField:
			d, err := decodeDenseNodes(val)
			if err != nil {
				return err
			}
			g.Dense = &d
		case groupWaysField:
			w, err := decodeWay(val)
			if err != nil {
				return err
			}
			g.Ways = append(g.Ways, w)
		case groupRelationsField:
			r, err := decodeRelation(val)
			if err != nil {
				return err
			}
			g.Relations = append(g.Relations, r)
		case groupChangesetsField:
			c, err := decodeChangeSet(val)
			if err != nil {
				return err
			}
			g.ChangeSets = append(g.ChangeSets, c)
		}
		return nil
	})
	return g, err
}

// wirePrimitiveBlock is the decoded PrimitiveBlock message: a local
// string table shared by every group, plus the groups themselves and
// the granularity/offset parameters needed to turn Node lat/lon back
// into 1e-7 degree units (§4.G, Open Question (c)).
type wirePrimitiveBlock struct {
	StringTable     *stringTable
	Groups          []wirePrimitiveGroup
	Granularity     int32
	LatOffset       int64
	LonOffset       int64
	DateGranularity int32
}

func encodePrimitiveBlock(blk wirePrimitiveBlock) []byte {
	var b []byte
	b = appendBytesField(b, blockStringTableField, encodeStringTable(blk.StringTable))
	for _, g := range blk.Groups {
		b = appendBytesField(b, blockGroupField, encodePrimitiveGroup(g))
	}
	if blk.Granularity != 0 && blk.Granularity != defaultGranularity {
		b = appendVarintField(b, blockGranularityField, uint64(uint32(blk.Granularity)))
	}
	if blk.DateGranularity != 0 && blk.DateGranularity != defaultDateGranularity {
		b = appendVarintField(b, blockDateGranularityField, uint64(uint32(blk.DateGranularity)))
	}
	if blk.LatOffset != 0 {
		b = appendVarintField(b, blockLatOffsetField, uint64(blk.LatOffset))
	}
	if blk.LonOffset != 0 {
		b = appendVarintField(b, blockLonOffsetField, uint64(blk.LonOffset))
	}
	return b
}

func decodePrimitiveBlock(body []byte) (wirePrimitiveBlock, error) {
	blk := wirePrimitiveBlock{
		Granularity:     defaultGranularity,
		DateGranularity: defaultDateGranularity,
	}
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case blockStringTableField:
			t, err := decodeStringTable(val)
			if err != nil {
				return err
			}
			blk.StringTable = t
		case blockGroupField:
			g, err := decodePrimitiveGroup(val)
			if err != nil {
				return err
			}
			blk.Groups = append(blk.Groups, g)
		case blockGranularityField:
			blk.Granularity = int32(varintValue(val))
		case blockDateGranularityField:
			blk.DateGranularity = int32(varintValue(val))
		case blockLatOffsetField:
			blk.LatOffset = int64(varintValue(val))
		case blockLonOffsetField:
			blk.LonOffset = int64(varintValue(val))
		}
		return nil
	})
	if err != nil {
		return wirePrimitiveBlock{}, err
	}
	if blk.StringTable == nil {
		blk.StringTable = newStringTable()
	}
	return blk, nil
}

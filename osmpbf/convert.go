package osmpbf

import (
	"github.com/osmbuf/osmbuf/osmbuf"
)

// blockBuilder accumulates a single PrimitiveBlock's worth of nodes,
// ways and relations; Build emits one PrimitiveGroup for each non-empty
// kind. It owns
// the block-local string table (mirrors ion.Symtab's per-chunk
// lifetime: a StringTable never spans two blocks).
type blockBuilder struct {
	strings     *stringTable
	dense       bool
	addMeta     bool
	granularity int32

	nodes     []wireNode
	denseIDs  []int64
	denseLat  []int64
	denseLon  []int64
	denseInfo *wireDenseInfo
	denseKV   []int32
	ways      []wireWay
	rels      []wireRelation
	n         int
}

func newBlockBuilder(dense, addMeta bool) *blockBuilder {
	return &blockBuilder{
		strings:     newStringTable(),
		dense:       dense,
		addMeta:     addMeta,
		granularity: defaultGranularity,
		denseInfo:   &wireDenseInfo{},
	}
}

func (bb *blockBuilder) full() bool {
	return bb.n >= MaxEntitiesPerGroup
}

func (bb *blockBuilder) internTags(tags osmbuf.TagListView) (keys, vals []uint32) {
	tags.Each(func(k, v string) bool {
		keys = append(keys, bb.strings.Intern(k))
		vals = append(vals, bb.strings.Intern(v))
		return true
	})
	return
}

func (bb *blockBuilder) info(obj osmbuf.ObjectView) *wireInfo {
	if !bb.addMeta {
		return nil
	}
	uid := obj.UserID()
	sid := uint32(0)
	if name, ok := obj.UserName(); ok {
		sid = bb.strings.Intern(name)
	}
	return &wireInfo{
		Version:    int32(obj.Version()),
		Timestamp:  obj.Timestamp(),
		Changeset:  int64(obj.Changeset()),
		UID:        int32(uid),
		UserSID:    sid,
		Visible:    obj.Visible(),
		HasVisible: true,
	}
}

// latLonToRaw converts 1e-7 degree units to the raw PBF unit scaled by
// granularity (§4.G, Open Question (c)):
//
//	raw = round((value*100 - offset) / granularity)
func latLonToRaw(valueE7 int32, offset int64, granularity int32) int64 {
	num := int64(valueE7)*100 - offset
	g := int64(granularity)
	if num >= 0 {
		return (num + g/2) / g
	}
	return -((-num + g/2) / g)
}

// rawToLatLon is the inverse of latLonToRaw:
//
//	value = round((offset + granularity*raw) / 100)
func rawToLatLon(raw int64, offset int64, granularity int32) int32 {
	num := offset + int64(granularity)*raw
	if num >= 0 {
		return int32((num + 50) / 100)
	}
	return int32(-((-num + 50) / 100))
}

// AddNode appends n to the block, in dense or plain-node form depending
// on bb.dense.
func (bb *blockBuilder) AddNode(n osmbuf.NodeView) {
	keys, vals := bb.internTags(n.Tags())
	loc := n.Location()
	if bb.dense {
		bb.denseIDs = append(bb.denseIDs, n.ID())
		bb.denseLat = append(bb.denseLat, latLonToRaw(loc.LatE7, 0, bb.granularity))
		bb.denseLon = append(bb.denseLon, latLonToRaw(loc.LonE7, 0, bb.granularity))
		bb.appendDenseInfo(n.ObjectView)
		for i := range keys {
			bb.denseKV = append(bb.denseKV, int32(keys[i]), int32(vals[i]))
		}
		bb.denseKV = append(bb.denseKV, 0)
	} else {
		bb.nodes = append(bb.nodes, wireNode{
			ID:     n.ID(),
			Keys:   keys,
			Vals:   vals,
			Info:   bb.info(n.ObjectView),
			LatRaw: latLonToRaw(loc.LatE7, 0, bb.granularity),
			LonRaw: latLonToRaw(loc.LonE7, 0, bb.granularity),
		})
	}
	bb.n++
}

func (bb *blockBuilder) appendDenseInfo(obj osmbuf.ObjectView) {
	if !bb.addMeta {
		return
	}
	uid := int32(obj.UserID())
	sid := int32(0)
	if name, ok := obj.UserName(); ok {
		sid = int32(bb.strings.Intern(name))
	}
	bb.denseInfo.Versions = append(bb.denseInfo.Versions, int32(obj.Version()))
	bb.denseInfo.Timestamps = append(bb.denseInfo.Timestamps, obj.Timestamp())
	bb.denseInfo.Changesets = append(bb.denseInfo.Changesets, int64(obj.Changeset()))
	bb.denseInfo.UIDs = append(bb.denseInfo.UIDs, uid)
	bb.denseInfo.UserSids = append(bb.denseInfo.UserSids, sid)
	bb.denseInfo.Visibles = append(bb.denseInfo.Visibles, obj.Visible())
}

// AddWay appends w to the block.
func (bb *blockBuilder) AddWay(w osmbuf.WayView) {
	keys, vals := bb.internTags(w.Tags())
	bb.ways = append(bb.ways, wireWay{
		ID:   w.ID(),
		Keys: keys,
		Vals: vals,
		Info: bb.info(w.ObjectView),
		Refs: w.Nodes().Slice(),
	})
	bb.n++
}

// AddRelation appends r to the block.
func (bb *blockBuilder) AddRelation(r osmbuf.RelationView) {
	keys, vals := bb.internTags(r.Tags())
	var roles []int32
	var memids []int64
	var types []int32
	r.Members().Each(func(m osmbuf.MemberView) bool {
		roles = append(roles, int32(bb.strings.Intern(m.Role())))
		memids = append(memids, m.Ref())
		types = append(types, memberTypeOf(m.Type()))
		return true
	})
	bb.rels = append(bb.rels, wireRelation{
		ID:       r.ID(),
		Keys:     keys,
		Vals:     vals,
		Info:     bb.info(r.ObjectView),
		RolesSid: roles,
		MemIDs:   memids,
		Types:    types,
	})
	bb.n++
}

func memberTypeOf(t osmbuf.Tag) int32 {
	switch t {
	case osmbuf.TagNode:
		return memberTypeNode
	case osmbuf.TagWay:
		return memberTypeWay
	case osmbuf.TagRelation:
		return memberTypeRelation
	default:
		return memberTypeNode
	}
}

func tagOfMemberType(t int32) osmbuf.Tag {
	switch t {
	case memberTypeWay:
		return osmbuf.TagWay
	case memberTypeRelation:
		return osmbuf.TagRelation
	default:
		return osmbuf.TagNode
	}
}

// Build finalizes the accumulated entities into a wirePrimitiveBlock.
// A block may carry one PrimitiveGroup per entity category (§4.G): a
// buffer mixing nodes, ways, and relations — the ordinary case —
// yields one group for each category that actually has entities,
// never just the highest-priority one.
func (bb *blockBuilder) Build() wirePrimitiveBlock {
	blk := wirePrimitiveBlock{
		StringTable: bb.strings,
		Granularity: bb.granularity,
	}
	if bb.dense && len(bb.denseIDs) > 0 {
		dn := wireDenseNodes{
			IDs:      bb.denseIDs,
			Lats:     bb.denseLat,
			Lons:     bb.denseLon,
			KeysVals: bb.denseKV,
		}
		if bb.addMeta {
			dn.Info = bb.denseInfo
		}
		blk.Groups = append(blk.Groups, wirePrimitiveGroup{Dense: &dn})
	} else if len(bb.nodes) > 0 {
		blk.Groups = append(blk.Groups, wirePrimitiveGroup{Nodes: bb.nodes})
	}
	if len(bb.ways) > 0 {
		blk.Groups = append(blk.Groups, wirePrimitiveGroup{Ways: bb.ways})
	}
	if len(bb.rels) > 0 {
		blk.Groups = append(blk.Groups, wirePrimitiveGroup{Relations: bb.rels})
	}
	return blk
}

// decodeBlockInto writes every entity of a decoded PrimitiveBlock into
// buf as osmbuf Items, resolving string-table indices and delta
// encodings as it goes (§4.G "DenseNodes decoding").
func decodeBlockInto(buf *osmbuf.Buffer, blk wirePrimitiveBlock) error {
	for _, g := range blk.Groups {
		for _, n := range g.Nodes {
			if err := decodeWireNode(buf, blk, n); err != nil {
				return err
			}
		}
		if g.Dense != nil {
			if err := decodeWireDense(buf, blk, *g.Dense); err != nil {
				return err
			}
		}
		for _, w := range g.Ways {
			if err := decodeWireWay(buf, blk, w); err != nil {
				return err
			}
		}
		for _, r := range g.Relations {
			if err := decodeWireRelation(buf, blk, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func str(blk wirePrimitiveBlock, idx uint32) string {
	s, ok := blk.StringTable.Get(idx)
	if !ok {
		return ""
	}
	return s
}

func tagsOf(blk wirePrimitiveBlock, keys, vals []uint32) []osmbuf.KV {
	if len(keys) == 0 {
		return nil
	}
	out := make([]osmbuf.KV, len(keys))
	for i := range keys {
		out[i] = osmbuf.KV{Key: str(blk, keys[i]), Value: str(blk, vals[i])}
	}
	return out
}

func decodeWireNode(buf *osmbuf.Buffer, blk wirePrimitiveBlock, n wireNode) error {
	version, changeset, ts, uid, visible := infoFields(n.Info, blk.DateGranularity)
	b, err := osmbuf.NewNodeBuilder(buf, n.ID, version, changeset, ts, uid, visible)
	if err != nil {
		return err
	}
	defer b.Close()
	if n.Info != nil {
		if name := str(blk, n.Info.UserSID); name != "" {
			if err := b.SetUser(name); err != nil {
				return err
			}
		}
	}
	if len(n.Keys) > 0 {
		if err := b.AddTags(tagsOf(blk, n.Keys, n.Vals)); err != nil {
			return err
		}
	}
	lat := rawToLatLon(n.LatRaw, blk.LatOffset, blk.Granularity)
	lon := rawToLatLon(n.LonRaw, blk.LonOffset, blk.Granularity)
	if err := b.SetLocation(osmbuf.Location{LatE7: lat, LonE7: lon}); err != nil {
		return err
	}
	_, err = b.Finish()
	return err
}

func decodeWireWay(buf *osmbuf.Buffer, blk wirePrimitiveBlock, w wireWay) error {
	version, changeset, ts, uid, visible := infoFields(w.Info, blk.DateGranularity)
	b, err := osmbuf.NewWayBuilder(buf, w.ID, version, changeset, ts, uid, visible)
	if err != nil {
		return err
	}
	defer b.Close()
	if w.Info != nil {
		if name := str(blk, w.Info.UserSID); name != "" {
			if err := b.SetUser(name); err != nil {
				return err
			}
		}
	}
	if len(w.Keys) > 0 {
		if err := b.AddTags(tagsOf(blk, w.Keys, w.Vals)); err != nil {
			return err
		}
	}
	if err := b.SetNodes(w.Refs); err != nil {
		return err
	}
	_, err = b.Finish()
	return err
}

func decodeWireRelation(buf *osmbuf.Buffer, blk wirePrimitiveBlock, r wireRelation) error {
	version, changeset, ts, uid, visible := infoFields(r.Info, blk.DateGranularity)
	b, err := osmbuf.NewRelationBuilder(buf, r.ID, version, changeset, ts, uid, visible)
	if err != nil {
		return err
	}
	defer b.Close()
	if r.Info != nil {
		if name := str(blk, r.Info.UserSID); name != "" {
			if err := b.SetUser(name); err != nil {
				return err
			}
		}
	}
	if len(r.Keys) > 0 {
		if err := b.AddTags(tagsOf(blk, r.Keys, r.Vals)); err != nil {
			return err
		}
	}
	members := make([]osmbuf.Member, len(r.MemIDs))
	for i := range r.MemIDs {
		members[i] = osmbuf.Member{
			Ref:  r.MemIDs[i],
			Type: tagOfMemberType(r.Types[i]),
			Role: str(blk, uint32(r.RolesSid[i])),
		}
	}
	if err := b.SetMembers(members); err != nil {
		return err
	}
	_, err = b.Finish()
	return err
}

func decodeWireDense(buf *osmbuf.Buffer, blk wirePrimitiveBlock, d wireDenseNodes) error {
	kv := d.KeysVals
	for i, id := range d.IDs {
		version, changeset, ts, uid, visible := uint32(1), uint32(0), int64(0), uint32(0), true
		var userSid int32
		if d.Info != nil && i < len(d.Info.Versions) {
			version = uint32(d.Info.Versions[i])
			changeset = uint32(d.Info.Changesets[i])
			ts = scaleTimestamp(d.Info.Timestamps[i], blk.DateGranularity)
			uid = uint32(d.Info.UIDs[i])
			userSid = d.Info.UserSids[i]
			if i < len(d.Info.Visibles) {
				visible = d.Info.Visibles[i]
			}
		}
		b, err := osmbuf.NewNodeBuilder(buf, id, version, changeset, ts, uid, visible)
		if err != nil {
			return err
		}
		if userSid != 0 {
			if name := str(blk, uint32(userSid)); name != "" {
				if err := b.SetUser(name); err != nil {
					b.Close()
					return err
				}
			}
		}
		var tags []osmbuf.KV
		for len(kv) > 0 && kv[0] != 0 {
			k, v := kv[0], kv[1]
			tags = append(tags, osmbuf.KV{Key: str(blk, uint32(k)), Value: str(blk, uint32(v))})
			kv = kv[2:]
		}
		if len(kv) > 0 {
			kv = kv[1:] // consume the 0 terminator
		}
		if len(tags) > 0 {
			if err := b.AddTags(tags); err != nil {
				b.Close()
				return err
			}
		}
		lat := rawToLatLon(d.Lats[i], blk.LatOffset, blk.Granularity)
		lon := rawToLatLon(d.Lons[i], blk.LonOffset, blk.Granularity)
		if err := b.SetLocation(osmbuf.Location{LatE7: lat, LonE7: lon}); err != nil {
			b.Close()
			return err
		}
		if _, err := b.Finish(); err != nil {
			return err
		}
	}
	return nil
}

// infoFields extracts Version/Changeset/Timestamp/UID/Visible from a
// wireInfo, scaling the wire timestamp (milliseconds / dateGranularity
// units) back to Unix seconds: unix_seconds = wire * dateGranularity /
// 1000 (§4.G, Open Question (c)).
func infoFields(info *wireInfo, dateGranularity int32) (version, changeset uint32, ts int64, uid uint32, visible bool) {
	if info == nil {
		return 1, 0, 0, 0, true
	}
	visible = true
	if info.HasVisible {
		visible = info.Visible
	}
	return uint32(info.Version), uint32(info.Changeset), scaleTimestamp(info.Timestamp, dateGranularity), uint32(info.UID), visible
}

func scaleTimestamp(wireTimestamp int64, dateGranularity int32) int64 {
	if dateGranularity == 0 {
		dateGranularity = defaultDateGranularity
	}
	return wireTimestamp * int64(dateGranularity) / 1000
}

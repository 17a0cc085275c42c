package osmbuf

import "encoding/binary"

// MemberHasObject is set in a RelationMember's flags word when the
// member is followed by a fully materialized copy of the referenced
// object (a complete sub-Item, end-aligned).
const MemberHasObject uint32 = 1 << 0

const memberFixedSize = 8 + 4 + 4 + 4 // ref, type, flags, role length

// MemberView is a read-only view over one RelationMember.
type MemberView struct {
	it Item
}

func (m MemberView) Valid() bool { return m.it.raw != nil }

func (m MemberView) Ref() int64 {
	return int64(binary.LittleEndian.Uint64(m.it.Body()[0:8]))
}

// Type returns the referenced entity's tag (TagNode, TagWay, or
// TagRelation).
func (m MemberView) Type() Tag {
	return Tag(binary.LittleEndian.Uint32(m.it.Body()[8:12]))
}

func (m MemberView) flags() uint32 {
	return binary.LittleEndian.Uint32(m.it.Body()[12:16])
}

func (m MemberView) HasObject() bool { return m.flags()&MemberHasObject != 0 }

func (m MemberView) Role() string {
	body := m.it.Body()
	roleLen := int(binary.LittleEndian.Uint32(body[16:20]))
	return string(body[memberFixedSize : memberFixedSize+roleLen])
}

// Object returns the fully materialized referenced object, if HasObject
// is true.
func (m MemberView) Object() (ObjectView, bool) {
	if !m.HasObject() {
		return ObjectView{}, false
	}
	body := m.it.Body()
	roleLen := int(binary.LittleEndian.Uint32(body[16:20]))
	rolePadded := PaddedLength(roleLen, m.it.align)
	rest := body[memberFixedSize+rolePadded:]
	if len(rest) == 0 {
		return ObjectView{}, false
	}
	it := itemAt(rest, m.it.align)
	return AsObjectView(it), true
}

// RelationMemberListView is a read-only view over a Relation's ordered
// member list.
type RelationMemberListView struct {
	it Item
}

func (l RelationMemberListView) Valid() bool { return l.it.raw != nil }

// Each calls fn for every member in order, stopping early if fn returns
// false.
func (l RelationMemberListView) Each(fn func(MemberView) bool) {
	if !l.Valid() {
		return
	}
	body := l.it.Body()
	for len(body) > 0 {
		it := itemAt(body, l.it.align)
		if !fn(MemberView{it: it}) {
			return
		}
		body = body[it.Size():]
	}
}

// Member is a single member to be added via RelationBuilder.SetMembers: a reference to
// a node/way/relation plus its role string.
type Member struct {
	Ref  int64
	Type Tag
	Role string
}

func addMember(parent *Builder, m Member) error {
	child, err := parent.NewChild(TagRelationMember)
	if err != nil {
		return err
	}
	defer child.Close()
	roleBytes := []byte(m.Role)
	hdr := make([]byte, memberFixedSize)
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(m.Ref))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(m.Type))
	binary.LittleEndian.PutUint32(hdr[12:16], 0) // flags: no embedded object
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(roleBytes)))
	if err := child.Write(hdr); err != nil {
		return err
	}
	if err := child.Write(roleBytes); err != nil {
		return err
	}
	return child.Finish()
}

func addMemberList(parent *Builder, members []Member) error {
	if len(members) == 0 {
		return nil
	}
	list, err := parent.NewChild(TagRelationMemberList)
	if err != nil {
		return err
	}
	defer list.Close()
	for _, m := range members {
		if err := addMember(list, m); err != nil {
			return err
		}
	}
	return list.Finish()
}

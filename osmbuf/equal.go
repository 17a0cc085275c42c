package osmbuf

// Equal reports whether a and b represent the same OSM object under the
// equivalence used for round-trip testing: same ids, versions,
// timestamps, tags, geometries, and member lists in the same order,
// with equal visible bits. It does not compare raw bytes, so two Items
// built through different code paths (e.g. XML vs PBF round-trip) can
// still compare equal.
func Equal(a, b Item) bool {
	if a.Tag() != b.Tag() {
		return false
	}
	switch a.Tag() {
	case TagNode:
		return nodeEqual(AsNodeView(a), AsNodeView(b))
	case TagWay:
		return wayEqual(AsWayView(a), AsWayView(b))
	case TagRelation:
		return relationEqual(AsRelationView(a), AsRelationView(b))
	case TagChangeset:
		return changesetEqual(AsChangesetView(a), AsChangesetView(b))
	default:
		return string(a.Bytes()) == string(b.Bytes())
	}
}

func objectEqual(a, b ObjectView) bool {
	if a.ID() != b.ID() || a.Version() != b.Version() {
		return false
	}
	if a.Changeset() != b.Changeset() || a.Timestamp() != b.Timestamp() {
		return false
	}
	if a.UserID() != b.UserID() || a.Visible() != b.Visible() {
		return false
	}
	return tagsEqual(a.Tags(), b.Tags())
}

func tagsEqual(a, b TagListView) bool {
	am, bm := a.Map(), b.Map()
	if len(am) != len(bm) {
		return false
	}
	for k, v := range am {
		if bm[k] != v {
			return false
		}
	}
	return true
}

func nodeEqual(a, b NodeView) bool {
	if !objectEqual(a.ObjectView, b.ObjectView) {
		return false
	}
	return a.Location() == b.Location()
}

func wayEqual(a, b WayView) bool {
	if !objectEqual(a.ObjectView, b.ObjectView) {
		return false
	}
	an, bn := a.Nodes(), b.Nodes()
	if an.Len() != bn.Len() {
		return false
	}
	for i := 0; i < an.Len(); i++ {
		if an.At(i) != bn.At(i) {
			return false
		}
	}
	return true
}

func relationEqual(a, b RelationView) bool {
	if !objectEqual(a.ObjectView, b.ObjectView) {
		return false
	}
	var am, bm []Member
	a.Members().Each(func(m MemberView) bool {
		am = append(am, Member{Ref: m.Ref(), Type: m.Type(), Role: m.Role()})
		return true
	})
	b.Members().Each(func(m MemberView) bool {
		bm = append(bm, Member{Ref: m.Ref(), Type: m.Type(), Role: m.Role()})
		return true
	})
	if len(am) != len(bm) {
		return false
	}
	for i := range am {
		if am[i] != bm[i] {
			return false
		}
	}
	return true
}

func changesetEqual(a, b ChangesetView) bool {
	return objectEqual(a.ObjectView, b.ObjectView)
}

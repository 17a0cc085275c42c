package osmxml

import (
	"encoding/xml"
	"io"
	"strconv"
	"time"

	"github.com/osmbuf/osmbuf/osmbuf"
)

// targetBufferBytes is the approximate size at which the decoder
// enqueues its accumulated Buffer and starts a fresh one (§4.F: "sized
// at ~10 MiB").
const targetBufferBytes = 10 * 1024 * 1024

// maxEntitiesPerBlock bounds the number of OSM objects batched into one
// decoded Buffer, mirroring the PBF codec's per-group cap (§4.F, §4.G).
const maxEntitiesPerBlock = 8000

type decodeResult struct {
	buf *osmbuf.Buffer
	err error
}

// Decoder drives a streaming, SAX-style parse of an OSM 0.6 / osmChange
// XML document into a sequence of osmbuf.Buffers, produced by a single
// background goroutine (§4.F: "a single background thread drives a
// SAX-style parser"). Unlike the PBF Reader, there is no worker pool on
// the decode side — parsing is inherently sequential — so results are
// delivered through a plain channel rather than a Future-carrying
// Queue.
type Decoder struct {
	align int
	ch    chan decodeResult
	done  bool
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithAlign sets the alignment of Buffers the Decoder produces.
func WithAlign(align int) DecoderOption {
	return func(d *Decoder) { d.align = align }
}

// NewDecoder starts decoding the XML document read from r.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{align: osmbuf.DefaultAlign, ch: make(chan decodeResult, 4)}
	for _, o := range opts {
		o(d)
	}
	go d.run(r)
	return d
}

// Next returns the next decoded Buffer, or (nil, nil) at end of
// document.
func (d *Decoder) Next() (*osmbuf.Buffer, error) {
	if d.done {
		return nil, nil
	}
	res, ok := <-d.ch
	if !ok {
		d.done = true
		return nil, nil
	}
	if res.err != nil {
		d.done = true
		return nil, res.err
	}
	return res.buf, nil
}

// Close drains any buffered results so the decode goroutine never
// blocks forever on a channel send after a caller stops consuming.
func (d *Decoder) Close() error {
	if d.done {
		return nil
	}
	for range d.ch {
	}
	d.done = true
	return nil
}

// pendingObject accumulates one in-progress node/way/relation/changeset
// between its start and end tag.
type pendingObject struct {
	kind      osmbuf.Tag
	id        int64
	version   uint32
	changeset uint32
	timestamp int64
	uid       uint32
	user      string
	visible   bool
	hasLoc    bool
	lat, lon  float64
	tags      []osmbuf.KV
	nodeRefs  []int64
	members   []osmbuf.Member
	comments  []osmbuf.Comment
}

type changeOp int

const (
	opNone changeOp = iota
	opCreate
	opModify
	opDelete
)

func (d *Decoder) run(r io.Reader) {
	defer close(d.ch)
	xd := xml.NewDecoder(r)

	buf := osmbuf.NewBufferAlign(1<<20, d.align)
	count := 0
	op := opNone
	var pending *pendingObject
	var inDiscussion bool
	var curComment *osmbuf.Comment

	flush := func() {
		if count > 0 {
			d.ch <- decodeResult{buf: buf}
			buf = osmbuf.NewBufferAlign(1<<20, d.align)
			count = 0
		}
	}

	fail := func(err error) bool {
		flush()
		d.ch <- decodeResult{err: osmbuf.NewFormatError("decoding OSM XML", err)}
		return true
	}

	for {
		tok, err := xd.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			fail(err)
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "create":
				op = opCreate
			case "modify":
				op = opModify
			case "delete":
				op = opDelete
			case "node":
				pending = startObject(osmbuf.TagNode, t, op)
			case "way":
				pending = startObject(osmbuf.TagWay, t, op)
			case "relation":
				pending = startObject(osmbuf.TagRelation, t, op)
			case "changeset":
				pending = startObject(osmbuf.TagChangeset, t, op)
			case "tag":
				if pending != nil {
					k, v := attr(t, "k"), attr(t, "v")
					pending.tags = append(pending.tags, osmbuf.KV{Key: k, Value: v})
				}
			case "nd":
				if pending != nil {
					if ref, ok := parseInt64(attr(t, "ref")); ok {
						pending.nodeRefs = append(pending.nodeRefs, ref)
					}
				}
			case "member":
				if pending != nil {
					ref, _ := parseInt64(attr(t, "ref"))
					role := attr(t, "role")
					typ := memberTag(attr(t, "type"))
					pending.members = append(pending.members, osmbuf.Member{Ref: ref, Type: typ, Role: role})
				}
			case "discussion":
				inDiscussion = true
			case "comment":
				if inDiscussion {
					uid, _ := parseUint32(attr(t, "uid"))
					ts := parseTimestamp(attr(t, "date"))
					curComment = &osmbuf.Comment{UserID: uid, Timestamp: ts}
				}
			}
		case xml.CharData:
			if curComment != nil {
				curComment.Text += string(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "create", "modify", "delete":
				op = opNone
			case "comment":
				if curComment != nil && pending != nil {
					pending.comments = append(pending.comments, *curComment)
					curComment = nil
				}
			case "discussion":
				inDiscussion = false
			case "node", "way", "relation", "changeset":
				if pending != nil {
					if err := commitObject(buf, pending); err != nil {
						fail(err)
						return
					}
					count++
					pending = nil
					if count >= maxEntitiesPerBlock || buf.Written() >= targetBufferBytes {
						flush()
					}
				}
			}
		}
	}
	flush()
}

func startObject(kind osmbuf.Tag, t xml.StartElement, op changeOp) *pendingObject {
	id, _ := parseInt64(attr(t, "id"))
	version, _ := parseUint32(attr(t, "version"))
	if version == 0 {
		version = 1
	}
	changeset, _ := parseUint32(attr(t, "changeset"))
	uid, _ := parseUint32(attr(t, "uid"))
	ts := parseTimestamp(attr(t, "timestamp"))

	visible := true
	if v := attr(t, "visible"); v != "" {
		visible = v == "true"
	}
	if op == opDelete {
		visible = false
	}

	p := &pendingObject{
		kind:      kind,
		id:        id,
		version:   version,
		changeset: changeset,
		timestamp: ts,
		uid:       uid,
		user:      attr(t, "user"),
		visible:   visible,
	}
	if kind == osmbuf.TagNode {
		if lat, ok := parseFloat(attr(t, "lat")); ok {
			if lon, ok2 := parseFloat(attr(t, "lon")); ok2 {
				p.hasLoc = true
				p.lat, p.lon = lat, lon
			}
		}
	}
	return p
}

func commitObject(buf *osmbuf.Buffer, p *pendingObject) error {
	switch p.kind {
	case osmbuf.TagNode:
		b, err := osmbuf.NewNodeBuilder(buf, p.id, p.version, p.changeset, p.timestamp, p.uid, p.visible)
		if err != nil {
			return err
		}
		defer b.Close()
		if err := setUserTags(b.SetUser, b.AddTags, p); err != nil {
			return err
		}
		loc := osmbuf.Location{LatE7: osmbuf.CoordUndefined, LonE7: osmbuf.CoordUndefined}
		if p.hasLoc {
			loc = osmbuf.LocationFromDegrees(p.lat, p.lon)
		}
		if err := b.SetLocation(loc); err != nil {
			return err
		}
		_, err = b.Finish()
		return err
	case osmbuf.TagWay:
		b, err := osmbuf.NewWayBuilder(buf, p.id, p.version, p.changeset, p.timestamp, p.uid, p.visible)
		if err != nil {
			return err
		}
		defer b.Close()
		if err := setUserTags(b.SetUser, b.AddTags, p); err != nil {
			return err
		}
		if err := b.SetNodes(p.nodeRefs); err != nil {
			return err
		}
		_, err = b.Finish()
		return err
	case osmbuf.TagRelation:
		b, err := osmbuf.NewRelationBuilder(buf, p.id, p.version, p.changeset, p.timestamp, p.uid, p.visible)
		if err != nil {
			return err
		}
		defer b.Close()
		if err := setUserTags(b.SetUser, b.AddTags, p); err != nil {
			return err
		}
		if err := b.SetMembers(p.members); err != nil {
			return err
		}
		_, err = b.Finish()
		return err
	default: // TagChangeset
		b, err := osmbuf.NewChangesetBuilder(buf, p.id, p.version, p.changeset, p.timestamp, p.uid, true)
		if err != nil {
			return err
		}
		defer b.Close()
		if err := setUserTags(b.SetUser, b.AddTags, p); err != nil {
			return err
		}
		if err := b.SetDiscussion(p.comments); err != nil {
			return err
		}
		_, err = b.Finish()
		return err
	}
}

func setUserTags(setUser func(string) error, addTags func([]osmbuf.KV) error, p *pendingObject) error {
	if p.user != "" {
		if err := setUser(p.user); err != nil {
			return err
		}
	}
	if len(p.tags) > 0 {
		if err := addTags(p.tags); err != nil {
			return err
		}
	}
	return nil
}

func memberTag(s string) osmbuf.Tag {
	switch s {
	case "way":
		return osmbuf.TagWay
	case "relation":
		return osmbuf.TagRelation
	default:
		return osmbuf.TagNode
	}
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func parseInt64(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

func parseUint32(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err == nil
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// parseTimestamp parses an ISO-8601 UTC timestamp
// (YYYY-MM-DDTHH:MM:SSZ) into UNIX seconds, returning 0 for an absent
// or malformed value.
func parseTimestamp(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.Unix()
}

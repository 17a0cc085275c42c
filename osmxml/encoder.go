package osmxml

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/osmbuf/osmbuf/osmbuf"
	"github.com/osmbuf/osmbuf/pool"
)

// EncoderConfig controls the document an Encoder writes.
type EncoderConfig struct {
	// ChangeFormat writes an osmChange document (root element
	// <osmChange>, each object wrapped in <create>/<modify>/<delete>)
	// instead of a plain <osm> document.
	ChangeFormat bool
	// Generator is recorded in the root element's generator attribute.
	Generator string
	Pool       *pool.Pool
}

// Encoder serializes a sequence of committed osmbuf.Buffers to UTF-8
// OSM 0.6 / osmChange XML text. Each buffer is handed to the pool as a
// self-contained rendering task, and an ordered Queue of Futures
// preserves buffer order on output even though rendering itself runs
// concurrently — the same Writer/Queue split osmpbf.Writer uses for
// its blob encoding (§4.G).
type Encoder struct {
	w     io.Writer
	cfg   EncoderConfig
	pl    *pool.Pool
	queue *pool.Queue[*pool.Future[string]]
	errCh chan error
}

// NewEncoder starts an Encoder writing to w, emitting the XML
// declaration and root element opening tag synchronously.
func NewEncoder(w io.Writer, cfg EncoderConfig) (*Encoder, error) {
	if cfg.Generator == "" {
		cfg.Generator = "osmbuf"
	}
	if cfg.Pool == nil {
		cfg.Pool = pool.Default()
	}
	root := "osm"
	if cfg.ChangeFormat {
		root = "osmChange"
	}
	header := fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<%s version=\"0.6\" generator=%q>\n", root, cfg.Generator)
	if _, err := io.WriteString(w, header); err != nil {
		return nil, err
	}

	e := &Encoder{
		w:     w,
		cfg:   cfg,
		pl:    cfg.Pool,
		queue: pool.NewQueue[*pool.Future[string]](pool.DefaultMaxQueueSize),
		errCh: make(chan error, 1),
	}
	go e.drain()
	return e, nil
}

func (e *Encoder) drain() {
	for {
		fut, ok := e.queue.Pop()
		if !ok {
			e.errCh <- nil
			return
		}
		text, err := fut.Get()
		if err != nil {
			for {
				f2, ok := e.queue.Pop()
				if !ok {
					break
				}
				f2.Get()
			}
			e.errCh <- err
			return
		}
		if _, err := io.WriteString(e.w, text); err != nil {
			e.errCh <- err
			return
		}
	}
}

// WriteBuffer submits buf for asynchronous, order-preserving rendering.
func (e *Encoder) WriteBuffer(buf *osmbuf.Buffer) error {
	changeFormat := e.cfg.ChangeFormat
	fut := pool.Submit(e.pl, func() (string, error) {
		var b strings.Builder
		v := &xmlVisitor{out: &b, changeFormat: changeFormat}
		osmbuf.Apply(buf, v)
		if v.err != nil {
			return "", v.err
		}
		return b.String(), nil
	})
	e.queue.Push(fut)
	return nil
}

// Close finishes rendering every submitted Buffer, writes the closing
// root tag, and returns the first rendering or write error encountered.
func (e *Encoder) Close() error {
	e.queue.Close()
	err := <-e.errCh
	if err != nil {
		return err
	}
	root := "osm"
	if e.cfg.ChangeFormat {
		root = "osmChange"
	}
	_, werr := io.WriteString(e.w, "</"+root+">\n")
	return werr
}

// xmlVisitor renders each top-level OSM object (and, for osmChange
// documents, the enclosing create/modify/delete wrapper) as it is
// visited. Tag lists, node-ref lists, and member lists are rendered
// inline from the owning object's handler rather than their own
// visitor methods, since the XML dialect nests them as children of the
// object element, not as siblings.
type xmlVisitor struct {
	osmbuf.BaseVisitor
	out          *strings.Builder
	changeFormat bool
	err          error
}

func changesetOp(visible bool, version uint32) string {
	switch {
	case !visible:
		return "delete"
	case version <= 1:
		return "create"
	default:
		return "modify"
	}
}

func (v *xmlVisitor) wrap(op string, body func()) {
	if v.err != nil {
		return
	}
	if v.changeFormat {
		fmt.Fprintf(v.out, "<%s>\n", op)
	}
	body()
	if v.changeFormat {
		fmt.Fprintf(v.out, "</%s>\n", op)
	}
}

func (v *xmlVisitor) VisitNode(n osmbuf.NodeView) {
	if v.err != nil {
		return
	}
	op := changesetOp(n.Visible(), n.Version())
	v.wrap(op, func() {
		loc := n.Location()
		fmt.Fprintf(v.out, "  <node id=%q", strconv.FormatInt(n.ID(), 10))
		if !loc.Undefined() {
			fmt.Fprintf(v.out, " lat=%q lon=%q", formatCoord(loc.Lat()), formatCoord(loc.Lon()))
		}
		v.writeCommonAttrs(n.ObjectView)
		if tags := n.Tags(); tags.Valid() {
			fmt.Fprint(v.out, ">\n")
			v.writeTags(tags)
			fmt.Fprint(v.out, "  </node>\n")
		} else {
			fmt.Fprint(v.out, "/>\n")
		}
	})
}

func (v *xmlVisitor) VisitWay(w osmbuf.WayView) {
	if v.err != nil {
		return
	}
	op := changesetOp(w.Visible(), w.Version())
	v.wrap(op, func() {
		fmt.Fprintf(v.out, "  <way id=%q", strconv.FormatInt(w.ID(), 10))
		v.writeCommonAttrs(w.ObjectView)
		fmt.Fprint(v.out, ">\n")
		w.Nodes().Each(func(id int64) bool {
			fmt.Fprintf(v.out, "    <nd ref=%q/>\n", strconv.FormatInt(id, 10))
			return true
		})
		v.writeTags(w.Tags())
		fmt.Fprint(v.out, "  </way>\n")
	})
}

func (v *xmlVisitor) VisitRelation(r osmbuf.RelationView) {
	if v.err != nil {
		return
	}
	op := changesetOp(r.Visible(), r.Version())
	v.wrap(op, func() {
		fmt.Fprintf(v.out, "  <relation id=%q", strconv.FormatInt(r.ID(), 10))
		v.writeCommonAttrs(r.ObjectView)
		fmt.Fprint(v.out, ">\n")
		r.Members().Each(func(m osmbuf.MemberView) bool {
			fmt.Fprintf(v.out, "    <member type=%q ref=%q role=%q/>\n",
				memberTypeName(m.Type()), strconv.FormatInt(m.Ref(), 10), escapeAttr(m.Role()))
			return true
		})
		v.writeTags(r.Tags())
		fmt.Fprint(v.out, "  </relation>\n")
	})
}

func (v *xmlVisitor) VisitChangeset(c osmbuf.ChangesetView) {
	if v.err != nil {
		return
	}
	fmt.Fprintf(v.out, "  <changeset id=%q", strconv.FormatInt(c.ID(), 10))
	v.writeCommonAttrs(c.ObjectView)
	disc := c.Discussion()
	tags := c.Tags()
	if !tags.Valid() && !disc.Valid() {
		fmt.Fprint(v.out, "/>\n")
		return
	}
	fmt.Fprint(v.out, ">\n")
	v.writeTags(tags)
	if disc.Valid() {
		fmt.Fprint(v.out, "    <discussion>\n")
		disc.Each(func(cm osmbuf.CommentView) bool {
			ts := time.Unix(cm.Timestamp(), 0).UTC().Format(time.RFC3339)
			fmt.Fprintf(v.out, "      <comment uid=%q date=%q><text>%s</text></comment>\n",
				strconv.FormatUint(uint64(cm.UserID()), 10), ts, escapeAttr(cm.Text()))
			return true
		})
		fmt.Fprint(v.out, "    </discussion>\n")
	}
	fmt.Fprint(v.out, "  </changeset>\n")
}

func (v *xmlVisitor) writeCommonAttrs(o osmbuf.ObjectView) {
	fmt.Fprintf(v.out, " version=%q", strconv.FormatUint(uint64(o.Version()), 10))
	if cs := o.Changeset(); cs != 0 {
		fmt.Fprintf(v.out, " changeset=%q", strconv.FormatUint(uint64(cs), 10))
	}
	if ts := o.Timestamp(); ts != 0 {
		fmt.Fprintf(v.out, " timestamp=%q", time.Unix(ts, 0).UTC().Format(time.RFC3339))
	}
	if uid := o.UserID(); uid != 0 {
		fmt.Fprintf(v.out, " uid=%q", strconv.FormatUint(uint64(uid), 10))
		if name, ok := o.UserName(); ok {
			fmt.Fprintf(v.out, " user=%q", escapeAttr(name))
		}
	}
	if o.Tag() != osmbuf.TagChangeset {
		fmt.Fprintf(v.out, " visible=%q", strconv.FormatBool(o.Visible()))
	}
}

func (v *xmlVisitor) writeTags(tags osmbuf.TagListView) {
	if !tags.Valid() {
		return
	}
	tags.Each(func(k, val string) bool {
		fmt.Fprintf(v.out, "    <tag k=%q v=%q/>\n", escapeAttr(k), escapeAttr(val))
		return true
	})
}

// formatCoord renders a coordinate with the 7 fractional digits the
// OSM XML dialect expects.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 7, 64)
}

func memberTypeName(t osmbuf.Tag) string {
	switch t {
	case osmbuf.TagWay:
		return "way"
	case osmbuf.TagRelation:
		return "relation"
	default:
		return "node"
	}
}

package osmpbf

import (
	"encoding/binary"
	"io"

	"github.com/osmbuf/osmbuf/osmbuf"
	"github.com/osmbuf/osmbuf/pool"
	"golang.org/x/sync/errgroup"
)

// WriterConfig controls how a Writer encodes blocks.
type WriterConfig struct {
	DenseNodes  bool   // use DenseNodes encoding for node groups (osm.DefaultFile sets it)
	AddMetadata bool   // include version/timestamp/changeset/uid/user (Info/DenseInfo)
	Compression string // CompressionZlib (default) or CompressionNone
	Pool        *pool.Pool
}

// Writer encodes a sequence of osmbuf.Buffers into a PBF stream. Each
// Write call is handed to the pool for (optionally) zlib-compressed
// serialization while framing itself — writing the length-prefixed
// BlobHeader/Blob record — happens in submission order on the calling
// goroutine's Queue, so block order in the output always matches the
// order Write was called in even though the compression work runs
// concurrently (§4.G "Write pipeline").
type Writer struct {
	w     io.Writer
	cfg   WriterConfig
	pl    *pool.Pool
	queue *pool.Queue[*pool.Future[[]byte]]
	g     *errgroup.Group
}

// NewWriter starts a Writer over w, emitting the given Header as the
// first blob.
func NewWriter(w io.Writer, h Header, cfg WriterConfig) (*Writer, error) {
	if cfg.Compression == "" {
		cfg.Compression = CompressionZlib
	}
	if cfg.Pool == nil {
		cfg.Pool = pool.Default()
	}
	h.RequiredFeatures = requiredFeatures(cfg, h.RequiredFeatures)

	if err := writeRecord(w, BlobOSMHeader, encodeHeader(h), cfg.Compression); err != nil {
		return nil, err
	}

	wr := &Writer{
		w:     w,
		cfg:   cfg,
		pl:    cfg.Pool,
		queue: pool.NewQueue[*pool.Future[[]byte]](pool.DefaultMaxQueueSize),
		g:     &errgroup.Group{},
	}
	wr.g.Go(wr.drain)
	return wr, nil
}

func requiredFeatures(cfg WriterConfig, existing []string) []string {
	has := map[string]bool{}
	for _, f := range existing {
		has[f] = true
	}
	out := append([]string(nil), existing...)
	if !has[FeatureOSMSchemaV06] {
		out = append(out, FeatureOSMSchemaV06)
	}
	if cfg.DenseNodes && !has[FeatureDenseNodes] {
		out = append(out, FeatureDenseNodes)
	}
	return out
}

// drain pulls encoded-blob futures off the queue in submission order
// and writes each one as soon as it resolves, blocking the writer side
// on slow encodes without reordering anything. It is the "framing
// thread" for the write pipeline (§4.G), joined via the Writer's
// errgroup.Group so Close can observe its first error.
func (w *Writer) drain() error {
	for {
		fut, ok := w.queue.Pop()
		if !ok {
			return nil
		}
		blobBytes, err := fut.Get()
		if err != nil {
			// Keep draining so later futures never leak an undelivered
			// error or panic, but stop writing once one block fails.
			for {
				f2, ok := w.queue.Pop()
				if !ok {
					break
				}
				f2.Get()
			}
			return err
		}
		if _, err := w.w.Write(blobBytes); err != nil {
			return err
		}
	}
}

// WriteBuffer encodes buf's objects into one or more PrimitiveBlocks
// (splitting at MaxEntitiesPerGroup) and submits each for async,
// ordered writing.
func (w *Writer) WriteBuffer(buf *osmbuf.Buffer) error {
	bb := newBlockBuilder(w.cfg.DenseNodes, w.cfg.AddMetadata)
	it := buf.Objects()
	for item, ok := it.Next(); ok; item, ok = it.Next() {
		switch item.Tag() {
		case osmbuf.TagNode:
			bb.AddNode(osmbuf.AsNodeView(item))
		case osmbuf.TagWay:
			bb.AddWay(osmbuf.AsWayView(item))
		case osmbuf.TagRelation:
			bb.AddRelation(osmbuf.AsRelationView(item))
		default:
			continue
		}
		if bb.full() {
			w.submitBlock(bb.Build())
			bb = newBlockBuilder(w.cfg.DenseNodes, w.cfg.AddMetadata)
		}
	}
	if bb.n > 0 {
		w.submitBlock(bb.Build())
	}
	return nil
}

func (w *Writer) submitBlock(blk wirePrimitiveBlock) {
	comp := w.cfg.Compression
	fut := pool.Submit(w.pl, func() ([]byte, error) {
		body := encodePrimitiveBlock(blk)
		blobBytes, err := encodeBlob(body, comp)
		if err != nil {
			return nil, err
		}
		hdr := encodeBlobHeader(blobHeader{Type: BlobOSMData, DataSize: int32(len(blobBytes))})
		return framedRecord(hdr, blobBytes), nil
	})
	w.queue.Push(fut)
}

// framedRecord assembles the 4-byte length prefix + BlobHeader +
// Blob into a single contiguous write, so the ordered drain goroutine
// only ever issues one Write call per block.
func framedRecord(hdrBytes, blobBytes []byte) []byte {
	out := make([]byte, 4+len(hdrBytes)+len(blobBytes))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(hdrBytes)))
	copy(out[4:], hdrBytes)
	copy(out[4+len(hdrBytes):], blobBytes)
	return out
}

// Close waits for every outstanding block to be written and returns the
// first error encountered, if any.
func (w *Writer) Close() error {
	w.queue.Close()
	return w.g.Wait()
}

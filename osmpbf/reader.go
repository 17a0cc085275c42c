package osmpbf

import (
	"context"
	"io"

	"github.com/osmbuf/osmbuf/osmbuf"
	"github.com/osmbuf/osmbuf/pool"
	"golang.org/x/sync/errgroup"
)

// Reader decodes a PBF stream into a sequence of osmbuf.Buffers, one
// per PrimitiveBlock, using a framing goroutine that reads BlobHeader/
// Blob records and hands each decompressed PrimitiveBlock payload to a
// worker Pool, while a bounded Queue of Futures preserves block order
// for the consumer (§4.G "Read pipeline", mirrors the Writer/Reader
// split the teacher's ion/blockfmt chunker+reader pair uses for its own
// block-at-a-time streaming).
//
// The framing goroutine is joined through an errgroup.Group rather
// than a bare WaitGroup, and it observes a context cancellation at
// every queue boundary (between reading one record and pushing its
// future), matching the cancel-flag contract of §5: Close cancels the
// context, in-flight pool tasks still run to completion, and their
// futures are drained rather than delivered.
type Reader struct {
	r      io.Reader
	pool   *pool.Pool
	ownsPl bool
	align  int

	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group

	queue  *pool.Queue[*pool.Future[*osmbuf.Buffer]]
	header Header
	err    error
	done   bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithPool uses p instead of the process-wide default pool.
func WithPool(p *pool.Pool) ReaderOption {
	return func(r *Reader) { r.pool = p }
}

// WithAlign sets the alignment of Buffers the Reader produces.
func WithAlign(align int) ReaderOption {
	return func(r *Reader) { r.align = align }
}

// NewReader starts reading a PBF stream from r. It synchronously reads
// and validates the leading OSMHeader blob before returning.
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	rd := &Reader{r: r, align: osmbuf.DefaultAlign}
	for _, o := range opts {
		o(rd)
	}
	if rd.pool == nil {
		rd.pool = pool.Default()
		rd.ownsPl = false
	}

	hdr, payload, err := readRecord(r)
	if err != nil {
		return nil, err
	}
	if hdr.Type != BlobOSMHeader {
		return nil, osmbuf.NewFormatError("PBF stream does not start with an OSMHeader blob", nil)
	}
	h, err := decodeHeader(payload)
	if err != nil {
		return nil, err
	}
	rd.header = h

	ctx, cancel := context.WithCancel(context.Background())
	rd.ctx = ctx
	rd.cancel = cancel
	g := &errgroup.Group{}
	rd.g = g

	rd.queue = pool.NewQueue[*pool.Future[*osmbuf.Buffer]](pool.DefaultMaxQueueSize)
	g.Go(rd.frame)
	return rd, nil
}

// Header returns the decoded OSMHeader.
func (r *Reader) Header() Header { return r.header }

// frame runs in its own goroutine: it reads BlobHeader/Blob records
// sequentially (framing must stay single-threaded; only the decode
// itself is parallel) and submits each OSMData payload to the pool,
// pushing the resulting Future onto the ordered queue immediately so
// that Next can pop blocks out in file order even though they finish
// decoding out of order.
func (r *Reader) frame() error {
	defer r.queue.Close()
	for {
		if r.ctx.Err() != nil {
			return nil
		}
		hdr, payload, err := readRecord(r.r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			fut := pool.NewFuture[*osmbuf.Buffer]()
			fut.Resolve(nil, err)
			r.queue.Push(fut)
			return nil
		}
		if hdr.Type != BlobOSMData {
			continue
		}
		fut := pool.Submit(r.pool, func() (*osmbuf.Buffer, error) {
			return decodeBlock(payload, r.align)
		})
		if r.ctx.Err() != nil {
			fut.Get() // let the in-flight task finish before dropping it
			return nil
		}
		r.queue.Push(fut)
	}
}

func decodeBlock(payload []byte, align int) (*osmbuf.Buffer, error) {
	blk, err := decodePrimitiveBlock(payload)
	if err != nil {
		return nil, err
	}
	buf := osmbuf.NewBufferAlign(1<<16, align)
	if err := decodeBlockInto(buf, blk); err != nil {
		return nil, err
	}
	return buf, nil
}

// Next returns the next decoded block's Buffer, or (nil, nil) at
// end of stream. Blocks are returned in file order.
func (r *Reader) Next() (*osmbuf.Buffer, error) {
	if r.done {
		return nil, nil
	}
	fut, ok := r.queue.Pop()
	if !ok {
		r.done = true
		return nil, nil
	}
	buf, err := fut.Get()
	if err != nil {
		r.done = true
		return nil, err
	}
	return buf, nil
}

// Close cancels the framing goroutine, drains any outstanding in-flight
// futures so a caller that stops iterating early never leaks a panic
// recovered inside the pool, and joins the framing goroutine before
// returning.
func (r *Reader) Close() error {
	if r.done {
		return nil
	}
	r.cancel()
	r.queue.Drain()
	r.done = true
	return r.g.Wait()
}

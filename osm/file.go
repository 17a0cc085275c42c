// Package osm is the external driver that picks osmxml or osmpbf based
// on a file's format and wires a Reader/Writer pair over it, per a
// small set of configuration options (§6).
package osm

import "github.com/osmbuf/osmbuf/pool"

// File describes how to read or write one OSM data file: which format
// to use and how to (de)serialize object metadata. Its fields mirror
// the string-keyed options of the external interface, but exported as
// a plain Go struct the way the teacher's blockfmt.MultiWriter exposes
// its knobs as fields with documented defaults rather than a generic
// option map.
type File struct {
	Format Format

	// AddMetadata controls whether the PBF Writer writes
	// version/timestamp/uid/user/changeset. Default true. Readers and the
	// XML Writer do not consult it.
	AddMetadata bool

	// XMLChangeFormat makes an XML Writer emit an osmChange document
	// (<create>/<modify>/<delete> wrappers) instead of a plain <osm>
	// document. Ignored for PBF.
	XMLChangeFormat bool

	// ForceVisibleFlag makes an XML Writer always emit a visible
	// attribute, even for a plain (non-historical) file.
	ForceVisibleFlag bool

	// PBFDenseNodes selects DenseNodes encoding for node groups.
	// Default true. Ignored for XML.
	PBFDenseNodes bool

	// PBFCompression is "zlib" (default), "none", or "false".
	PBFCompression string

	// Pool is the worker pool used for (de)serialization. A nil Pool
	// uses the process-wide default.
	Pool *pool.Pool
}

// DefaultFile returns a File with the spec's documented defaults:
// add_metadata=true, pbf_dense_nodes=true, pbf_compression=zlib, and
// the XML/visible-flag options off.
func DefaultFile() File {
	return File{
		AddMetadata:    true,
		PBFDenseNodes:  true,
		PBFCompression: "zlib",
	}
}

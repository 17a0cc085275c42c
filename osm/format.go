package osm

import "strings"

// Format identifies the on-disk dialect of an OSM data file.
type Format int

const (
	// FormatUnknown means the suffix didn't match any recognized
	// extension (§6: "suffix rules, not content sniffing").
	FormatUnknown Format = iota
	FormatXML
	FormatXMLChange
	FormatXMLGzip
	FormatXMLBzip2
	FormatPBF
)

// DetectFormat maps a filename's suffix to a Format, per §6's table:
// .osm/.osc are XML, .pbf/.osm.pbf are PBF, .osm.gz/.osm.bz2 are XML
// read through a decompressor the caller supplies. It never opens or
// reads the file — the detection primitive is in scope, the
// auto-detecting CLI tool is not (§6, SUPPLEMENTED FEATURES).
func DetectFormat(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".osm.pbf"), strings.HasSuffix(lower, ".pbf"):
		return FormatPBF
	case strings.HasSuffix(lower, ".osm.gz"):
		return FormatXMLGzip
	case strings.HasSuffix(lower, ".osm.bz2"):
		return FormatXMLBzip2
	case strings.HasSuffix(lower, ".osc"):
		return FormatXMLChange
	case strings.HasSuffix(lower, ".osm"):
		return FormatXML
	default:
		return FormatUnknown
	}
}

// Compressed reports whether f names an XML file whose bytes are
// wrapped in an outer compressor the caller must unwrap before handing
// the stream to a Reader (§6: "gzip/bzip2 around XML streams are
// handled by the caller wrapping the io.Reader, not by this module").
func (f Format) Compressed() bool {
	return f == FormatXMLGzip || f == FormatXMLBzip2
}

func (f Format) IsXML() bool {
	switch f {
	case FormatXML, FormatXMLChange, FormatXMLGzip, FormatXMLBzip2:
		return true
	}
	return false
}

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "osm-xml"
	case FormatXMLChange:
		return "osm-xml-change"
	case FormatXMLGzip:
		return "osm-xml-gzip"
	case FormatXMLBzip2:
		return "osm-xml-bzip2"
	case FormatPBF:
		return "osm-pbf"
	default:
		return "unknown"
	}
}

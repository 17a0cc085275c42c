package osmbuf

import "encoding/binary"

// CoordUndefined is the sentinel value, in 1e-7 degree units, meaning
// "no coordinate" for either axis of a Location.
const CoordUndefined int32 = -1 << 31 // INT32_MIN

const locationSize = 8

// Location is a pair of signed 32-bit integers in units of 1e-7
// degrees. (CoordUndefined, CoordUndefined) means "undefined".
type Location struct {
	LatE7, LonE7 int32
}

// Undefined reports whether the location is the sentinel undefined
// value.
func (l Location) Undefined() bool {
	return l.LatE7 == CoordUndefined && l.LonE7 == CoordUndefined
}

// Lat and Lon return the location in floating-point degrees.
func (l Location) Lat() float64 { return float64(l.LatE7) / 1e7 }
func (l Location) Lon() float64 { return float64(l.LonE7) / 1e7 }

// LocationFromDegrees converts floating point degrees to the internal
// 1e-7 fixed point representation.
func LocationFromDegrees(lat, lon float64) Location {
	return Location{
		LatE7: int32(roundE7(lat)),
		LonE7: int32(roundE7(lon)),
	}
}

func roundE7(v float64) int64 {
	if v >= 0 {
		return int64(v*1e7 + 0.5)
	}
	return int64(v*1e7 - 0.5)
}

func encodeLocation(dst []byte, l Location) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(l.LatE7))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(l.LonE7))
}

func decodeLocation(src []byte) Location {
	return Location{
		LatE7: int32(binary.LittleEndian.Uint32(src[0:4])),
		LonE7: int32(binary.LittleEndian.Uint32(src[4:8])),
	}
}

package osmpbf

import (
	"golang.org/x/exp/maps"
	"google.golang.org/protobuf/encoding/protowire"
)

const stringTableEntryField protowire.Number = 1

// stringTable is a PrimitiveBlock-local interning table, modeled on
// ion.Symtab (github.com/SnellerInc/sneller/ion/symtab.go): index 0 is
// reserved as the empty string, and every other byte string is
// interned on first sight in the order it is encountered, with
// Intern returning a monotonically increasing id.
type stringTable struct {
	strings []string // index 0 is the reserved empty string
	toindex map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{
		strings: []string{""},
		toindex: map[string]uint32{"": 0},
	}
}

// Intern returns s's index, assigning it the next free index if this is
// the first time s has been seen.
func (t *stringTable) Intern(s string) uint32 {
	if idx, ok := t.toindex[s]; ok {
		return idx
	}
	idx := uint32(len(t.strings))
	t.strings = append(t.strings, s)
	t.toindex[s] = idx
	return idx
}

// Get returns the string associated with idx, or ("", false) if idx is
// out of range.
func (t *stringTable) Get(idx uint32) (string, bool) {
	if int(idx) >= len(t.strings) {
		return "", false
	}
	return t.strings[idx], true
}

func (t *stringTable) Len() int { return len(t.strings) }

func (t *stringTable) reset() {
	t.strings = t.strings[:1]
	maps.Clear(t.toindex)
	t.toindex[""] = 0
}

func encodeStringTable(t *stringTable) []byte {
	var b []byte
	// index 0 (the empty string) is still emitted explicitly so the
	// decoder sees a StringTable whose entry count matches t.Len().
	for _, s := range t.strings {
		b = appendBytesField(b, stringTableEntryField, []byte(s))
	}
	return b
}

func decodeStringTable(body []byte) (*stringTable, error) {
	t := &stringTable{toindex: map[string]uint32{}}
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		if num == stringTableEntryField {
			s := string(val)
			t.toindex[s] = uint32(len(t.strings))
			t.strings = append(t.strings, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

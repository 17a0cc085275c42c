package osmpbf

import (
	"fmt"

	"github.com/osmbuf/osmbuf/osmbuf"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	headerBBoxField               protowire.Number = 1
	headerRequiredFeaturesField   protowire.Number = 4
	headerOptionalFeaturesField   protowire.Number = 5
	headerWritingProgramField     protowire.Number = 16
	headerSourceField             protowire.Number = 17
	headerReplicationTimeField    protowire.Number = 32
	headerReplicationSeqField     protowire.Number = 33
	headerReplicationBaseURLField protowire.Number = 34

	bboxLeftField   protowire.Number = 1
	bboxRightField  protowire.Number = 2
	bboxTopField    protowire.Number = 3
	bboxBottomField protowire.Number = 4
)

// FeatureOSMSchemaV06 is the always-required PBF feature string.
const FeatureOSMSchemaV06 = "OsmSchema-V0.6"

// FeatureDenseNodes marks a file as using DenseNodes encoding.
const FeatureDenseNodes = "DenseNodes"

// FeatureHistoricalInformation marks a file as containing multiple
// versions of the same object id.
const FeatureHistoricalInformation = "HistoricalInformation"

// BBox is the header's optional bounding box, in 1e-9 degree units.
type BBox struct {
	Left, Right, Top, Bottom int64
}

// Header is the decoded form of the PBF OSMHeader blob.
type Header struct {
	BBox                       *BBox
	RequiredFeatures           []string
	OptionalFeatures           []string
	WritingProgram             string
	Source                     string
	OsmosisReplicationTimestamp int64
	OsmosisReplicationSequence  int64
	OsmosisReplicationBaseURL   string
}

func encodeBBox(b BBox) []byte {
	var out []byte
	out = appendSintField(out, bboxLeftField, b.Left)
	out = appendSintField(out, bboxRightField, b.Right)
	out = appendSintField(out, bboxTopField, b.Top)
	out = appendSintField(out, bboxBottomField, b.Bottom)
	return out
}

func decodeBBox(body []byte) (BBox, error) {
	var b BBox
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case bboxLeftField:
			b.Left = sintValue(val)
		case bboxRightField:
			b.Right = sintValue(val)
		case bboxTopField:
			b.Top = sintValue(val)
		case bboxBottomField:
			b.Bottom = sintValue(val)
		}
		return nil
	})
	return b, err
}

func encodeHeader(h Header) []byte {
	var b []byte
	if h.BBox != nil {
		b = appendBytesField(b, headerBBoxField, encodeBBox(*h.BBox))
	}
	for _, f := range h.RequiredFeatures {
		b = appendStringField(b, headerRequiredFeaturesField, f)
	}
	for _, f := range h.OptionalFeatures {
		b = appendStringField(b, headerOptionalFeaturesField, f)
	}
	if h.WritingProgram != "" {
		b = appendStringField(b, headerWritingProgramField, h.WritingProgram)
	}
	if h.Source != "" {
		b = appendStringField(b, headerSourceField, h.Source)
	}
	if h.OsmosisReplicationTimestamp != 0 {
		b = appendVarintField(b, headerReplicationTimeField, uint64(h.OsmosisReplicationTimestamp))
	}
	if h.OsmosisReplicationSequence != 0 {
		b = appendVarintField(b, headerReplicationSeqField, uint64(h.OsmosisReplicationSequence))
	}
	if h.OsmosisReplicationBaseURL != "" {
		b = appendStringField(b, headerReplicationBaseURLField, h.OsmosisReplicationBaseURL)
	}
	return b
}

// supportedFeatures lists the required-feature strings this decoder
// understands; anything else in required_features is a FormatError
// (§4.G, §6: "unknown required feature in PBF header").
var supportedFeatures = map[string]bool{
	FeatureOSMSchemaV06:          true,
	FeatureDenseNodes:            true,
	FeatureHistoricalInformation: true,
}

func decodeHeader(body []byte) (Header, error) {
	var h Header
	err := eachField(body, func(num protowire.Number, typ protowire.Type, val []byte) error {
		switch num {
		case headerBBoxField:
			bb, err := decodeBBox(val)
			if err != nil {
				return err
			}
			h.BBox = &bb
		case headerRequiredFeaturesField:
			h.RequiredFeatures = append(h.RequiredFeatures, string(val))
		case headerOptionalFeaturesField:
			h.OptionalFeatures = append(h.OptionalFeatures, string(val))
		case headerWritingProgramField:
			h.WritingProgram = string(val)
		case headerSourceField:
			h.Source = string(val)
		case headerReplicationTimeField:
			h.OsmosisReplicationTimestamp = int64(varintValue(val))
		case headerReplicationSeqField:
			h.OsmosisReplicationSequence = int64(varintValue(val))
		case headerReplicationBaseURLField:
			h.OsmosisReplicationBaseURL = string(val)
		}
		return nil
	})
	if err != nil {
		return Header{}, osmbuf.NewFormatError("decoding OSMHeader", err)
	}
	for _, f := range h.RequiredFeatures {
		if !supportedFeatures[f] {
			return Header{}, osmbuf.NewFormatError(fmt.Sprintf("unknown required PBF feature %q", f), nil)
		}
	}
	return h, nil
}

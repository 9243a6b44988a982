package state

import (
	"encoding/json"
	"fmt"
)

// Merge combines two stroke collections into one. Existing strokes come first
// and incoming strokes are appended after them. A non-empty stroke is dropped
// when it equals the most recent non-empty stroke already kept; strokes
// further back are not consulted, because a re-sent stroke arrives right
// after its original. Gap sentinels are always kept.
func Merge(incoming, existing []Stroke) []Stroke {
	out := make([]Stroke, 0, len(existing)+len(incoming))
	lastNonEmpty := -1

	for _, src := range [2][]Stroke{existing, incoming} {
		for _, s := range src {
			if s.IsGap() {
				out = append(out, Stroke{})
				continue
			}
			if lastNonEmpty >= 0 && out[lastNonEmpty].Equal(s) {
				continue
			}
			out = append(out, s)
			lastNonEmpty = len(out) - 1
		}
	}
	return out
}

// MergeAny is Merge for inputs that may still be in serialized form. Each
// argument may be a []Stroke, a [][]Point, a JSON string, []byte or
// json.RawMessage, or nil. Anything that does not decode to an array of
// strokes is treated as an empty collection.
func MergeAny(incoming, existing any) []Stroke {
	return Merge(normalize(incoming), normalize(existing))
}

func normalize(v any) []Stroke {
	switch t := v.(type) {
	case nil:
		return nil
	case []Stroke:
		return t
	case [][]Point:
		out := make([]Stroke, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case string:
		return DecodeStrokes([]byte(t))
	case []byte:
		return DecodeStrokes(t)
	case json.RawMessage:
		return DecodeStrokes(t)
	default:
		Logger().Debug("merge input is not a stroke collection", "type", fmt.Sprintf("%T", v))
		return nil
	}
}

// DecodeStrokes parses the persisted text form of a stroke collection.
// Malformed or non-array input yields an empty collection; elements that are
// not arrays are skipped.
func DecodeStrokes(data []byte) []Stroke {
	if len(data) == 0 {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		Logger().Debug("stroke collection did not decode", "err", err)
		return nil
	}
	out := make([]Stroke, 0, len(raw))
	for _, elem := range raw {
		var s Stroke
		if err := json.Unmarshal(elem, &s); err != nil {
			continue
		}
		if s == nil {
			// JSON null is not an array.
			continue
		}
		out = append(out, s)
	}
	return out
}

// EncodeStrokes returns the persisted text form of a stroke collection. A nil
// collection encodes as an empty array, and gap sentinels encode as [].
func EncodeStrokes(strokes []Stroke) string {
	norm := make([]Stroke, len(strokes))
	for i, s := range strokes {
		if s == nil {
			s = Stroke{}
		}
		norm[i] = s
	}
	buf, err := json.Marshal(norm)
	if err != nil {
		// Only NaN or Inf coordinates fail to encode.
		Logger().Warn("stroke collection did not encode", "err", err)
		return "[]"
	}
	return string(buf)
}

// DecodeShapes parses the persisted text form of a shape collection, with the
// same degrade-to-empty rule as DecodeStrokes.
func DecodeShapes(data []byte) []Shape {
	if len(data) == 0 {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		Logger().Debug("shape collection did not decode", "err", err)
		return nil
	}
	out := make([]Shape, 0, len(raw))
	for _, elem := range raw {
		var sh Shape
		if err := json.Unmarshal(elem, &sh); err != nil {
			continue
		}
		if sh.Type != ShapeCircle && sh.Type != ShapeRectangle {
			continue
		}
		out = append(out, sh)
	}
	return out
}

// EncodeShapes returns the persisted text form of a shape collection.
func EncodeShapes(shapes []Shape) string {
	if shapes == nil {
		shapes = []Shape{}
	}
	buf, err := json.Marshal(shapes)
	if err != nil {
		Logger().Warn("shape collection did not encode", "err", err)
		return "[]"
	}
	return string(buf)
}

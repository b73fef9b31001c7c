package stacktrace

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SourceMap is a parsed source-map-v3 mapping table, reduced to exactly
// what the mapper needs: for a generated (0-indexed line, column), which
// original (source, line, column) it came from. Only consuming is needed
// here — esbuild produces the maps — so the VLQ decoder below covers just
// the mappings grammar.
type SourceMap struct {
	Sources  []string
	mappings []segment // sorted by (genLine, genCol)
}

type segment struct {
	genLine, genCol       int
	sourceIdx             int
	origLine, origCol     int
	hasSource             bool
}

// rawMap mirrors the JSON shape of a source-map-v3 document.
type rawMap struct {
	Version  int      `json:"version"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// Parse decodes a source-map-v3 JSON document.
func Parse(data []byte) (*SourceMap, error) {
	var raw rawMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse source map: %w", err)
	}

	sm := &SourceMap{Sources: raw.Sources}

	var genLine int
	var genCol, sourceIdx, origLine, origCol int
	for _, lineStr := range strings.Split(raw.Mappings, ";") {
		genCol = 0
		if lineStr != "" {
			for _, segStr := range strings.Split(lineStr, ",") {
				if segStr == "" {
					continue
				}
				fields, err := decodeVLQSegment(segStr)
				if err != nil {
					return nil, fmt.Errorf("parse source map: mappings: %w", err)
				}
				genCol += fields[0]
				seg := segment{genLine: genLine, genCol: genCol}
				if len(fields) >= 4 {
					sourceIdx += fields[1]
					origLine += fields[2]
					origCol += fields[3]
					seg.hasSource = true
					seg.sourceIdx = sourceIdx
					seg.origLine = origLine
					seg.origCol = origCol
				}
				sm.mappings = append(sm.mappings, seg)
			}
		}
		genLine++
	}

	sort.Slice(sm.mappings, func(i, j int) bool {
		if sm.mappings[i].genLine != sm.mappings[j].genLine {
			return sm.mappings[i].genLine < sm.mappings[j].genLine
		}
		return sm.mappings[i].genCol < sm.mappings[j].genCol
	})

	return sm, nil
}

// OriginalPosition looks up the original (source path, 0-indexed line, col)
// for a 0-indexed generated position. ok is false if no segment exists at or
// before the position, or if the nearest segment carries no source.
func (sm *SourceMap) OriginalPosition(genLine, genCol int) (source string, line, col int, ok bool) {
	// Find the last mapping at or before (genLine, genCol): a binary search
	// over the sorted slice for the rightmost entry <= the target.
	idx := sort.Search(len(sm.mappings), func(i int) bool {
		m := sm.mappings[i]
		if m.genLine != genLine {
			return m.genLine > genLine
		}
		return m.genCol > genCol
	}) - 1

	for idx >= 0 && sm.mappings[idx].genLine == genLine {
		m := sm.mappings[idx]
		if !m.hasSource {
			return "", 0, 0, false
		}
		if m.sourceIdx < 0 || m.sourceIdx >= len(sm.Sources) {
			return "", 0, 0, false
		}
		return sm.Sources[m.sourceIdx], m.origLine, m.origCol, true
	}
	return "", 0, 0, false
}

const vlqBase64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var vlqDecodeTable [256]int

func init() {
	for i := range vlqDecodeTable {
		vlqDecodeTable[i] = -1
	}
	for i, c := range vlqBase64Chars {
		vlqDecodeTable[byte(c)] = i
	}
}

// decodeVLQSegment decodes one comma-delimited mapping segment into its
// field deltas (1, 4, or 5 fields per the source-map-v3 spec).
func decodeVLQSegment(s string) ([]int, error) {
	var fields []int
	i := 0
	for i < len(s) {
		value, shift, continuation := 0, 0, true
		for continuation {
			if i >= len(s) {
				return nil, fmt.Errorf("truncated VLQ")
			}
			digit := vlqDecodeTable[s[i]]
			i++
			if digit < 0 {
				return nil, fmt.Errorf("invalid VLQ character %q", s[i-1])
			}
			continuation = digit&0x20 != 0
			value += (digit & 0x1f) << shift
			shift += 5
		}
		negative := value&1 != 0
		value >>= 1
		if negative {
			value = -value
		}
		fields = append(fields, value)
	}
	return fields, nil
}

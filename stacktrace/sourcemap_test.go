package stacktrace

import "testing"

// "AAAA" decodes to [0,0,0,0]; "IAAI" to [4,0,0,4]; "AACA" to [0,0,1,0].
const twoLineMappings = "AAAA,IAAI;AACA"

func parseTestMap(t *testing.T) *SourceMap {
	t.Helper()
	sm, err := Parse([]byte(`{"version":3,"sources":["/app/main.ts"],"names":[],"mappings":"` + twoLineMappings + `"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return sm
}

func TestOriginalPositionExact(t *testing.T) {
	sm := parseTestMap(t)

	src, line, col, ok := sm.OriginalPosition(0, 0)
	if !ok || src != "/app/main.ts" || line != 0 || col != 0 {
		t.Fatalf("got %q,%d,%d,%v", src, line, col, ok)
	}

	src, line, col, ok = sm.OriginalPosition(0, 4)
	if !ok || src != "/app/main.ts" || line != 0 || col != 4 {
		t.Fatalf("got %q,%d,%d,%v", src, line, col, ok)
	}
}

func TestOriginalPositionNearestPreceding(t *testing.T) {
	sm := parseTestMap(t)

	// Column 2 falls between the segments at 0 and 4; the nearest
	// preceding segment wins.
	src, line, col, ok := sm.OriginalPosition(0, 2)
	if !ok || src != "/app/main.ts" || line != 0 || col != 0 {
		t.Fatalf("got %q,%d,%d,%v", src, line, col, ok)
	}
}

func TestOriginalPositionSecondLine(t *testing.T) {
	sm := parseTestMap(t)

	src, line, col, ok := sm.OriginalPosition(1, 0)
	if !ok || src != "/app/main.ts" || line != 1 || col != 0 {
		t.Fatalf("got %q,%d,%d,%v", src, line, col, ok)
	}
}

func TestOriginalPositionUnmappedLine(t *testing.T) {
	sm := parseTestMap(t)

	if _, _, _, ok := sm.OriginalPosition(7, 0); ok {
		t.Fatal("expected no mapping for a line past the map")
	}
}

func TestParseRejectsBadVLQ(t *testing.T) {
	if _, err := Parse([]byte(`{"version":3,"sources":["a"],"mappings":"!!!"}`)); err == nil {
		t.Fatal("expected error for invalid VLQ characters")
	}
}

func TestParseRejectsBadJSON(t *testing.T) {
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

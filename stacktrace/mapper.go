// Package stacktrace rewrites V8 stack-trace frames through the source
// maps produced during transpilation, so a user sees the original .ts file,
// line, and column instead of the emitted JavaScript's.
package stacktrace

import (
	"fmt"
	"regexp"
	"strconv"
)

// frameRe matches both stack-frame forms V8 emits: "at <name> (<file>:<line>:<col>)"
// and the bare "at <file>:<line>:<col>" form used for the top frame of an
// anonymous function.
var frameRe = regexp.MustCompile(`^(\s*at\s+)(?:([^(\r\n]+?)\s+\()?([^()\r\n]+?):(\d+):(\d+)\)?$`)

// Mapper rewrites stack traces using a Store keyed by module URL. It is
// stateless beyond the store reference, so it is idempotent and safe to
// call repeatedly during exception handling.
type Mapper struct {
	store *Store
}

// New returns a Mapper reading from store.
func New(store *Store) *Mapper {
	return &Mapper{store: store}
}

// MapStack rewrites every frame of a captured V8 stack string. Frames whose
// file has no recorded source map, or whose position has no original
// mapping, pass through unchanged.
func (m *Mapper) MapStack(stack string) string {
	lines := splitLines(stack)
	for i, line := range lines {
		lines[i] = m.mapLine(line)
	}
	return joinLines(lines)
}

func (m *Mapper) mapLine(line string) string {
	match := frameRe.FindStringSubmatch(line)
	if match == nil {
		return line
	}
	prefix, name, file, lineStr, colStr := match[1], match[2], match[3], match[4], match[5]

	sm := m.store.Get(file)
	if sm == nil {
		return line
	}

	genLine, err1 := strconv.Atoi(lineStr)
	genCol, err2 := strconv.Atoi(colStr)
	if err1 != nil || err2 != nil {
		return line
	}

	// V8 coordinates are 1-indexed; source-map coordinates are 0-indexed.
	src, origLine, origCol, ok := sm.OriginalPosition(genLine-1, genCol-1)
	if !ok {
		return line
	}

	if name != "" {
		return fmt.Sprintf("%s%s (%s:%d:%d)", prefix, name, src, origLine+1, origCol+1)
	}
	return fmt.Sprintf("%s%s:%d:%d", prefix, src, origLine+1, origCol+1)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			end := i
			if end > start && s[end-1] == '\r' {
				end--
			}
			lines = append(lines, s[start:end])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func joinLines(lines []string) string {
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}

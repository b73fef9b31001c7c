package module

import "strings"

// AliasMap is the developer-defined specifier-alias table: a prefix (e.g. "@local/lib-std") maps to a target filesystem path,
// absolute or relative to the working directory. Longest-prefix wins.
type AliasMap map[string]string

// Resolve rewrites specifier if it (or a "<prefix>/..." form of it) matches
// an entry, returning the rewritten specifier and true. The remainder after
// the prefix is appended onto the target verbatim. An exact match on the
// alias itself resolves to the target with no remainder.
func (a AliasMap) Resolve(specifier string) (string, bool) {
	if len(a) == 0 {
		return "", false
	}

	var bestPrefix, bestTarget string
	for prefix, target := range a {
		if specifier == prefix {
			if len(prefix) > len(bestPrefix) {
				bestPrefix, bestTarget = prefix, target
			}
			continue
		}
		if strings.HasPrefix(specifier, prefix+"/") {
			if len(prefix) > len(bestPrefix) {
				bestPrefix, bestTarget = prefix, target
			}
		}
	}
	if bestPrefix == "" {
		return "", false
	}
	if specifier == bestPrefix {
		return bestTarget, true
	}
	remainder := strings.TrimPrefix(specifier, bestPrefix)
	return bestTarget + remainder, true
}

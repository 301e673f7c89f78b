package domain

import "strings"

// NormalizeTag flattens a player or clan tag to its canonical form:
// leading '#' characters stripped, uppercased, and every letter 'O'
// folded to '0'. The upstream API and hand-entered rosters disagree on
// all three, so every tag comparison in this codebase goes through
// here first.
//
// Total and idempotent over all inputs; malformed tags come out
// malformed but stable.
func NormalizeTag(tag string) string {
	tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
	tag = strings.ToUpper(tag)
	return strings.ReplaceAll(tag, "O", "0")
}

// SameTag reports whether two raw tags refer to the same entity.
func SameTag(a, b string) bool {
	return NormalizeTag(a) == NormalizeTag(b)
}

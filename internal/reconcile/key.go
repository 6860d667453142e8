package reconcile

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IdentityKey converts a display name into the storage-safe identifier
// used to match the same person across runs. The derivation is the join
// key for reconciliation, so it must stay deterministic:
//
//  1. trim surrounding whitespace
//  2. whitespace runs and underscores become a single "_"
//  3. every other character outside letters/digits is dropped
//  4. leading/trailing "_" are stripped
//  5. segments are lowercased, then camelCased across "_" boundaries
//
// "  John  O'Doe " thus becomes "johnOdoe".
func IdentityKey(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsSpace(r) || r == '_':
			b.WriteRune('_')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}

	// FieldsFunc collapses repeated separators and drops empty edges.
	segments := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '_' })
	for i, seg := range segments {
		seg = strings.ToLower(seg)
		if i > 0 {
			first, size := utf8.DecodeRuneInString(seg)
			seg = string(unicode.ToUpper(first)) + seg[size:]
		}
		segments[i] = seg
	}
	return strings.Join(segments, "")
}

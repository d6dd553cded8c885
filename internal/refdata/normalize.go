package refdata

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// Normalize produces the canonical lookup key for a reference-data name.
// Whitespace is trimmed and collapsed, the text is NFKC-normalized so
// width and compatibility variants compare equal, and case is folded.
// "  Acme Co " and "acme co" map to the same key.
func Normalize(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	if collapsed == "" {
		return ""
	}
	return foldCaser.String(norm.NFKC.String(collapsed))
}

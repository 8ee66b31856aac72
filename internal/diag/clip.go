package diag

import (
	"github.com/clipperhouse/uax29/v2/graphemes"
)

// Clip truncates s to at most n grapheme clusters, appending an ellipsis if
// trimmed. Unlike a naive []rune clip (the teacher's ui.clip helper), this
// never splits a multi-codepoint grapheme cluster — relevant once atom
// values routinely contain combining marks or emoji, which a rune-count
// clip would cut in half.
func Clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	end := 0
	seg := graphemes.FromString(s)
	for seg.Next() {
		if count == n {
			return s[:end] + "…"
		}
		end += len(seg.Value())
		count++
	}
	return s
}

package memo

import "strings"

// SplitText splits memo text into its title line and the remaining body.
// The split happens at the first newline or carriage return; the separator
// stays with the body. Text without a line break is all title. The index
// math is byte-based but safe for UTF-8 because both separators are
// single-byte and never part of a multi-byte sequence.
func SplitText(text string) (title, body string) {
	i := strings.IndexAny(text, "\n\r")
	if i < 0 {
		return text, ""
	}
	return text[:i], text[i:]
}

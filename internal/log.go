package internal

import (
	"fmt"
	"io"
	"log"
	"path"
)

// Prefix creates a consistent prefix for all per-item log lines.
//
// i is the zero-based ordinal, n the expected count. Only the base of name is printed, and it is truncated to 30
// runes.
func Prefix(i, n int, name string) string {
	return fmt.Sprintf(`[%d/%d] "%s" - `, i+1, n, TruncateRightWithSuffix(path.Base(name), 30, "..."))
}

// NewLogger returns a logger writing to w with Prefix(i, n, name).
func NewLogger(w io.Writer, i, n int, name string) *log.Logger {
	return log.New(w, Prefix(i, n, name), 0)
}

// TruncateRightWithSuffix keeps the first size runes of text and appends suffix only if truncation happens.
func TruncateRightWithSuffix(text string, size int, suffix string) string {
	if size <= 0 {
		return suffix
	}

	rs := make([]rune, 0, size)
	for _, r := range text {
		if len(rs) == size {
			return string(rs) + suffix
		}

		rs = append(rs, r)
	}

	return string(rs)
}

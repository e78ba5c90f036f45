package codec

import (
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// PresencePalette is the fixed set of avatar colors.
var PresencePalette = []string{
	"#ef4444",
	"#f59e0b",
	"#10b981",
	"#3b82f6",
	"#8b5cf6",
	"#ec4899",
	"#14b8a6",
	"#f97316",
}

// DisplayColor maps a user name to a palette color.
//
// The hash runs over the UTF-16 code units of the NFC form of name as
// h = c + (h<<5) - h, where only the shift truncates h to 32 bits and the
// accumulator itself never wraps. Every client therefore computes the same
// color for the same name regardless of how the name was typed.
func DisplayColor(name string) string {
	var h int64
	for _, c := range utf16.Encode([]rune(norm.NFC.String(name))) {
		h = int64(c) + (int64(int32(h)<<5) - h)
	}
	if h < 0 {
		h = -h
	}
	return PresencePalette[h%int64(len(PresencePalette))]
}

package tlguard

import "unicode"

// emojiTable covers pictographs, symbols and the emoji blocks.
var emojiTable = &unicode.RangeTable{
	R32: []unicode.Range32{
		{Lo: 0x2600, Hi: 0x26FF, Stride: 1},   // Miscellaneous Symbols
		{Lo: 0x2700, Hi: 0x27BF, Stride: 1},   // Dingbats
		{Lo: 0x2B00, Hi: 0x2BFF, Stride: 1},   // Miscellaneous Symbols and Arrows
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // Miscellaneous Symbols and Pictographs
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // Emoticons
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // Transport and Map Symbols
		{Lo: 0x1F700, Hi: 0x1F77F, Stride: 1}, // Alchemical Symbols
		{Lo: 0x1F780, Hi: 0x1F7FF, Stride: 1}, // Geometric Shapes Extended
		{Lo: 0x1F800, Hi: 0x1F8FF, Stride: 1}, // Supplemental Arrows-C
		{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1}, // Supplemental Symbols and Pictographs
		{Lo: 0x1FA00, Hi: 0x1FA6F, Stride: 1}, // Chess Symbols
		{Lo: 0x1FA70, Hi: 0x1FAFF, Stride: 1}, // Symbols and Pictographs Extended-A
	},
}

// IsEmoji reports whether r falls in one of the recognized emoji ranges.
func IsEmoji(r rune) bool {
	return unicode.Is(emojiTable, r)
}

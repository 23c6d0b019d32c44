package helpers

import (
	"encoding/hex"
	"strings"
)

func MustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// HexDump renders b in the classic offset/hex/printable layout,
// 16 bytes per line. Used for malformed frame diagnostics.
func HexDump(b []byte) string {
	const width = 16
	sb := strings.Builder{}
	for base := 0; base < len(b); base += width {
		end := base + width
		if end > len(b) {
			end = len(b)
		}
		line := b[base:end]
		sb.WriteString(strings.ToLower(encodeOffset(base)))
		sb.WriteString("  ")
		for i := 0; i < width; i++ {
			if i < len(line) {
				sb.WriteString(hex.EncodeToString(line[i : i+1]))
				sb.WriteByte(' ')
			} else {
				sb.WriteString("   ")
			}
		}
		sb.WriteByte(' ')
		for _, c := range line {
			if c >= 32 && c <= 126 {
				sb.WriteByte(c)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func encodeOffset(n int) string {
	return hex.EncodeToString([]byte{byte(n >> 8), byte(n)})
}

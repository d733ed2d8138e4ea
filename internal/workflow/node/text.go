package node

import "unicode/utf8"

// TruncateByRunes 按字符数截断，用于日志中的模型输出片段
func TruncateByRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	for i, n := 0, 0; i < len(s); n++ {
		if n == maxRunes {
			return s[:i]
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s
}

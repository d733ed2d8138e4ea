package node

import "strings"

// responseFormatMarkers 提供商拒绝 response_format / json_schema 时错误信息中的特征片段
var responseFormatMarkers = [][]string{
	{"response_format"},
	{"json_schema"},
	{"response_schema"},
	{"unknown parameter", "response"},
	{"unsupported", "response"},
	{"invalid", "response"},
}

// IsResponseFormatUnsupportedError 判断错误是否源于提供商不支持结构化输出参数
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, parts := range responseFormatMarkers {
		if containsAll(msg, parts) {
			return true
		}
	}
	return false
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

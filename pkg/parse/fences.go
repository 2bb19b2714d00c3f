package parse

import (
	"strings"
)

const fence = "```"

// StripFences removes a markdown code fence wrapped around content.
//
// If the content starts with a fence line, exactly that line is dropped. If
// the remainder ends with a fence, exactly the last line is dropped. Content
// without fences is returned unchanged.
func StripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, fence) && !strings.HasSuffix(trimmed, fence) {
		return content
	}

	if strings.HasPrefix(trimmed, fence) {
		idx := strings.Index(trimmed, "\n")
		if idx == -1 {
			return ""
		}
		trimmed = trimmed[idx+1:]
	}
	if strings.HasSuffix(trimmed, fence) {
		idx := strings.LastIndex(trimmed, "\n")
		if idx == -1 {
			trimmed = ""
		} else {
			trimmed = trimmed[:idx]
		}
	}

	return trimmed
}

// Package json decodes tool-call arguments emitted by language models.
//
// Models sometimes wrap argument objects in markdown fences or surround them
// with commentary. DecodeArgs tolerates both and always yields a non-nil map.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeArgs parses a tool-call argument payload into a string-keyed map.
// An empty payload decodes to an empty map.
func DecodeArgs(raw string) (map[string]any, error) {
	raw = stripFences(raw)
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}

	args := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		args = map[string]any{}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &args); err == nil {
			return args, nil
		}
	}

	preview := raw
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return nil, fmt.Errorf("invalid tool arguments: %q", preview)
}

// stripFences removes ```json ... ``` wrappers.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

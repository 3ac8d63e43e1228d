package masking

import "strings"

// Keys whose values are credentials. Matching is by substring on the lowercased key.
var secretKeyParts = []string{"license_key", "token", "secret", "password"}

const visibleSuffix = 4

// Secret replaces all but the last few characters of value with asterisks.
// Short values are hidden entirely.
func Secret(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return ""
	case len(value) <= visibleSuffix*2:
		return "****"
	default:
		return "****" + value[len(value)-visibleSuffix:]
	}
}

// Metadata returns a copy of md where string values under credential keys
// are masked. Nested maps are walked.
func Metadata(md map[string]any) map[string]any {
	if len(md) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(md))
	for k, v := range md {
		if k == "" {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			out[k] = Metadata(val)
		case string:
			if isSecretKey(k) {
				val = Secret(val)
			}
			out[k] = val
		default:
			out[k] = v
		}
	}
	return out
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, part := range secretKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

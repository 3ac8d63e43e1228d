package domain

import "regexp"

const maxPluginNameLength = 60

var pluginNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidPluginName reports whether name can identify a plugin.
func ValidPluginName(name string) bool {
	return len(name) <= maxPluginNameLength && pluginNamePattern.MatchString(name)
}

package domain

import (
	"strings"
	"testing"
)

func TestValidPluginName(t *testing.T) {
	valid := []string{"Marketplace", "a", "Custom_Alerts2", strings.Repeat("a", 60)}
	invalid := []string{"", "_x", "9lives", "with space", "dash-name", "dot.name", "../x", strings.Repeat("a", 61)}

	for _, name := range valid {
		if !ValidPluginName(name) {
			t.Fatalf("expected %q to be valid", name)
		}
	}
	for _, name := range invalid {
		if ValidPluginName(name) {
			t.Fatalf("expected %q to be invalid", name)
		}
	}
}

package request

import "testing"

func TestNormalizeProvider(t *testing.T) {
	tests := []struct {
		host     string
		expected string
	}{
		{"api.open-meteo.com", "open-meteo"},
		{"archive-api.open-meteo.com", "open-meteo"},
		{"open-meteo.com", "open-meteo"},
		{"api.opentopodata.org", "opentopodata"},
		{"other.com", "other.com"},
	}

	for _, tt := range tests {
		got := normalizeProvider(tt.host)
		if got != tt.expected {
			t.Errorf("normalizeProvider(%q) = %q; want %q", tt.host, got, tt.expected)
		}
	}
}

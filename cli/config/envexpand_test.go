package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("MASON_SET", "value")
	t.Setenv("MASON_EMPTY", "")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "key: ${MASON_SET}", "key: value"},
		{"unset variable", "key: ${MASON_UNSET_XYZ}", "key: "},
		{"unset with default", "key: ${MASON_UNSET_XYZ:-fallback}", "key: fallback"},
		{"empty uses default", "key: ${MASON_EMPTY:-fallback}", "key: fallback"},
		{"set ignores default", "key: ${MASON_SET:-fallback}", "key: value"},
		{"no pattern untouched", "key: plain $VALUE", "key: plain $VALUE"},
		{"multiple expansions", "${MASON_SET}-${MASON_SET}", "value-value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.in); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

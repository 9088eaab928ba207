package chunker

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  a  b  ", "a b"},
		{"Hello\n\n world\x00!\x7f ", "Hello world!"},
		{"tab\tand\r\nnewline", "tab and newline"},
		{"\x01\x02", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

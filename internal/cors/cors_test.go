package cors

import "testing"

func TestIsAllowed(t *testing.T) {
	p := New([]string{"http://localhost:3000", "https://newsly.io"})

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{name: "listed origin", origin: "http://localhost:3000", want: true},
		{name: "second listed origin", origin: "https://newsly.io", want: true},
		{name: "unlisted origin", origin: "http://evil.example", want: false},
		{name: "scheme mismatch", origin: "https://localhost:3000", want: false},
		{name: "port mismatch", origin: "http://localhost:3001", want: false},
		{name: "prefix is not a match", origin: "http://localhost:3000.evil.example", want: false},
		{name: "empty origin", origin: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsAllowed(tt.origin); got != tt.want {
				t.Errorf("IsAllowed(%q) = %t; want %t", tt.origin, got, tt.want)
			}
		})
	}
}

func TestIsAllowedWildcard(t *testing.T) {
	p := New([]string{"*"})
	if !p.IsAllowed("http://anywhere.example") {
		t.Error("a literal wildcard entry should permit any presented origin")
	}
	if p.IsAllowed("") {
		t.Error("a wildcard entry must not permit a missing origin")
	}
}

func TestIsAllowedEmptySet(t *testing.T) {
	p := New(nil)
	if p.IsAllowed("http://localhost:3000") {
		t.Error("an empty allow-set should permit nothing")
	}
}

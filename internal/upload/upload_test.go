package upload

import (
	"testing"

	"github.com/newslyhq/newsly/internal/validator"
)

func TestValidate(t *testing.T) {
	rules := Rules{
		MaxFileSize:       5_242_880,
		AllowedExtensions: []string{".jpg", ".png"},
	}

	tests := []struct {
		name     string
		filename string
		size     int64
		want     bool
	}{
		{name: "acceptable png", filename: "x.png", size: 1_000_000, want: true},
		{name: "acceptable jpg at the limit", filename: "photo.jpg", size: 5_242_880, want: true},
		{name: "uppercase extension", filename: "PHOTO.JPG", size: 1_000, want: true},
		{name: "too large", filename: "x.png", size: 6_000_000, want: false},
		{name: "disallowed extension", filename: "x.exe", size: 1_000, want: false},
		{name: "no extension", filename: "x", size: 1_000, want: false},
		{name: "empty file", filename: "x.png", size: 0, want: false},
		{name: "disallowed and too large", filename: "x.exe", size: 6_000_000, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validator.New()
			Validate(v, rules, tt.filename, tt.size)
			if got := v.Valid(); got != tt.want {
				t.Errorf("valid = %t; want %t (errors: %v)", got, tt.want, v.Errors)
			}
		})
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	rules := Rules{MaxFileSize: 100, AllowedExtensions: []string{".jpg"}}
	v := validator.New()
	Validate(v, rules, "malware.exe", 200)
	if v.Valid() {
		t.Fatal("expected violations")
	}
	if _, found := v.Errors["file"]; !found {
		t.Errorf("expected a file error; got %v", v.Errors)
	}
}

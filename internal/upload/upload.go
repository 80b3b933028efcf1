// Package upload enforces the configured constraints on incoming file
// uploads: a maximum byte size and an allow-set of filename extensions.
// The extension check looks at the declared filename suffix only; callers
// needing content-based checks layer a sniff on top before storing.
package upload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/newslyhq/newsly/internal/validator"
)

// Rules holds the upload constraints resolved from configuration.
// Extensions are expected lowercase and dot-prefixed, as config.Load
// normalizes them.
type Rules struct {
	MaxFileSize       int64
	AllowedExtensions []string
}

// Validate checks an upload's declared filename and size against the rules,
// recording any violations on the validator.
func Validate(v *validator.Validator, rules Rules, filename string, size int64) {
	v.Check(size > 0, "file", "must not be empty")
	v.Check(size <= rules.MaxFileSize, "file", fmt.Sprintf("must not be larger than %d bytes", rules.MaxFileSize))

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		v.AddError("file", "must have a file extension")
		return
	}
	v.Check(validator.In(ext, rules.AllowedExtensions...), "file", fmt.Sprintf("extension %s is not allowed, must be one of %s", ext, strings.Join(rules.AllowedExtensions, ", ")))
}

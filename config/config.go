// Package config resolves the environment-declared settings the application
// reads at startup. The environment is snapshotted once, parsed into a typed
// Config, and never mutated afterwards. Load reports every malformed or
// missing setting it finds in a single Error, so a bad deployment is fixed in
// one round-trip rather than one variable at a time.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/newslyhq/newsly/internal/validator"
)

// Mail backend identifiers produced by normalizing EMAIL_BACKEND.
const (
	MailBackendConsole = "console"
	MailBackendSMTP    = "smtp"
)

// Rate is a request quota over a fixed time window, declared in the
// environment as "<quota>/<unit>", e.g. "1000/hour".
type Rate struct {
	Quota  int
	Window time.Duration
}

func (r Rate) String() string {
	return fmt.Sprintf("%d per %s", r.Quota, r.Window)
}

// Config holds all the typed configuration settings for the application.
// It is constructed once by Load and shared read-only by every component.
type Config struct {
	Server struct {
		Port int
		Env  string
	}
	Debug        bool
	AllowedHosts []string
	Database     struct {
		DSN          string
		MaxOpenConns int
		MaxIdleConns int
		MaxIdleTime  string
	}
	Email struct {
		Backend  string
		Host     string
		Port     int
		UseTLS   bool
		Username string
		Password string
		Sender   string
	}
	Cors struct {
		AllowedOrigins []string
	}
	Limiter struct {
		Authenticated Rate
		Anonymous     Rate
	}
	Upload struct {
		MaxFileSize       int64
		AllowedExtensions []string
	}
	Storage struct {
		UseS3           bool
		MediaRoot       string
		MediaURL        string
		AccessKeyID     string
		SecretAccessKey string
		Bucket          string
		Region          string
	}
	Metrics struct {
		Enabled bool
	}
	BasicAuth struct {
		Username string
		Password string
	}
}

// Error reports every configuration violation found during Load, keyed by
// environment variable name. The process must not start serving traffic when
// Load returns one.
type Error struct {
	Errors map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for key := range e.Errors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Errors[key])
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Environ snapshots the process environment into a map. The snapshot is
// taken once at boot; later changes to the environment are not observed.
func Environ() map[string]string {
	raw := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			raw[k] = v
		}
	}
	return raw
}

// Load parses a raw environment snapshot into a Config. It is pure and
// deterministic: the same raw input always yields the same Config or the
// same *Error. All violations are collected before returning.
func Load(raw map[string]string) (Config, error) {
	var cfg Config
	p := &parser{raw: raw, v: validator.New()}

	cfg.Server.Port = p.integer("PORT", 8000, 1, 65535)
	cfg.Server.Env = p.text("ENV", "development")
	cfg.Debug = p.boolean("DEBUG", false)
	cfg.AllowedHosts = p.list("ALLOWED_HOSTS", nil)

	cfg.Database.DSN = p.text("DATABASE_URL", "")
	cfg.Database.MaxOpenConns = p.integer("DB_MAX_OPEN_CONNS", 25, 1, 10_000)
	cfg.Database.MaxIdleConns = p.integer("DB_MAX_IDLE_CONNS", 25, 1, 10_000)
	cfg.Database.MaxIdleTime = p.text("DB_MAX_IDLE_TIME", "15m")

	cfg.Email.Backend = p.mailBackend("EMAIL_BACKEND", MailBackendConsole)
	cfg.Email.Host = p.text("EMAIL_HOST", "")
	cfg.Email.Port = p.integer("EMAIL_PORT", 0, 1, 65535)
	cfg.Email.UseTLS = p.boolean("EMAIL_USE_TLS", false)
	cfg.Email.Username = p.text("EMAIL_HOST_USER", "")
	cfg.Email.Password = p.text("EMAIL_HOST_PASSWORD", "")
	cfg.Email.Sender = p.text("DEFAULT_FROM_EMAIL", "Newsly <no-reply@newsly.io>")

	cfg.Cors.AllowedOrigins = p.list("CORS_ALLOWED_ORIGINS", nil)

	cfg.Limiter.Authenticated = p.rate("API_RATE_LIMIT_AUTHENTICATED", Rate{Quota: 1000, Window: time.Hour})
	cfg.Limiter.Anonymous = p.rate("API_RATE_LIMIT_ANONYMOUS", Rate{Quota: 100, Window: time.Hour})

	cfg.Upload.MaxFileSize = p.bytes("MAX_FILE_SIZE", 5_242_880)
	cfg.Upload.AllowedExtensions = p.extensions("ALLOWED_IMAGE_EXTENSIONS", []string{".jpg", ".jpeg", ".png", ".gif", ".webp"})

	cfg.Storage.UseS3 = p.boolean("USE_S3", false)
	cfg.Storage.MediaRoot = p.text("MEDIA_ROOT", "media")
	cfg.Storage.MediaURL = p.mediaURL("MEDIA_URL", "/media/")
	cfg.Storage.AccessKeyID = p.text("AWS_ACCESS_KEY_ID", "")
	cfg.Storage.SecretAccessKey = p.text("AWS_SECRET_ACCESS_KEY", "")
	cfg.Storage.Bucket = p.text("AWS_STORAGE_BUCKET_NAME", "")
	cfg.Storage.Region = p.text("AWS_S3_REGION_NAME", "")

	cfg.Metrics.Enabled = p.boolean("METRICS_ENABLED", false)
	cfg.BasicAuth.Username = p.text("BASIC_AUTH_USERNAME", "")
	cfg.BasicAuth.Password = p.text("BASIC_AUTH_PASSWORD", "")

	if !p.v.Valid() {
		return Config{}, &Error{Errors: p.v.Errors}
	}
	return cfg, nil
}

// ParseBool parses a boolean setting. "true"/"false" in any case are
// accepted, along with the common aliases 1/0, yes/no and on/off.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// ParseRate parses a "<quota>/<unit>" rate declaration, e.g. "1000/hour" or
// "20/min". Recognized units are second, minute, hour and day along with
// their short forms.
func ParseRate(s string) (Rate, error) {
	quotaPart, unitPart, ok := strings.Cut(s, "/")
	if !ok {
		return Rate{}, fmt.Errorf("invalid rate %q, expected the format <quota>/<unit>", s)
	}
	quota, err := strconv.Atoi(strings.TrimSpace(quotaPart))
	if err != nil || quota < 1 {
		return Rate{}, fmt.Errorf("invalid rate quota %q, expected a positive integer", quotaPart)
	}
	window, ok := rateUnits[strings.ToLower(strings.TrimSpace(unitPart))]
	if !ok {
		return Rate{}, fmt.Errorf("invalid rate unit %q, expected second, minute, hour or day", unitPart)
	}
	return Rate{Quota: quota, Window: window}, nil
}

var rateUnits = map[string]time.Duration{
	"s":      time.Second,
	"sec":    time.Second,
	"second": time.Second,
	"m":      time.Minute,
	"min":    time.Minute,
	"minute": time.Minute,
	"h":      time.Hour,
	"hour":   time.Hour,
	"d":      24 * time.Hour,
	"day":    24 * time.Hour,
}

// parser reads raw settings and records every violation on its validator.
// On a parse failure the declared default is returned so that loading can
// continue and report the remaining settings too.
type parser struct {
	raw map[string]string
	v   *validator.Validator
}

func (p *parser) lookup(key string) (string, bool) {
	value, ok := p.raw[key]
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func (p *parser) text(key, fallback string) string {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	return value
}

func (p *parser) boolean(key string, fallback bool) bool {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := ParseBool(value)
	if err != nil {
		p.v.AddError(key, err.Error())
		return fallback
	}
	return parsed
}

func (p *parser) integer(key string, fallback, min, max int) int {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		p.v.AddError(key, fmt.Sprintf("invalid integer %q", value))
		return fallback
	}
	if parsed < min || parsed > max {
		p.v.AddError(key, fmt.Sprintf("must be between %d and %d", min, max))
		return fallback
	}
	return parsed
}

func (p *parser) bytes(key string, fallback int64) int64 {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 1 {
		p.v.AddError(key, fmt.Sprintf("invalid byte count %q, expected a positive base-10 integer", value))
		return fallback
	}
	return parsed
}

func (p *parser) list(key string, fallback []string) []string {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	entries := make([]string, 0)
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return fallback
	}
	return entries
}

func (p *parser) rate(key string, fallback Rate) Rate {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := ParseRate(value)
	if err != nil {
		p.v.AddError(key, err.Error())
		return fallback
	}
	return parsed
}

// extensions normalizes an extension allow-set to lowercase, dot-prefixed
// entries so lookups can compare against filepath.Ext output directly.
func (p *parser) extensions(key string, fallback []string) []string {
	entries := p.list(key, nil)
	if entries == nil {
		return fallback
	}
	normalized := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.ToLower(entry)
		if !strings.HasPrefix(entry, ".") {
			entry = "." + entry
		}
		normalized = append(normalized, entry)
	}
	return normalized
}

// mailBackend normalizes EMAIL_BACKEND. The bare identifiers "console" and
// "smtp" are accepted, as are the dotted backend paths carried over from
// older deployments (e.g. "...backends.smtp.EmailBackend").
func (p *parser) mailBackend(key, fallback string) string {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	lower := strings.ToLower(value)
	switch {
	case lower == MailBackendConsole || strings.Contains(lower, ".console."):
		return MailBackendConsole
	case lower == MailBackendSMTP || strings.Contains(lower, ".smtp."):
		return MailBackendSMTP
	}
	p.v.AddError(key, fmt.Sprintf("unknown mail backend %q, expected console or smtp", value))
	return fallback
}

func (p *parser) mediaURL(key, fallback string) string {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	if !strings.HasSuffix(value, "/") {
		value += "/"
	}
	return value
}

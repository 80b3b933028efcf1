package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseBool(t *testing.T) {
	valid := map[string]bool{
		"true":  true,
		"True":  true,
		"TRUE":  true,
		"1":     true,
		"yes":   true,
		"on":    true,
		"false": false,
		"False": false,
		"FALSE": false,
		"0":     false,
		"no":    false,
		"off":   false,
	}
	for input, want := range valid {
		got, err := ParseBool(input)
		if err != nil {
			t.Errorf("ParseBool(%q): unexpected error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseBool(%q) = %t; want %t", input, got, want)
		}
	}
	for _, input := range []string{"", "maybe", "2", "truthy", "yes please"} {
		if _, err := ParseBool(input); err == nil {
			t.Errorf("ParseBool(%q): expected an error", input)
		}
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		input   string
		want    Rate
		wantErr bool
	}{
		{input: "1000/hour", want: Rate{Quota: 1000, Window: time.Hour}},
		{input: "100/h", want: Rate{Quota: 100, Window: time.Hour}},
		{input: "20/minute", want: Rate{Quota: 20, Window: time.Minute}},
		{input: "20/min", want: Rate{Quota: 20, Window: time.Minute}},
		{input: "5/second", want: Rate{Quota: 5, Window: time.Second}},
		{input: "10000/day", want: Rate{Quota: 10000, Window: 24 * time.Hour}},
		{input: "1000", wantErr: true},
		{input: "/hour", wantErr: true},
		{input: "ten/hour", wantErr: true},
		{input: "0/hour", wantErr: true},
		{input: "-5/hour", wantErr: true},
		{input: "100/fortnight", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000; got %d", cfg.Server.Port)
	}
	if cfg.Debug {
		t.Error("expected debug to default to false")
	}
	if cfg.Email.Backend != MailBackendConsole {
		t.Errorf("expected default mail backend %q; got %q", MailBackendConsole, cfg.Email.Backend)
	}
	if cfg.Upload.MaxFileSize != 5_242_880 {
		t.Errorf("expected default max file size 5242880; got %d", cfg.Upload.MaxFileSize)
	}
	want := Rate{Quota: 100, Window: time.Hour}
	if cfg.Limiter.Anonymous != want {
		t.Errorf("expected default anonymous rate %v; got %v", want, cfg.Limiter.Anonymous)
	}
	if cfg.Storage.UseS3 {
		t.Error("expected object storage to default to off")
	}
}

func TestLoadLists(t *testing.T) {
	cfg, err := Load(map[string]string{
		"ALLOWED_HOSTS":            "localhost, api.newsly.io ,,  ",
		"CORS_ALLOWED_ORIGINS":     "http://localhost:3000,https://newsly.io",
		"ALLOWED_IMAGE_EXTENSIONS": ".JPG, png",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantHosts := []string{"localhost", "api.newsly.io"}
	if !reflect.DeepEqual(cfg.AllowedHosts, wantHosts) {
		t.Errorf("allowed hosts: got %v; want %v", cfg.AllowedHosts, wantHosts)
	}
	wantOrigins := []string{"http://localhost:3000", "https://newsly.io"}
	if !reflect.DeepEqual(cfg.Cors.AllowedOrigins, wantOrigins) {
		t.Errorf("cors origins: got %v; want %v", cfg.Cors.AllowedOrigins, wantOrigins)
	}
	wantExts := []string{".jpg", ".png"}
	if !reflect.DeepEqual(cfg.Upload.AllowedExtensions, wantExts) {
		t.Errorf("extensions: got %v; want %v", cfg.Upload.AllowedExtensions, wantExts)
	}
}

func TestLoadMailBackend(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "console", want: MailBackendConsole},
		{input: "smtp", want: MailBackendSMTP},
		{input: "SMTP", want: MailBackendSMTP},
		{input: "django.core.mail.backends.console.EmailBackend", want: MailBackendConsole},
		{input: "django.core.mail.backends.smtp.EmailBackend", want: MailBackendSMTP},
	}
	for _, tt := range tests {
		cfg, err := Load(map[string]string{"EMAIL_BACKEND": tt.input})
		if err != nil {
			t.Errorf("EMAIL_BACKEND=%q: unexpected error: %v", tt.input, err)
			continue
		}
		if cfg.Email.Backend != tt.want {
			t.Errorf("EMAIL_BACKEND=%q: got %q; want %q", tt.input, cfg.Email.Backend, tt.want)
		}
	}
	if _, err := Load(map[string]string{"EMAIL_BACKEND": "carrier-pigeon"}); err == nil {
		t.Error("expected an error for an unknown mail backend")
	}
}

func TestLoadEnumeratesAllViolations(t *testing.T) {
	_, err := Load(map[string]string{
		"DEBUG":                        "perhaps",
		"MAX_FILE_SIZE":                "five megabytes",
		"API_RATE_LIMIT_AUTHENTICATED": "lots",
		"EMAIL_PORT":                   "99999",
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	cfgErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected a *config.Error; got %T", err)
	}
	for _, key := range []string{"DEBUG", "MAX_FILE_SIZE", "API_RATE_LIMIT_AUTHENTICATED", "EMAIL_PORT"} {
		if _, found := cfgErr.Errors[key]; !found {
			t.Errorf("expected a violation recorded for %s; got %v", key, cfgErr.Errors)
		}
	}
}

func TestLoadIdempotent(t *testing.T) {
	raw := map[string]string{
		"DEBUG":                    "True",
		"PORT":                     "8080",
		"ALLOWED_HOSTS":            "localhost,127.0.0.1",
		"DATABASE_URL":             "postgres://newsly:secret@db:5432/newsly",
		"EMAIL_BACKEND":            "smtp",
		"EMAIL_HOST":               "smtp.mailtrap.io",
		"EMAIL_PORT":               "2525",
		"EMAIL_USE_TLS":            "True",
		"CORS_ALLOWED_ORIGINS":     "http://localhost:3000",
		"API_RATE_LIMIT_ANONYMOUS": "100/hour",
		"MAX_FILE_SIZE":            "5242880",
		"USE_S3":                   "False",
	}
	first, err := Load(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Load(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("loading the same environment twice produced different configs:\n%+v\n%+v", first, second)
	}
}

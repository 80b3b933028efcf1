package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newslyhq/newsly/config"
)

func testConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	cfg, err := config.Load(env)
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}
	return cfg
}

func TestResolveLocal(t *testing.T) {
	// AWS settings present but the switch off: they must be ignored entirely.
	cfg := testConfig(t, map[string]string{
		"USE_S3":            "False",
		"MEDIA_ROOT":        t.TempDir(),
		"AWS_ACCESS_KEY_ID": "AKIAEXAMPLE",
	})
	target, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := target.(*Local); !ok {
		t.Fatalf("expected a *Local target; got %T", target)
	}
}

func TestResolveS3MissingSettings(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"USE_S3":            "True",
		"AWS_ACCESS_KEY_ID": "AKIAEXAMPLE",
	})
	_, err := Resolve(cfg)
	if err == nil {
		t.Fatal("expected an error")
	}
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a *config.Error; got %T", err)
	}
	for _, key := range []string{"AWS_SECRET_ACCESS_KEY", "AWS_STORAGE_BUCKET_NAME", "AWS_S3_REGION_NAME"} {
		if _, found := cfgErr.Errors[key]; !found {
			t.Errorf("expected a violation recorded for %s; got %v", key, cfgErr.Errors)
		}
	}
	if _, found := cfgErr.Errors["AWS_ACCESS_KEY_ID"]; found {
		t.Error("the provided access key should not be reported missing")
	}
}

func TestResolveS3(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"USE_S3":                  "True",
		"AWS_ACCESS_KEY_ID":       "AKIAEXAMPLE",
		"AWS_SECRET_ACCESS_KEY":   "secret",
		"AWS_STORAGE_BUCKET_NAME": "newsly-media",
		"AWS_S3_REGION_NAME":      "eu-west-2",
	})
	target, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := target.(*S3); !ok {
		t.Fatalf("expected an *S3 target; got %T", target)
	}
}

func TestLocalPutDelete(t *testing.T) {
	root := t.TempDir()
	target := NewLocal(root, "/media/")
	ctx := context.Background()

	url, err := target.Put(ctx, "articles/7/cover.png", strings.NewReader("png bytes"), "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "/media/articles/7/cover.png" {
		t.Errorf("url = %q; want %q", url, "/media/articles/7/cover.png")
	}
	stored, err := os.ReadFile(filepath.Join(root, "articles", "7", "cover.png"))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(stored) != "png bytes" {
		t.Errorf("stored contents = %q", stored)
	}

	if err := target.Delete(ctx, "articles/7/cover.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := target.Delete(ctx, "articles/7/cover.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting a missing object: got %v; want ErrNotFound", err)
	}
}

func TestLocalRejectsTraversalKeys(t *testing.T) {
	target := NewLocal(t.TempDir(), "/media/")
	if _, err := target.Put(context.Background(), "../escape.png", strings.NewReader("x"), "image/png"); err == nil {
		t.Error("expected a traversal key to be rejected")
	}
	if err := target.Delete(context.Background(), "../../etc/passwd"); err == nil || errors.Is(err, ErrNotFound) {
		t.Error("expected a traversal key to be rejected")
	}
}

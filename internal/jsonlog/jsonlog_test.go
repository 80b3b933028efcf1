package jsonlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestJSONLogger(t *testing.T) {
	type entry struct {
		Level      string            `json:"level"`
		Message    string            `json:"message"`
		Properties map[string]string `json:"properties"`
		Trace      string            `json:"trace"`
	}

	t.Run("below minimum level is suppressed", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelInfo)
		l.PrintDebug("debug log", nil)
		if buf.Len() != 0 {
			t.Errorf("expected no output; got %q", buf.String())
		}
	})

	t.Run("DEBUG level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelDebug)
		l.PrintDebug("debug log", map[string]string{"origin": "http://localhost:3000"})
		var e entry
		if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if e.Level != "DEBUG" || e.Message != "debug log" {
			t.Errorf("unexpected entry: %+v", e)
		}
		if e.Properties["origin"] != "http://localhost:3000" {
			t.Errorf("expected origin property; got %v", e.Properties)
		}
	})

	t.Run("INFO level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelInfo)
		l.PrintInfo("starting server", map[string]string{"addr": ":8000", "env": "development"})
		var e entry
		if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if e.Level != "INFO" || e.Message != "starting server" {
			t.Errorf("unexpected entry: %+v", e)
		}
	})

	t.Run("ERROR level includes a stack trace", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelInfo)
		l.PrintError(errors.New("boom"), nil)
		var e entry
		if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if e.Level != "ERROR" || e.Message != "boom" {
			t.Errorf("unexpected entry: %+v", e)
		}
		if e.Trace == "" {
			t.Error("expected a stack trace on ERROR entries")
		}
	})
}

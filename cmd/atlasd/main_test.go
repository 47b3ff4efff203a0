package main

import "testing"

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		if _, err := newLogger(format); err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
	}
	if _, err := newLogger("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("DENTALATLAS_TEST_KEY", "")
	if got := envOr("DENTALATLAS_TEST_KEY", "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
	t.Setenv("DENTALATLAS_TEST_KEY", "set")
	if got := envOr("DENTALATLAS_TEST_KEY", "fallback"); got != "set" {
		t.Fatalf("got %q", got)
	}
}

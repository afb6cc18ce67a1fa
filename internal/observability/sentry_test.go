package observability

import (
	"errors"
	"testing"
)

func TestSentryConfigFromEnv(t *testing.T) {
	env := map[string]string{
		"SENTRY_DSN":         " https://key@example.com/1 ",
		"SENTRY_ENVIRONMENT": "staging",
	}
	cfg := SentryConfigFromEnv("v1.2.0", func(key string) string { return env[key] })
	want := SentryConfig{DSN: "https://key@example.com/1", Environment: "staging", Release: "v1.2.0"}
	if cfg != want {
		t.Fatalf("SentryConfigFromEnv() = %+v, want %+v", cfg, want)
	}

	env["SENTRY_RELEASE"] = "override"
	if cfg := SentryConfigFromEnv("v1.2.0", func(key string) string { return env[key] }); cfg.Release != "override" {
		t.Fatalf("Release = %q, want override", cfg.Release)
	}
}

func TestInitSentryTogglesEnabled(t *testing.T) {
	flush, err := InitSentry(SentryConfig{DSN: "https://key@example.com/1", Release: "test"})
	if err != nil {
		t.Fatalf("InitSentry() error: %v", err)
	}
	flush()
	if !Enabled() {
		t.Fatal("Enabled() = false after InitSentry with a DSN")
	}

	flush, err = InitSentry(SentryConfig{})
	if err != nil {
		t.Fatalf("InitSentry(empty) error: %v", err)
	}
	flush()
	if Enabled() {
		t.Fatal("Enabled() = true without a DSN")
	}
	CaptureError(errors.New("dropped"), nil, nil)
}

func TestInitSentryRejectsBadDSN(t *testing.T) {
	flush, err := InitSentry(SentryConfig{DSN: "not a dsn"})
	if err == nil {
		t.Fatal("InitSentry() accepted a malformed DSN")
	}
	if flush == nil {
		t.Fatal("flush is nil on error")
	}
	if Enabled() {
		t.Fatal("Enabled() = true after a failed init")
	}
}

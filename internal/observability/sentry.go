package observability

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

var sentryEnabled atomic.Bool

// SentryConfig selects where errors are reported. An empty DSN disables
// reporting altogether.
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
}

// SentryConfigFromEnv reads SENTRY_DSN, SENTRY_ENVIRONMENT and SENTRY_RELEASE.
// release is used when SENTRY_RELEASE is unset.
func SentryConfigFromEnv(release string, getenv func(string) string) SentryConfig {
	cfg := SentryConfig{
		DSN:         strings.TrimSpace(getenv("SENTRY_DSN")),
		Environment: strings.TrimSpace(getenv("SENTRY_ENVIRONMENT")),
		Release:     release,
	}
	if env := strings.TrimSpace(getenv("SENTRY_RELEASE")); env != "" {
		cfg.Release = env
	}
	return cfg
}

// InitSentry installs the global client. The returned flush is always
// non-nil, so callers can defer it whether or not reporting is on.
func InitSentry(cfg SentryConfig) (flush func(), err error) {
	sentryEnabled.Store(false)
	if cfg.DSN == "" {
		return func() {}, nil
	}
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		AttachStacktrace: true,
	})
	if err != nil {
		return func() {}, err
	}
	sentryEnabled.Store(true)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// Enabled reports whether InitSentry installed a client.
func Enabled() bool {
	return sentryEnabled.Load()
}

// CaptureError sends err tagged with tags; extra lands in a "details"
// context. Nothing is sent while reporting is off.
func CaptureError(err error, tags map[string]string, extra map[string]interface{}) {
	if err == nil || !Enabled() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		if len(extra) > 0 {
			scope.SetContext("details", extra)
		}
		sentry.CaptureException(err)
	})
}

func Capture(component, operation string, err error) {
	CaptureError(err, map[string]string{
		"component": component,
		"operation": operation,
	}, nil)
}

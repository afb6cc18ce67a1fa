package ports

import "github.com/restartfu/corepanel/internal/domain"

// CommandRunner executes a command line and returns its trimmed stdout,
// or an empty string on any failure.
type CommandRunner interface {
	RunCommand(cmd string) string
}

type DriverFlags interface {
	IntelPState() bool
	TurboBoostSupported() bool
}

// CoreSource is the per-core side of the cpufreq helper.
type CoreSource interface {
	OnlineProcessors() int
	// QueryFrequency must not block. onComplete is called at most once.
	QueryFrequency(core int, onComplete func(label string))
	Governor(core int) (string, bool)
}

type CoreMonitor interface {
	Snapshot() []domain.CoreState
}

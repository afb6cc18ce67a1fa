package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/restartfu/corepanel/internal/adapters/cpufreq"
	"github.com/restartfu/corepanel/internal/identity"
	"github.com/restartfu/corepanel/internal/poller"
)

const envPrefix = "COREPANEL_"

type Config struct {
	Addr           string
	Interval       time.Duration
	CommandTimeout time.Duration
	CPUInfoPath    string
	OSReleasePath  string
	SysfsRoot      string
	ProcRoot       string
	NATSURL        string
	NATSSubject    string
	LogFile        string
}

// Load parses flags from args. A flag left at its zero value falls back to
// the matching COREPANEL_* variable, then to the default.
func Load(args []string, getenv func(string) string) (Config, error) {
	fs := flag.NewFlagSet("corepanel", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address (default :8080)")
	interval := fs.Duration("interval", 0, "core refresh interval (default 2s)")
	commandTimeout := fs.Duration("command-timeout", 0, "timeout for helper commands (default 3s)")
	cpuInfo := fs.String("cpuinfo", "", "cpu info source (default /proc/cpuinfo)")
	osRelease := fs.String("os-release", "", "os release source (default /etc/os-release)")
	sysfsRoot := fs.String("sysfs", "", "sysfs mount point (default /sys)")
	procRoot := fs.String("proc", "", "procfs mount point (default /proc)")
	natsURL := fs.String("nats-url", "", "publish panel snapshots to this NATS server")
	natsSubject := fs.String("nats-subject", "", "NATS subject (default corepanel.panel)")
	logFile := fs.String("log-file", "", "also write logs to this rotating file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:          pick(*addr, getenv, "ADDR", ":8080"),
		CPUInfoPath:   pick(*cpuInfo, getenv, "CPUINFO", identity.DefaultCPUInfoPath),
		OSReleasePath: pick(*osRelease, getenv, "OS_RELEASE", identity.DefaultOSReleasePath),
		SysfsRoot:     pick(*sysfsRoot, getenv, "SYSFS", cpufreq.DefaultSysfsRoot),
		ProcRoot:      pick(*procRoot, getenv, "PROC", cpufreq.DefaultProcRoot),
		NATSURL:       pick(*natsURL, getenv, "NATS_URL", ""),
		NATSSubject:   pick(*natsSubject, getenv, "NATS_SUBJECT", "corepanel.panel"),
		LogFile:       pick(*logFile, getenv, "LOG_FILE", ""),
	}

	var err error
	if cfg.Interval, err = pickDuration(*interval, getenv, "INTERVAL", poller.DefaultInterval); err != nil {
		return Config{}, err
	}
	if cfg.CommandTimeout, err = pickDuration(*commandTimeout, getenv, "COMMAND_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func pick(flagValue string, getenv func(string) string, key, fallback string) string {
	if value := strings.TrimSpace(flagValue); value != "" {
		return value
	}
	if value := strings.TrimSpace(getenv(envPrefix + key)); value != "" {
		return value
	}
	return fallback
}

func pickDuration(flagValue time.Duration, getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	if flagValue < 0 {
		return 0, fmt.Errorf("invalid %s: %v must be positive", strings.ToLower(key), flagValue)
	}
	if flagValue > 0 {
		return flagValue, nil
	}
	raw := strings.TrimSpace(getenv(envPrefix + key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("invalid %s%s: %v must be positive", envPrefix, key, parsed)
	}
	return parsed, nil
}

package cpufreq

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/procfs/sysfs"
	"github.com/restartfu/corepanel/internal/observability"
	"github.com/shirou/gopsutil/v3/cpu"
)

const (
	DefaultSysfsRoot      = "/sys"
	DefaultProcRoot       = "/proc"
	defaultCommandTimeout = 3 * time.Second

	UnknownFrequency = "unknown"
)

type Options struct {
	SysfsRoot      string
	ProcRoot       string
	CommandTimeout time.Duration
	Logger         *log.Logger
}

// Helper reads scaling state from sysfs and procfs. It backs both the identity reader
// (driver flags, commands) and the core poller (frequency, governors).
type Helper struct {
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	qmu      sync.Mutex
	closed   bool
	inflight map[int]bool

	root           string
	fs             sysfs.FS
	fsErr          error
	commandTimeout time.Duration
	logger         *log.Logger
	readClocks     func() (map[int]float64, error)
	readFile       func(string) ([]byte, error)

	intelPState bool
	boost       bool

	mu          sync.RWMutex
	governors   map[int]string
	clocks      map[int]float64
	refreshedAt time.Time
}

func New(ctx context.Context, opts Options) *Helper {
	if opts.SysfsRoot == "" {
		opts.SysfsRoot = DefaultSysfsRoot
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.ProcRoot == "" {
		opts.ProcRoot = DefaultProcRoot
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Helper{
		ctx:            ctx,
		cancel:         cancel,
		root:           opts.SysfsRoot,
		commandTimeout: opts.CommandTimeout,
		logger:         opts.Logger,
		readClocks:     clockReader(opts.ProcRoot),
		readFile:       os.ReadFile,
		inflight:       make(map[int]bool),
		governors:      make(map[int]string),
		clocks:         make(map[int]float64),
	}
	h.fs, h.fsErr = sysfs.NewFS(opts.SysfsRoot)
	if h.fsErr != nil {
		h.report("open_sysfs", h.fsErr)
	}

	stats := h.Refresh()
	h.intelPState = h.exists("devices/system/cpu/intel_pstate") || hasIntelDriver(stats)
	h.boost = h.exists("devices/system/cpu/cpufreq/boost") ||
		h.exists("devices/system/cpu/intel_pstate/no_turbo")
	return h
}

// LogicalCores is the number of logical CPUs, detected once by the caller
// and passed to whoever needs it.
func LogicalCores(ctx context.Context) int {
	count, err := cpu.CountsWithContext(ctx, true)
	if err != nil || count <= 0 {
		return runtime.NumCPU()
	}
	return count
}

func (h *Helper) OnlineProcessors() int {
	return onlineProcessors()
}

func (h *Helper) IntelPState() bool {
	return h.intelPState
}

func (h *Helper) TurboBoostSupported() bool {
	return h.boost
}

// QueryFrequency reads the core's current clock on its own goroutine. A core
// whose previous query is still running is skipped, and so is every callback
// once the helper is closed.
func (h *Helper) QueryFrequency(core int, onComplete func(label string)) {
	h.qmu.Lock()
	if h.closed || h.inflight[core] {
		h.qmu.Unlock()
		return
	}
	h.inflight[core] = true
	h.wg.Add(1)
	h.qmu.Unlock()

	go func() {
		defer h.wg.Done()
		label := h.frequencyLabel(core)

		h.qmu.Lock()
		delete(h.inflight, core)
		h.qmu.Unlock()

		if h.ctx.Err() != nil {
			return
		}
		onComplete(label)
	}()
}

func (h *Helper) frequencyLabel(core int) string {
	path := filepath.Join(h.root, "devices/system/cpu", fmt.Sprintf("cpu%d", core), "cpufreq/scaling_cur_freq")
	if data, err := h.readFile(path); err == nil {
		if khz, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64); err == nil {
			return FormatFrequency(khz)
		}
	}

	h.mu.RLock()
	mhz, ok := h.clocks[core]
	h.mu.RUnlock()
	if ok {
		return FormatFrequency(uint64(mhz * 1000))
	}
	return UnknownFrequency
}

// Governor looks the core up in the table from the last Refresh.
func (h *Helper) Governor(core int) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	governor, ok := h.governors[core]
	return governor, ok
}

// Refresh rereads every core's cpufreq directory and the "cpu MHz" column of
// cpuinfo. Each table keeps its previous contents when its source fails.
func (h *Helper) Refresh() []sysfs.SystemCPUCpufreqStats {
	clocks, clockErr := h.readClocks()
	if clockErr != nil {
		h.report("refresh_clocks", clockErr)
	}

	var (
		stats []sysfs.SystemCPUCpufreqStats
		table map[int]string
	)
	if h.fsErr == nil {
		var err error
		if stats, err = h.fs.SystemCpufreq(); err != nil {
			h.report("refresh_governors", err)
			stats = nil
		} else {
			table = GovernorTable(stats)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if clockErr == nil {
		h.clocks = clocks
	}
	if table != nil {
		h.governors = table
		h.refreshedAt = time.Now()
	}
	return stats
}

func (h *Helper) RefreshedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.refreshedAt
}

// Close abandons queries in flight and waits for their goroutines.
func (h *Helper) Close() {
	h.qmu.Lock()
	h.closed = true
	h.qmu.Unlock()
	h.cancel()
	h.wg.Wait()
}

// GovernorTable indexes governors by core number. Entries without a name
// (cores with no cpufreq directory) are skipped.
func GovernorTable(stats []sysfs.SystemCPUCpufreqStats) map[int]string {
	table := make(map[int]string, len(stats))
	for _, s := range stats {
		index, err := strconv.Atoi(s.Name)
		if err != nil || s.Governor == "" {
			continue
		}
		table[index] = s.Governor
	}
	return table
}

// FormatFrequency renders a kHz value the way the panel shows it.
func FormatFrequency(khz uint64) string {
	if khz == 0 {
		return UnknownFrequency
	}
	if khz < 1_000_000 {
		return fmt.Sprintf("%d MHz", khz/1000)
	}
	return fmt.Sprintf("%.2f GHz", float64(khz)/1e6)
}

func hasIntelDriver(stats []sysfs.SystemCPUCpufreqStats) bool {
	for _, s := range stats {
		if s.Driver == "intel_pstate" || s.Driver == "intel_cpufreq" {
			return true
		}
	}
	return false
}

func (h *Helper) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(h.root, rel))
	return err == nil
}

func (h *Helper) report(operation string, err error) {
	h.logger.Printf("cpufreq %s: %v", operation, err)
	observability.Capture("cpufreq", operation, err)
}

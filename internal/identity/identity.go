package identity

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/restartfu/corepanel/internal/domain"
	"github.com/restartfu/corepanel/internal/observability"
	"github.com/restartfu/corepanel/internal/ports"
	"github.com/samber/lo"
)

const (
	DefaultCPUInfoPath   = "/proc/cpuinfo"
	DefaultOSReleasePath = "/etc/os-release"

	UnknownProcessor = "unknown processor"

	fallbackDistro = "GNU/Linux "
	prettyNameKey  = "PRETTY_NAME="
	modelNameKey   = "model name"
)

// Reader builds the static host identity shown at the top of the panel.
type Reader struct {
	cpuInfoPath   string
	osReleasePath string
	runner        ports.CommandRunner
	flags         ports.DriverFlags
	logger        *log.Logger
}

type Option func(*Reader)

func WithCPUInfoPath(path string) Option {
	return func(r *Reader) { r.cpuInfoPath = path }
}

func WithOSReleasePath(path string) Option {
	return func(r *Reader) { r.osReleasePath = path }
}

func NewReader(runner ports.CommandRunner, flags ports.DriverFlags, logger *log.Logger, opts ...Option) *Reader {
	if logger == nil {
		logger = log.Default()
	}
	r := &Reader{
		cpuInfoPath:   DefaultCPUInfoPath,
		osReleasePath: DefaultOSReleasePath,
		runner:        runner,
		flags:         flags,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) Read() domain.HostIdentity {
	model, amd := r.ReadCPUModel()
	return domain.HostIdentity{
		CPUModel:    model,
		IsAMDVendor: amd,
		OSSummary:   r.ReadOSSummary(),
	}
}

// ReadCPUModel returns the cleaned model name of the first logical CPU and
// whether it is an AMD part. Other sockets are not consulted.
func (r *Reader) ReadCPUModel() (string, bool) {
	line, ok := r.scanFirst(r.cpuInfoPath, "cpu_model", isModelNameLine)
	if !ok {
		return UnknownProcessor, false
	}
	_, value, _ := strings.Cut(line, ":")
	return CleanModel(value)
}

// CleanModel normalizes a raw "model name" value.
func CleanModel(raw string) (string, bool) {
	model := strings.TrimSpace(raw)
	amd := strings.Contains(strings.ToLower(model), "amd")
	model = strings.ReplaceAll(model, "(R)", "®")
	model = strings.ReplaceAll(model, "(TM)", "™")
	model = strings.Join(strings.Fields(model), " ")
	if model == "" {
		return UnknownProcessor, false
	}
	return model, amd
}

func (r *Reader) ReadOSSummary() string {
	distro := fallbackDistro
	if line, ok := r.scanFirst(r.osReleasePath, "os_release", isPrettyNameLine); ok {
		if name := PrettyName(line); name != "" {
			distro = name
		}
	}

	var b strings.Builder
	b.WriteString(distro)
	if r.runner != nil {
		if kernel := r.runner.RunCommand("uname -r"); kernel != "" {
			b.WriteString("\nKernel ")
			b.WriteString(kernel)
		}
	}

	intelPState, boost := false, false
	if r.flags != nil {
		intelPState = r.flags.IntelPState()
		boost = r.flags.TurboBoostSupported()
	}
	b.WriteString("\nDriver ")
	b.WriteString(lo.Ternary(intelPState, "Intel PState", "ACPI"))
	b.WriteString("\nTurbo Boost ")
	b.WriteString(lo.Ternary(boost, "supported", "not supported"))
	return b.String()
}

// PrettyName turns a PRETTY_NAME line into a short distro label, e.g.
// `PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"` becomes "Debian 12 Bookworm".
func PrettyName(line string) string {
	name := strings.TrimSpace(strings.TrimPrefix(line, prettyNameKey))
	name = strings.ReplaceAll(name, `"`, "")
	name = strings.Trim(name, "'")
	name = strings.Replace(name, fallbackDistro, "", 1)

	if i := strings.IndexByte(name, '('); i >= 0 && len(name) > i+1 {
		rest := name[i+1:]
		first, size := utf8.DecodeRuneInString(rest)
		name = name[:i] + string(unicode.ToUpper(first)) + rest[size:]
		name = strings.Replace(name, ")", "", 1)
	}
	return strings.TrimSpace(name)
}

func isModelNameLine(line string) bool {
	key, _, found := strings.Cut(line, ":")
	return found && strings.TrimSpace(key) == modelNameKey
}

func isPrettyNameLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), prettyNameKey)
}

// scanFirst returns the first line of path accepted by match. A missing file
// is not an error. A read failure is logged and treated as no match.
func (r *Reader) scanFirst(path, operation string, match func(string) bool) (string, bool) {
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	file, err := os.Open(path)
	if err != nil {
		r.report(operation, fmt.Errorf("open %s: %w", path, err))
		return "", false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if match(line) {
			return strings.TrimSpace(line), true
		}
	}
	if err := scanner.Err(); err != nil {
		r.report(operation, fmt.Errorf("read %s: %w", path, err))
	}
	return "", false
}

func (r *Reader) report(operation string, err error) {
	r.logger.Printf("identity %s: %v", operation, err)
	observability.Capture("identity", operation, err)
}

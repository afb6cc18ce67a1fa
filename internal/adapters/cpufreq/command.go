package cpufreq

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RunCommand runs a whitespace-separated command line and returns its
// trimmed stdout. Any failure yields "".
func (h *Helper) RunCommand(cmd string) string {
	args := strings.Fields(cmd)
	if len(args) == 0 {
		return ""
	}
	path, err := exec.LookPath(args[0])
	if err != nil {
		h.logger.Printf("cpufreq command %q: %v", args[0], err)
		return ""
	}

	ctx, cancel := context.WithTimeout(h.ctx, h.commandTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, args[1:]...).Output()
	if err != nil {
		h.report("run_command", fmt.Errorf("%s: %w", cmd, err))
		return ""
	}
	return strings.TrimSpace(string(out))
}

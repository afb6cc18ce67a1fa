//go:build linux

package cpufreq

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// onlineProcessors counts the CPUs this process may currently run on, which
// drops when cores are taken offline.
func onlineProcessors() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	if n := set.Count(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

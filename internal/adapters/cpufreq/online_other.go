//go:build !linux

package cpufreq

import "runtime"

func onlineProcessors() int {
	return runtime.NumCPU()
}

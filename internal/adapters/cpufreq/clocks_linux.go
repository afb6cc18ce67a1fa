//go:build linux

package cpufreq

import "github.com/prometheus/procfs"

// clockReader returns the current clock of every processor listed in
// cpuinfo, keyed by processor number. Architectures whose cpuinfo carries
// no "cpu MHz" column yield an empty table.
func clockReader(procRoot string) func() (map[int]float64, error) {
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return func() (map[int]float64, error) { return nil, err }
	}
	return func() (map[int]float64, error) {
		infos, err := fs.CPUInfo()
		if err != nil {
			return nil, err
		}
		clocks := make(map[int]float64, len(infos))
		for _, info := range infos {
			if info.CPUMHz > 0 {
				clocks[int(info.Processor)] = info.CPUMHz
			}
		}
		return clocks, nil
	}
}

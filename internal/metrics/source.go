package metrics

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// Take reads a fresh Snapshot for the given interfaces. Every read is
// best-effort: a failed or unparsable counter degrades to zero instead of
// propagating an error into the sampler.
func Take(ifaces []string) Snapshot {
	s := Snapshot{
		Time:   time.Now(),
		Ifaces: make(map[string]IfaceCounters, len(ifaces)),
	}

	if times, err := cpu.Times(false); err == nil && len(times) > 0 {
		t := times[0]
		// gopsutil reports seconds per state; scale to centisecond ticks
		// so deltas behave like /proc/stat jiffies.
		s.CPUTotal = uint64(t.Total() * 100)
		s.CPUIdle = uint64((t.Idle + t.Iowait) * 100)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemTotal = vm.Total
		s.MemAvail = vm.Available
	}

	if counters, err := disk.IOCounters(); err == nil {
		for _, c := range counters {
			s.DiskRead += c.ReadBytes
			s.DiskWrite += c.WriteBytes
		}
	}

	want := make(map[string]bool, len(ifaces))
	for _, name := range ifaces {
		want[name] = true
		s.Ifaces[name] = IfaceCounters{}
	}
	if nics, err := net.IOCounters(true); err == nil {
		for _, nic := range nics {
			if want[nic.Name] {
				s.Ifaces[nic.Name] = IfaceCounters{Rx: nic.BytesRecv, Tx: nic.BytesSent}
			}
		}
	}

	return s
}

// LoadPercent returns the 1-minute load average normalized over the logical
// core count, as a percent. Degrades to 0 when either read fails.
func LoadPercent() float64 {
	avg, err := load.Avg()
	if err != nil {
		return 0
	}
	cores, err := cpu.Counts(true)
	if err != nil || cores < 1 {
		cores = 1
	}
	return avg.Load1 / float64(cores) * 100
}

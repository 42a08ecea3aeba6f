// Package metrics converts raw monotonic OS counters into rate samples.
// Sample is pure: it never touches the OS and is driven entirely by the
// two snapshots it is given.
package metrics

import (
	"sort"
	"time"
)

// minDelta is the floor applied to the elapsed time between two snapshots
// so a barely-advanced clock cannot blow up the division.
const minDelta = 0.5

// IfaceCounters holds cumulative rx/tx byte counters for one interface.
type IfaceCounters struct {
	Rx uint64
	Tx uint64
}

// Snapshot is one point-in-time bundle of monotonic OS counters.
// It is produced fresh each sampling instant and never mutated.
type Snapshot struct {
	Time      time.Time
	CPUTotal  uint64 // cumulative ticks, all states
	CPUIdle   uint64 // cumulative idle ticks
	MemTotal  uint64 // bytes
	MemAvail  uint64 // bytes
	DiskRead  uint64 // cumulative bytes read
	DiskWrite uint64 // cumulative bytes written
	Ifaces    map[string]IfaceCounters
}

// IfaceRate holds derived throughput for one interface.
type IfaceRate struct {
	Name        string
	Down        float64 // bytes/sec received
	Up          float64 // bytes/sec sent
	DownPercent float64 // vs configured capacity, [0,100]
	UpPercent   float64
}

// RateSample holds derived utilization and throughput between two snapshots.
type RateSample struct {
	CPUPercent  float64
	RAMPercent  float64
	DiskRate    float64 // bytes/sec, read+write combined
	DiskPercent float64
	Ifaces      []IfaceRate
}

// Capacity is a configured link capacity in Mbps, split by direction.
type Capacity struct {
	DownMbps float64
	UpMbps   float64
}

// Capacities maps interfaces to their configured capacity, with a global
// fallback for interfaces that have no entry. DiskBps is the reference
// disk throughput used for the disk utilization bar.
type Capacities struct {
	Default Capacity
	Ifaces  map[string]Capacity
	DiskBps float64
}

func (c Capacities) forIface(name string) Capacity {
	if link, ok := c.Ifaces[name]; ok {
		return link
	}
	return c.Default
}

// Sample derives a RateSample from a previous and a current snapshot and
// returns the snapshot to retain for the next call. A nil prev yields an
// all-zero sample: no rate can be computed from a single point.
func Sample(prev *Snapshot, curr Snapshot, caps Capacities) (RateSample, Snapshot) {
	var s RateSample

	if prev == nil {
		for _, name := range sortedIfaces(curr) {
			s.Ifaces = append(s.Ifaces, IfaceRate{Name: name})
		}
		return s, curr
	}

	s.RAMPercent = ramPercent(curr)

	dt := curr.Time.Sub(prev.Time).Seconds()
	if dt < minDelta {
		dt = minDelta
	}

	dTotal := counterDelta(curr.CPUTotal, prev.CPUTotal)
	dIdle := counterDelta(curr.CPUIdle, prev.CPUIdle)
	if dTotal > 0 {
		s.CPUPercent = clampPercent(100 * (dTotal - dIdle) / dTotal)
	}

	s.DiskRate = counterDelta(curr.DiskRead, prev.DiskRead)/dt +
		counterDelta(curr.DiskWrite, prev.DiskWrite)/dt
	if caps.DiskBps > 0 {
		s.DiskPercent = clampPercent(s.DiskRate / caps.DiskBps * 100)
	}

	for _, name := range sortedIfaces(curr) {
		c := curr.Ifaces[name]
		rate := IfaceRate{Name: name}
		if p, ok := prev.Ifaces[name]; ok {
			rate.Down = counterDelta(c.Rx, p.Rx) / dt
			rate.Up = counterDelta(c.Tx, p.Tx) / dt
		}
		link := caps.forIface(name)
		rate.DownPercent = linkPercent(rate.Down, link.DownMbps)
		rate.UpPercent = linkPercent(rate.Up, link.UpMbps)
		s.Ifaces = append(s.Ifaces, rate)
	}

	return s, curr
}

// counterDelta returns curr-prev as a float, treating a decreased counter
// (reset, e.g. interface reinitialized) as zero rather than a negative rate.
func counterDelta(curr, prev uint64) float64 {
	if curr < prev {
		return 0
	}
	return float64(curr - prev)
}

// linkPercent maps a byte rate onto a configured Mbps capacity.
// Capacity 0 means "unknown" and yields 0% rather than a division fault.
func linkPercent(byteRate, mbps float64) float64 {
	if mbps <= 0 {
		return 0
	}
	return clampPercent(byteRate * 8 / (mbps * 1024 * 1024) * 100)
}

func ramPercent(s Snapshot) float64 {
	if s.MemTotal == 0 || s.MemAvail > s.MemTotal {
		return 0
	}
	return clampPercent(float64(s.MemTotal-s.MemAvail) / float64(s.MemTotal) * 100)
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func sortedIfaces(s Snapshot) []string {
	names := make([]string, 0, len(s.Ifaces))
	for name := range s.Ifaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

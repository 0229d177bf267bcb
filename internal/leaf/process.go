package leaf

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/process"
)

// MemoryUsed reports the memory held by the current process.
type MemoryUsed struct {
	RSS       uint64 `json:"rss"`
	VMS       uint64 `json:"vms"`
	HeapTotal uint64 `json:"heap_total"`
	HeapUsed  uint64 `json:"heap_used"`
}

// String formats the report with human-readable sizes.
func (m MemoryUsed) String() string {
	return fmt.Sprintf("rss=%s vms=%s heap=%s/%s",
		humanize.IBytes(m.RSS), humanize.IBytes(m.VMS),
		humanize.IBytes(m.HeapUsed), humanize.IBytes(m.HeapTotal))
}

// Human returns the report as human-readable sizes keyed like the JSON form.
func (m MemoryUsed) Human() map[string]string {
	return map[string]string{
		"rss":        humanize.IBytes(m.RSS),
		"vms":        humanize.IBytes(m.VMS),
		"heap_total": humanize.IBytes(m.HeapTotal),
		"heap_used":  humanize.IBytes(m.HeapUsed),
	}
}

// MemoryUsage samples resident and virtual size from the OS and heap figures
// from the Go runtime.
func MemoryUsage() (MemoryUsed, error) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	used := MemoryUsed{HeapTotal: stats.HeapSys, HeapUsed: stats.HeapAlloc}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return used, fmt.Errorf("memory usage: %w", err)
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return used, fmt.Errorf("memory usage: %w", err)
	}
	used.RSS = info.RSS
	used.VMS = info.VMS
	return used, nil
}

// Delay waits for d and then returns value, or returns early with the
// context's error.
func Delay(ctx context.Context, d time.Duration, value any) (any, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return value, nil
	}
}

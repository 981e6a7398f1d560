package ps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

func MemoryStatus() (Memory, error) {
	memory, err := mem.VirtualMemory()
	if err != nil {
		return Memory{}, err
	}
	swapMemory, err := mem.SwapMemory()
	if err != nil {
		return Memory{}, err
	}

	return Memory{
		Total:       memory.Total,
		Used:        memory.Used,
		UsedPercent: memory.UsedPercent,

		SwapTotal:       swapMemory.Total,
		SwapUsed:        swapMemory.Used,
		SwapUsedPercent: swapMemory.UsedPercent,
	}, nil
}

func DiskUsage(path string) (Disk, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return Disk{}, err
	}

	return Disk{
		Path:        path,
		Total:       usage.Total,
		Free:        usage.Free,
		UsedPercent: usage.UsedPercent,
	}, nil
}

func DirDiskUsage(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return size, nil
}

type Memory struct {
	Total       uint64
	Used        uint64
	UsedPercent float64

	SwapTotal       uint64
	SwapUsed        uint64
	SwapUsedPercent float64
}

func (m Memory) String() string {
	return fmt.Sprintf("memory %s/%s (%.1f%%), swap %s/%s",
		humanize.IBytes(m.Used), humanize.IBytes(m.Total), m.UsedPercent,
		humanize.IBytes(m.SwapUsed), humanize.IBytes(m.SwapTotal))
}

type Disk struct {
	Path        string
	Total       uint64
	Free        uint64
	UsedPercent float64
}

func (d Disk) String() string {
	return fmt.Sprintf("disk %s: %s free of %s (%.1f%% used)",
		d.Path, humanize.IBytes(d.Free), humanize.IBytes(d.Total), d.UsedPercent)
}

//go:build linux

package viewmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Map allocates size bytes of zeroed, page-aligned memory via an anonymous
// private mapping (Linux implementation).
func Map(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("viewmem: invalid region size %d", size)
	}
	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &Region{Mem: mem}, nil
}

// Unmap releases a region obtained from Map (Linux implementation).
func Unmap(r *Region) error {
	if r == nil || r.Mem == nil {
		return nil
	}
	if err := unix.Munmap(r.Mem); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	r.Mem = nil
	return nil
}

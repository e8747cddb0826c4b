//go:build !linux

package viewmem

import "fmt"

// Map allocates size bytes of zeroed memory on the heap (non-Linux fallback).
func Map(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("viewmem: invalid region size %d", size)
	}
	return &Region{Mem: make([]byte, size)}, nil
}

// Unmap releases a region obtained from Map (non-Linux fallback).
func Unmap(r *Region) error {
	if r != nil {
		r.Mem = nil
	}
	return nil
}

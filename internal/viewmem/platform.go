// Package viewmem contains platform-specific helpers for the backing memory
// of translation tables.
package viewmem

// Region is one page-aligned, zeroed backing allocation for a single
// translation table.
type Region struct {
	Mem []byte
}

// Map and Unmap are implemented in the platform-specific files
// (platform_linux.go, platform_other.go).

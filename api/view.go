// Package api defines the contracts between the alternate-view manager and
// the hypervisor components that embed it.
package api

// TranslationTable is one guest-physical to machine-address mapping instance.
// The view manager owns a table exclusively from allocation until Free and
// never inspects its contents; population and walking of the table are the
// embedding hypervisor's concern.
type TranslationTable interface {
	// Init populates the table's initial state. Called exactly once, right
	// after allocation. On error the manager frees the table and leaves the
	// slot empty.
	Init() error
	// Teardown releases the table's internal state. Called exactly once,
	// after the table has been removed from its slot.
	Teardown()
	// Free releases the table's backing memory. Called after Teardown, or
	// directly after a failed Init.
	Free()
}

// TableAllocator produces zeroed translation tables.
type TableAllocator interface {
	Allocate() (TranslationTable, error)
}

package api

// EventKind enumerates view lifecycle and binding transitions published to
// monitoring agents.
type EventKind uint8

const (
	EventViewAllocated EventKind = iota
	EventViewDestroyed
	EventGuestSwitched
	EventVCPUBound
	EventVCPUUnbound
)

func (k EventKind) String() string {
	switch k {
	case EventViewAllocated:
		return "view-allocated"
	case EventViewDestroyed:
		return "view-destroyed"
	case EventGuestSwitched:
		return "guest-switched"
	case EventVCPUBound:
		return "vcpu-bound"
	case EventVCPUUnbound:
		return "vcpu-unbound"
	}
	return "unknown"
}

// Event describes a single completed transition. ViewIndex is the slot the
// transition applied to; VCPUID is meaningful only for the vcpu-scoped kinds.
type Event struct {
	Kind      EventKind
	GuestID   string
	ViewIndex uint16
	VCPUID    uint32
}

package domain

import "time"

type Health struct {
	Status string
	Time   time.Time
}

// HostIdentity is computed once at startup and never changes afterwards.
type HostIdentity struct {
	CPUModel    string
	IsAMDVendor bool
	OSSummary   string
}

type CoreStatus int

const (
	CoreUninitialized CoreStatus = iota
	CoreOnline
	CoreOffline
	CoreDisposed
)

func (s CoreStatus) String() string {
	switch s {
	case CoreOnline:
		return "online"
	case CoreOffline:
		return "offline"
	case CoreDisposed:
		return "disposed"
	default:
		return "uninitialized"
	}
}

// CoreState is the display record of one logical CPU.
type CoreState struct {
	Index          int
	FrequencyLabel string
	GovernorSymbol string
	IsOnline       bool
	Status         CoreStatus
}

type Panel struct {
	Identity HostIdentity
	Cores    []CoreState
	Time     time.Time
}

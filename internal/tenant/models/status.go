package models

// ClientStatus is an enumerated reference to the statuses table. It is an
// explicit status id, not a boolean: the schema types clients.is_active as a
// FK and history-preserving soft deactivation needs more than on/off.
type ClientStatus int64

const (
	StatusActive    ClientStatus = 1
	StatusSuspended ClientStatus = 2
	StatusArchived  ClientStatus = 3
)

func (s ClientStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSuspended:
		return "suspended"
	case StatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// IsValid reports whether the status is one of the known enumerated values.
func (s ClientStatus) IsValid() bool {
	return s == StatusActive || s == StatusSuspended || s == StatusArchived
}

// CanTransitionTo restricts status movement: archived is terminal.
func (s ClientStatus) CanTransitionTo(target ClientStatus) bool {
	if !target.IsValid() || s == target {
		return false
	}
	return s != StatusArchived
}

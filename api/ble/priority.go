package ble

// ConnectionPriority describes a requested connection parameter profile.
type ConnectionPriority int

// The different connection priority levels.
const (
	PriorityBalanced ConnectionPriority = iota
	PriorityHigh
	PriorityLowPower
)

// IntervalUnknown is the sentinel connection interval reported when the
// driver cannot observe interval updates and the central synthesizes the
// update signal instead.
const IntervalUnknown = -1

// String returns the name of the priority level.
func (p ConnectionPriority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLowPower:
		return "low power"
	default:
		return "balanced"
	}
}

package build

// State is the lifecycle state of a Builder's most recent run.
type State int32

// Builder states.
const (
	StateIdle State = iota
	StateDiscovering
	StateBuilding
	StateCompleted
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateBuilding:
		return "building"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

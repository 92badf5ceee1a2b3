package rating

// State is the submission state machine:
//
//	Idle --submit--> Submitting --call settled--> Refreshing --refresh settled--> Idle
//
// Refreshing is entered whether the call succeeded or failed.
type State int

const (
	Idle State = iota
	Submitting
	Refreshing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// next reports the state that follows s, and whether s may advance at all.
func (s State) next() (State, bool) {
	switch s {
	case Idle:
		return Submitting, true
	case Submitting:
		return Refreshing, true
	case Refreshing:
		return Idle, true
	}
	return s, false
}

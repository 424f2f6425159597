package deploy

// State is a step of a deployment run
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateBackupRootReady
	StateUploading
	StateSwappingOut
	StateSwappingIn
	StateComplete
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:            "idle",
	StateConnecting:      "connecting",
	StateBackupRootReady: "backup-root-ready",
	StateUploading:       "uploading",
	StateSwappingOut:     "swapping-out",
	StateSwappingIn:      "swapping-in",
	StateComplete:        "complete",
	StateFailed:          "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// LiveIntact reports whether a run that failed in s left the live theme untouched
func (s State) LiveIntact() bool {
	return s != StateSwappingIn
}

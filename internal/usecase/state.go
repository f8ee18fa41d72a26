package usecase

type State int

const (
	StateInit State = iota
	StateDirectoryReady
	StateExported
	StateArchived
	StateUploaded
	StateRetentionEnforced
	StateComplete
	StateFailed
)

var stateNames = [...]string{
	StateInit:              "init",
	StateDirectoryReady:    "directory-ready",
	StateExported:          "exported",
	StateArchived:          "archived",
	StateUploaded:          "uploaded",
	StateRetentionEnforced: "retention-enforced",
	StateComplete:          "complete",
	StateFailed:            "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}


package procsys

// Signal is the severity-ordered set of termination signals the
// controller escalates through. Mapping to OS signal numbers is done by
// the platform backend so controller logic stays testable with an
// in-memory process table.
type Signal int

const (
	Interrupt Signal = iota // polite, reaches foreground handlers
	Terminate               // default kill, catchable
	Kill                    // uncatchable
)

func (s Signal) String() string {
	switch s {
	case Interrupt:
		return "INT"
	case Terminate:
		return "TERM"
	case Kill:
		return "KILL"
	}
	return "?"
}

// System abstracts liveness probing and signal delivery so the
// controller can be exercised against a fake process table.
type System interface {
	// Alive reports whether pid identifies a live process.
	Alive(pid int) bool
	// SignalGroup delivers sig to the process group led by pid.
	// Delivery to an already-dead group is not an error; such races
	// are expected and absorbed by the caller's status re-check.
	SignalGroup(pid int, sig Signal) error
}

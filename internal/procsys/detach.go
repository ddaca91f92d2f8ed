package procsys

// Detacher launches the daemon process detached from the calling
// terminal and session. The returned pid is the immediate child; the
// launcher must not rely on it for liveness — the daemon records its
// own pid once initialized, and the launcher polls that record.
type Detacher interface {
	Detach(logPath string, args []string) (int, error)
}

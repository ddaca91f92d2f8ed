package daemon

import (
	"fmt"
	"io"
	"time"
)

// Log banner markers. The starting marker is written by MarkLog before
// each detach; the crash and stopping markers are written by the daemon
// process itself on the way out. Crash detection scans for the crash
// marker after the most recent starting marker, so stale crashes from
// earlier runs are not re-reported.
const (
	startingMarker = "--- daemon starting at "
	crashedMarker  = "--- daemon crashed at "
	stoppingMarker = "--- daemon stopping at "
)

func WriteStartingBanner(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%s%s ---\n", startingMarker, time.Now().Format(time.RFC3339))
}

// WriteCrashBanner records an uncaught failure: timestamp, the failure
// value, and the goroutine stack that produced it.
func WriteCrashBanner(w io.Writer, cause interface{}, stack []byte) {
	_, _ = fmt.Fprintf(w, "%s%s: %v ---\n", crashedMarker, time.Now().Format(time.RFC3339), cause)
	if len(stack) > 0 {
		_, _ = w.Write(stack)
	}
}

func WriteStoppingBanner(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%s%s ---\n", stoppingMarker, time.Now().Format(time.RFC3339))
}

package daemon

import (
	"os/exec"
	"strings"
)

// buildCommand turns a configured command string into an *exec.Cmd.
// Plain argv commands run directly. Shell metacharacters route the
// string through /bin/sh -c, and a command that already spells out its
// own shell is honored rather than wrapped in a second one.
func buildCommand(cmdStr string) *exec.Cmd {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		// #nosec G204
		return exec.Command("/bin/true")
	}
	if _, script, ok := parseExplicitShell(cmdStr); ok {
		// Re-issued via the absolute path: a restricted Env may not
		// resolve a bare "sh".
		// #nosec G204
		return exec.Command("/bin/sh", "-c", script)
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204
	return exec.Command(name, args...)
}

// parseExplicitShell matches a leading "sh -c", "/bin/sh -c" or
// "/usr/bin/sh -c" and returns the shell plus the script that follows
// the -c. The script is kept byte-for-byte except that one surrounding
// quote pair is stripped: those quotes belonged to the config file's
// syntax, and leaving them in place would hide the script's own
// redirections and expansions from the shell.
func parseExplicitShell(cmdStr string) (string, string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	for _, prefix := range []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "} {
		if !strings.HasPrefix(trim, prefix) {
			continue
		}
		script := trim[len(prefix):]
		if n := len(script); n >= 2 {
			if (script[0] == '\'' && script[n-1] == '\'') || (script[0] == '"' && script[n-1] == '"') {
				script = script[1 : n-1]
			}
		}
		return strings.Fields(prefix)[0], script, true
	}
	return "", "", false
}

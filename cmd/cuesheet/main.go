package main

import (
	"os"
	"strings"

	"cuesheet/internal/cli"
)

func isEventID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "evt-") && len(s) > len("evt-")
}

// rewriteEventLookupArgs turns `cuesheet <event-id>` into
// `cuesheet events show <event-id>`. Cobra treats the first positional token
// as a subcommand, so argv is rewritten before parsing. Persistent flags may
// come first.
func rewriteEventLookupArgs(argv []string) []string {
	valueFlags := map[string]bool{
		"--dir":    true,
		"--game":   true,
		"--config": true,
		"--format": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		switch {
		case a == "":
			continue
		case strings.HasPrefix(a, "-"):
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		case isEventID(a):
			out := make([]string, 0, len(argv)+2)
			out = append(out, argv[:i]...)
			out = append(out, "events", "show")
			return append(out, argv[i:]...)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteEventLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package store

import (
	"strings"

	"github.com/google/uuid"
)

const (
	prefixGame     = "game"
	prefixEvent    = "evt"
	prefixTemplate = "tpl"
	prefixLog      = "log"
)

// newID returns prefix-<12 hex chars> taken from a random UUID.
func newID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + hex[:12]
}

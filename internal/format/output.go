package format

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	JSON  = "json"
	EDN   = "edn"
	Table = "table"
)

// Resolve picks the output format. An explicit value wins; otherwise a
// terminal gets a table and anything else gets JSON.
func Resolve(requested string, w io.Writer) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(requested)); f {
	case JSON, EDN, Table:
		return f, nil
	case "", "auto":
		if IsTerminal(w) {
			return Table, nil
		}
		return JSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json|edn|table)", requested)
	}
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Write writes v in the requested format. Tables need a Tabular value; other
// values fall back to indented JSON.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	case Table:
		if t, ok := v.(Tabular); ok {
			return WriteTable(w, t)
		}
		return WriteJSON(w, v, true)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON, one document per call.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

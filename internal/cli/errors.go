package cli

import (
	"fmt"

	"cuesheet/internal/store"
)

type noGameError struct {
	games int
}

func (e noGameError) Error() string {
	if e.games == 0 {
		return "no games yet; run `cuesheet games create <name> --use`"
	}
	return fmt.Sprintf("%d games and none selected; run `cuesheet games use <game>` or pass --game", e.games)
}

func errNoGame(games int) error {
	return noGameError{games: games}
}

func errInvalid(field, format string, args ...any) error {
	return store.ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

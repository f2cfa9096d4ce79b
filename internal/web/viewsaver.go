package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cuesheet/internal/logging"
	"cuesheet/internal/store"
)

const viewSaveDebounce = 500 * time.Millisecond

// viewSaver coalesces view-state writes: only the latest state per game is
// written once the changes settle.
type viewSaver struct {
	save     func(ctx context.Context, gameID string, vs store.ViewState) error
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]store.ViewState

	// writeMu keeps batches in order; a batch is taken and written under it.
	writeMu sync.Mutex
}

func newViewSaver(save func(ctx context.Context, gameID string, vs store.ViewState) error, debounce time.Duration, logger *slog.Logger) *viewSaver {
	if debounce <= 0 {
		debounce = viewSaveDebounce
	}
	return &viewSaver{
		save:     save,
		debounce: debounce,
		logger:   logger,
		pending:  map[string]store.ViewState{},
	}
}

func (v *viewSaver) Notify(gameID string, vs store.ViewState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending[gameID] = vs
	if v.timer == nil {
		v.timer = time.AfterFunc(v.debounce, v.write)
		return
	}
	v.timer.Reset(v.debounce)
}

// Flush writes everything pending now.
func (v *viewSaver) Flush() {
	v.mu.Lock()
	if v.timer != nil {
		v.timer.Stop()
	}
	v.mu.Unlock()
	v.write()
}

func (v *viewSaver) write() {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	v.mu.Lock()
	batch := v.pending
	v.pending = map[string]store.ViewState{}
	v.mu.Unlock()

	for gameID, vs := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		err := v.save(ctx, gameID, vs)
		cancel()
		if err != nil {
			v.logger.Warn("save view state failed", slog.String(logging.FieldGame, gameID), logging.Err(err))
		}
	}
}

package web

import (
	"os"
	"strconv"
	"sync"
	"time"
)

const watchEvery = 750 * time.Millisecond

type resourceHub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newResourceHub() *resourceHub {
	return &resourceHub{subs: map[chan struct{}]struct{}{}}
}

func (h *resourceHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *resourceHub) broadcast() {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

// storeWatcher calls onChange when the database or its WAL is rewritten,
// which covers writes made by other processes such as the CLI.
type storeWatcher struct {
	path     string
	onChange func()

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newStoreWatcher(dbPath string, onChange func()) *storeWatcher {
	return &storeWatcher{path: dbPath, onChange: onChange, stopCh: make(chan struct{})}
}

func (b *storeWatcher) Stop() {
	if b == nil {
		return
	}
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

func (b *storeWatcher) fingerprint() string {
	var modNano, size int64
	for _, p := range []string{b.path, b.path + "-wal"} {
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		if st.ModTime().UnixNano() > modNano {
			modNano = st.ModTime().UnixNano()
		}
		size += st.Size()
	}
	if modNano == 0 && size == 0 {
		return ""
	}
	return strconv.FormatInt(modNano, 10) + ":" + strconv.FormatInt(size, 10)
}

func (b *storeWatcher) watchLoop() {
	lastFP := b.fingerprint()
	t := time.NewTicker(watchEvery)
	defer t.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-t.C:
		}
		fp := b.fingerprint()
		if fp == "" || fp == lastFP {
			continue
		}
		lastFP = fp
		b.onChange()
	}
}

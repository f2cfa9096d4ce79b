package web

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cuesheet/internal/interact"
	"cuesheet/internal/logging"
	"cuesheet/internal/model"
	"cuesheet/internal/store"
	"cuesheet/internal/timeline"
)

var (
	measurer    = timeline.MonoMeasurer{}
	canvasTheme = timeline.DefaultTheme()
)

// session is one game's canvas, shared by every browser tab showing it.
type session struct {
	game   model.Game
	scope  store.GameScope
	hub    *resourceHub
	logger *slog.Logger

	mu     sync.Mutex
	ctrl   *interact.Controller
	notice *interact.Notify
	form   *eventForm
	// pending counts dispatched persistence effects not yet resolved.
	pending int
}

func (s *Server) sessionFor(ctx context.Context, gameID string) (*session, error) {
	gameID = strings.TrimSpace(gameID)
	s.mu.RLock()
	ss := s.sessions[gameID]
	s.mu.RUnlock()
	if ss != nil {
		return ss, nil
	}

	st := s.store()
	g, err := st.FindGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	view := s.cfg.Config.Viewport(s.cfg.Width, s.cfg.Height)
	logger := s.logger.With(logging.FieldGame, g.ID)
	ctrl := interact.New(s.lanes, view, logger)

	vs, ok, err := st.LoadViewState(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("load view state: %w", err)
	}
	if ok {
		ctrl.SetViewport(vs.Apply(ctrl.Viewport()))
	}
	scope := store.GameScope{Store: st, GameID: g.ID}
	events, err := scope.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	ctrl.SetEvents(events)

	s.mu.Lock()
	defer s.mu.Unlock()
	// Lost a race with another request for the same game.
	if existing := s.sessions[g.ID]; existing != nil {
		return existing, nil
	}
	ss = &session{
		game:   g,
		scope:  scope,
		hub:    newResourceHub(),
		logger: logger,
		ctrl:   ctrl,
	}
	s.sessions[g.ID] = ss
	if gameID != g.ID {
		s.sessions[gameID] = ss
	}
	return ss, nil
}

// act feeds one input into the session's controller and carries out the
// effects it returns. Persistence runs in the background and is resolved
// back into the controller when it finishes.
func (s *Server) act(ctx context.Context, ss *session, input func(c *interact.Controller) []interact.Effect) {
	ss.mu.Lock()
	effects := input(ss.ctrl)
	if len(effects) > 0 {
		ss.notice = nil
	}
	commits, view := ss.apply(effects)
	ss.mu.Unlock()

	if view != nil {
		s.views.Notify(ss.game.ID, store.ViewStateOf(*view))
	}
	for _, e := range commits {
		s.commit(ss, e)
	}
	if len(effects) > 0 {
		ss.hub.broadcast()
	}
}

// apply handles host-side effects and returns the ones that need I/O. The
// caller holds ss.mu.
func (ss *session) apply(effects []interact.Effect) (commits []interact.Effect, view *timeline.Viewport) {
	for _, e := range effects {
		ss.logger.Debug("effect", logging.FieldEffect, fmt.Sprintf("%T", e))
		if interact.IsPersistence(e) {
			ss.pending++
			commits = append(commits, e)
			continue
		}
		switch e := e.(type) {
		case interact.Notify:
			n := e
			ss.notice = &n
		case interact.OpenCreateFlow:
			ss.form = newCreateForm(e.Snapped, e.LaneID)
		case interact.OpenEditFlow:
			ev, ok := ss.ctrl.Event(e.EventID)
			if !ok {
				ss.notice = &interact.Notify{Level: interact.LevelError, Message: "event no longer exists"}
				continue
			}
			ss.form = newEditForm(ev)
		case interact.ViewChanged:
			v := e.Viewport
			view = &v
		case interact.Rerender:
		}
	}
	return commits, view
}

func (s *Server) commit(ss *session, e interact.Effect) {
	s.commits.Add(1)
	go func() {
		defer s.commits.Done()
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		out := interact.Dispatch(ctx, ss.scope, e)
		if out.Err != nil {
			ss.logger.Warn("commit failed", logging.Err(out.Err))
		}
		s.act(ctx, ss, func(c *interact.Controller) []interact.Effect {
			ss.pending--
			return c.Resolve(out)
		})
	}()
}

// reloadIdleSessions picks up writes from other processes. Sessions in the
// middle of an interaction keep their state and catch up on the next change.
func (s *Server) reloadIdleSessions() {
	s.mu.RLock()
	seen := map[*session]bool{}
	var all []*session
	for _, ss := range s.sessions {
		if !seen[ss] {
			seen[ss] = true
			all = append(all, ss)
		}
	}
	s.mu.RUnlock()

	for _, ss := range all {
		ss.mu.Lock()
		busy := ss.busy()
		ss.mu.Unlock()
		if busy {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		events, err := ss.scope.Events(ctx)
		cancel()
		if err != nil {
			ss.logger.Warn("reload failed", logging.Err(err))
			continue
		}
		ss.mu.Lock()
		if ss.busy() {
			ss.mu.Unlock()
			continue
		}
		ss.ctrl.SetEvents(events)
		ss.mu.Unlock()
		ss.hub.broadcast()
	}
}

func (ss *session) busy() bool {
	_, idle := ss.ctrl.State().(interact.Idle)
	return !idle || ss.form != nil || ss.pending > 0
}

package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"cuesheet/internal/interact"
	"cuesheet/internal/model"
	"cuesheet/internal/svgsurface"
	"cuesheet/internal/timeline"
)

type menuVM struct {
	X, Y  float64
	Items []interact.MenuItem
}

type promptField struct {
	Name  string
	Value string
}

type promptVM struct {
	Template string
	Text     string
	Fields   []promptField
}

// liveVM is everything inside #live: the canvas and the dialogs layered on it.
type liveVM struct {
	GameID      string
	ReadOnly    bool
	SVG         template.HTML
	State       string
	Zoom        float64
	Interval    string
	Orientation string
	Lanes       []timeline.Lane

	Menu     *menuVM
	Prompt   *promptVM
	Form     *eventForm
	Notice   *interact.Notify
	Selected *model.TimelineEvent
}

func (vm liveVM) signals() map[string]any {
	sig := map[string]any{
		"state":       vm.State,
		"zoom":        vm.Zoom,
		"interval":    vm.Interval,
		"orientation": vm.Orientation,
		"selected":    "",
		"notice":      "",
	}
	if vm.Selected != nil {
		sig["selected"] = vm.Selected.ID
	}
	if vm.Notice != nil {
		sig["notice"] = vm.Notice.Message
	}
	return sig
}

func (s *Server) liveView(ss *session) liveVM {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	c := ss.ctrl
	v := c.Viewport()
	f := c.Frame(measurer, canvasTheme)
	vm := liveVM{
		GameID:      ss.game.ID,
		ReadOnly:    s.readOnly(),
		SVG:         template.HTML(svgsurface.Render(ss.logger, f)),
		State:       c.State().Name(),
		Zoom:        v.Zoom.Level,
		Interval:    v.Interval.Label(),
		Orientation: v.Orientation.String(),
		Lanes:       s.lanes.Lanes(),
		Form:        ss.form,
		Notice:      ss.notice,
	}
	if ev, ok := c.Event(c.Selected()); ok {
		vm.Selected = &ev
	}
	switch st := c.State().(type) {
	case interact.ContextMenu:
		vm.Menu = &menuVM{X: st.At.X, Y: st.At.Y, Items: st.Items}
	case interact.PlaceholderPrompt:
		p := &promptVM{Template: st.Template.Name, Text: st.Text}
		for _, tok := range st.Tokens {
			p.Fields = append(p.Fields, promptField{Name: tok, Value: st.Values[tok]})
		}
		vm.Prompt = p
	}
	return vm
}

// pointerReq is posted by the page for every pointer and drag/drop event on
// the canvas. X and Y are canvas pixels.
type pointerReq struct {
	Kind    string  `json:"kind"` // down|move|up|right|enter|over|leave|drop|escape
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Payload string  `json:"payload,omitempty"`
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.mutableSession(w, r)
	if !ok {
		return
	}
	var req pointerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	p := timeline.Point{X: req.X, Y: req.Y}

	var input func(c *interact.Controller) []interact.Effect
	switch strings.ToLower(strings.TrimSpace(req.Kind)) {
	case "down":
		input = func(c *interact.Controller) []interact.Effect { return c.PointerDown(p) }
	case "move":
		input = func(c *interact.Controller) []interact.Effect { return c.PointerMove(p) }
	case "up":
		input = func(c *interact.Controller) []interact.Effect { return c.PointerUp(p) }
	case "right":
		input = func(c *interact.Controller) []interact.Effect { return c.RightClick(p) }
	case "enter":
		input = func(c *interact.Controller) []interact.Effect { return c.DragEnter(p) }
	case "over":
		input = func(c *interact.Controller) []interact.Effect { return c.DragOver(p) }
	case "leave":
		input = func(c *interact.Controller) []interact.Effect { return c.DragLeave() }
	case "drop":
		payload := []byte(req.Payload)
		input = func(c *interact.Controller) []interact.Effect { return c.Drop(p, payload) }
	case "escape":
		input = func(c *interact.Controller) []interact.Effect { return c.Escape() }
	default:
		http.Error(w, "unknown pointer kind", http.StatusBadRequest)
		return
	}
	s.act(r.Context(), ss, input)
	w.WriteHeader(http.StatusNoContent)
}

type promptReq struct {
	Cancel bool              `json:"cancel"`
	Values map[string]string `json:"values"`
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.mutableSession(w, r)
	if !ok {
		return
	}
	var req promptReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	s.act(r.Context(), ss, func(c *interact.Controller) []interact.Effect {
		if req.Cancel {
			return c.CancelPrompt()
		}
		return c.SubmitPrompt(req.Values)
	})
	w.WriteHeader(http.StatusNoContent)
}

type menuReq struct {
	Action string `json:"action"`
	Close  bool   `json:"close"`
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.mutableSession(w, r)
	if !ok {
		return
	}
	var req menuReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	s.act(r.Context(), ss, func(c *interact.Controller) []interact.Effect {
		if req.Close {
			return c.CloseMenu()
		}
		return c.ChooseMenu(interact.MenuAction(strings.TrimSpace(req.Action)))
	})
	w.WriteHeader(http.StatusNoContent)
}

// viewReq changes the viewport. Resize is allowed in read-only mode since it
// only affects this server's rendering.
type viewReq struct {
	Op      string  `json:"op"` // zoom-in|zoom-out|interval|orientation|pan|resize
	Value   string  `json:"value,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	ss, err := s.sessionFor(r.Context(), r.PathValue("gameId"))
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	var req viewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	op := strings.ToLower(strings.TrimSpace(req.Op))
	if op != "resize" && s.readOnly() {
		http.Error(w, "read-only", http.StatusForbidden)
		return
	}

	var input func(c *interact.Controller) []interact.Effect
	switch op {
	case "zoom-in":
		input = func(c *interact.Controller) []interact.Effect { return c.ZoomIn() }
	case "zoom-out":
		input = func(c *interact.Controller) []interact.Effect { return c.ZoomOut() }
	case "interval":
		iv, err := timeline.ParseInterval(req.Value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		input = func(c *interact.Controller) []interact.Effect { return c.SetInterval(iv) }
	case "orientation":
		o, err := timeline.ParseOrientation(req.Value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		input = func(c *interact.Controller) []interact.Effect { return c.SetOrientation(o) }
	case "pan":
		input = func(c *interact.Controller) []interact.Effect { return c.Pan(req.Seconds) }
	case "resize":
		if req.Width <= 0 || req.Height <= 0 {
			http.Error(w, "width and height must be positive", http.StatusBadRequest)
			return
		}
		input = func(c *interact.Controller) []interact.Effect { return c.Resize(req.Width, req.Height) }
	default:
		http.Error(w, "unknown view op", http.StatusBadRequest)
		return
	}
	s.act(r.Context(), ss, input)
	w.WriteHeader(http.StatusNoContent)
}

// handleEventForm submits or cancels the session's open create/edit form.
func (s *Server) handleEventForm(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.mutableSession(w, r)
	if !ok {
		return
	}
	var req eventReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.normalize()

	s.act(r.Context(), ss, func(c *interact.Controller) []interact.Effect {
		f := ss.form
		if f == nil {
			return []interact.Effect{interact.Notify{Level: interact.LevelWarn, Message: "no form is open"}}
		}
		if req.Cancel {
			ss.form = nil
			return []interact.Effect{interact.Rerender{}}
		}
		switch f.Kind {
		case "edit":
			ev, ok := c.Event(f.EventID)
			if !ok {
				ss.form = nil
				return []interact.Effect{interact.Notify{Level: interact.LevelError, Message: "event no longer exists"}}
			}
			p, err := req.patch(ev, c.Lanes())
			if err != nil {
				req.refill(f, err)
				return []interact.Effect{interact.Rerender{}}
			}
			ss.form = nil
			if p.Empty() {
				return []interact.Effect{interact.Notify{Level: interact.LevelInfo, Message: "No changes"}}
			}
			return c.Edit(f.EventID, p)
		default:
			d, err := req.draft(c.Lanes())
			if err != nil {
				req.refill(f, err)
				return []interact.Effect{interact.Rerender{}}
			}
			ss.form = nil
			return c.Create(d)
		}
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) mutableSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	if s.readOnly() {
		http.Error(w, "read-only", http.StatusForbidden)
		return nil, false
	}
	ss, err := s.sessionFor(r.Context(), r.PathValue("gameId"))
	if err != nil {
		s.httpError(w, r, err)
		return nil, false
	}
	return ss, true
}

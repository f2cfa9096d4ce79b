package timeline

import (
	"errors"
	"fmt"
	"strings"
)

const (
	LaneGame             = "game"
	LaneSponsorReads     = "sponsor-reads"
	LanePermanentMarkers = "permanent-markers"
	LaneTalent           = "talent"
	LaneGraphics         = "graphics"
	LaneAudio            = "audio"
	LaneProduction       = "production"
	LaneGeneral          = "general"
)

const defaultLaneSize = 48

// Lane is a fixed track. Lanes are configuration, never per-game data.
type Lane struct {
	ID    string  `json:"id" toml:"id"`
	Name  string  `json:"name" toml:"name"`
	Color string  `json:"color" toml:"color"`
	Size  float64 `json:"size" toml:"size"`
}

// LaneRule maps a raw element type to a lane when the type contains any of the
// needles (case-insensitive).
type LaneRule struct {
	Contains []string `json:"contains" toml:"contains"`
	LaneID   string   `json:"lane" toml:"lane"`
}

// LaneSet is the ordered lane configuration plus its classification table.
type LaneSet struct {
	lanes    []Lane
	rules    []LaneRule
	fallback string
	index    map[string]int
}

func DefaultLanes() []Lane {
	return []Lane{
		{ID: LaneGame, Name: "Game Events", Color: "#3b82f6", Size: defaultLaneSize},
		{ID: LaneSponsorReads, Name: "Sponsor Reads", Color: "#f59e0b", Size: defaultLaneSize},
		{ID: LanePermanentMarkers, Name: "Permanent Markers", Color: "#8b5cf6", Size: defaultLaneSize},
		{ID: LaneTalent, Name: "Talent", Color: "#10b981", Size: defaultLaneSize},
		{ID: LaneGraphics, Name: "Graphics", Color: "#ec4899", Size: defaultLaneSize},
		{ID: LaneAudio, Name: "Audio", Color: "#06b6d4", Size: defaultLaneSize},
		{ID: LaneProduction, Name: "Production", Color: "#ef4444", Size: defaultLaneSize},
		{ID: LaneGeneral, Name: "General", Color: "#9ca3af", Size: defaultLaneSize},
	}
}

// DefaultLaneRules is evaluated top to bottom; the first match wins.
func DefaultLaneRules() []LaneRule {
	return []LaneRule{
		{Contains: []string{"sponsor"}, LaneID: LaneSponsorReads},
		{Contains: []string{"permanent"}, LaneID: LanePermanentMarkers},
		{Contains: []string{"game"}, LaneID: LaneGame},
		{Contains: []string{"talent"}, LaneID: LaneTalent},
		{Contains: []string{"graphic"}, LaneID: LaneGraphics},
		{Contains: []string{"audio"}, LaneID: LaneAudio},
		{Contains: []string{"production"}, LaneID: LaneProduction},
	}
}

func DefaultLaneSet() *LaneSet {
	ls, err := NewLaneSet(DefaultLanes(), DefaultLaneRules(), LaneGeneral)
	if err != nil {
		panic(err)
	}
	return ls
}

func NewLaneSet(lanes []Lane, rules []LaneRule, fallback string) (*LaneSet, error) {
	if len(lanes) == 0 {
		return nil, errors.New("lanes: at least one lane is required")
	}
	ls := &LaneSet{index: make(map[string]int, len(lanes))}
	for _, l := range lanes {
		l.ID = strings.TrimSpace(l.ID)
		if l.ID == "" {
			return nil, errors.New("lanes: lane id is empty")
		}
		if _, dup := ls.index[l.ID]; dup {
			return nil, fmt.Errorf("lanes: duplicate lane id %q", l.ID)
		}
		if l.Size <= 0 {
			l.Size = defaultLaneSize
		}
		if strings.TrimSpace(l.Name) == "" {
			l.Name = l.ID
		}
		ls.index[l.ID] = len(ls.lanes)
		ls.lanes = append(ls.lanes, l)
	}
	for i, r := range rules {
		if _, ok := ls.index[r.LaneID]; !ok {
			return nil, fmt.Errorf("lanes: rule %d targets unknown lane %q", i, r.LaneID)
		}
		needles := make([]string, 0, len(r.Contains))
		for _, n := range r.Contains {
			n = strings.ToLower(strings.TrimSpace(n))
			if n != "" {
				needles = append(needles, n)
			}
		}
		ls.rules = append(ls.rules, LaneRule{Contains: needles, LaneID: r.LaneID})
	}
	fallback = strings.TrimSpace(fallback)
	if fallback == "" {
		fallback = ls.lanes[len(ls.lanes)-1].ID
	}
	if _, ok := ls.index[fallback]; !ok {
		return nil, fmt.Errorf("lanes: fallback lane %q is not configured", fallback)
	}
	ls.fallback = fallback
	return ls, nil
}

func (ls *LaneSet) Lanes() []Lane {
	out := make([]Lane, len(ls.lanes))
	copy(out, ls.lanes)
	return out
}

func (ls *LaneSet) Rules() []LaneRule {
	out := make([]LaneRule, len(ls.rules))
	copy(out, ls.rules)
	return out
}

func (ls *LaneSet) Len() int { return len(ls.lanes) }

func (ls *LaneSet) Fallback() string { return ls.fallback }

func (ls *LaneSet) Has(id string) bool {
	_, ok := ls.index[id]
	return ok
}

// Classify maps any element type to exactly one configured lane id.
func (ls *LaneSet) Classify(rawType string) string {
	t := strings.ToLower(rawType)
	for _, r := range ls.rules {
		for _, n := range r.Contains {
			if strings.Contains(t, n) {
				return r.LaneID
			}
		}
	}
	return ls.fallback
}

// Resolve looks a lane up by id. Unknown ids resolve to the last lane.
func (ls *LaneSet) Resolve(id string) Lane {
	if i, ok := ls.index[id]; ok {
		return ls.lanes[i]
	}
	return ls.lanes[len(ls.lanes)-1]
}

// Offset is the cumulative cross-axis start of the lane band, relative to the
// top of the lane stack.
func (ls *LaneSet) Offset(id string) float64 {
	target := ls.Resolve(id).ID
	var acc float64
	for _, l := range ls.lanes {
		if l.ID == target {
			return acc
		}
		acc += l.Size
	}
	return acc
}

func (ls *LaneSet) Extent() float64 {
	var acc float64
	for _, l := range ls.lanes {
		acc += l.Size
	}
	return acc
}

// LaneAt finds the lane whose band contains cross (relative to the top of the
// lane stack).
func (ls *LaneSet) LaneAt(cross float64) (Lane, int, bool) {
	if cross < 0 {
		return Lane{}, -1, false
	}
	var acc float64
	for i, l := range ls.lanes {
		if cross >= acc && cross < acc+l.Size {
			return l, i, true
		}
		acc += l.Size
	}
	return Lane{}, -1, false
}

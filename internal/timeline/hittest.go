package timeline

import "cuesheet/internal/model"

// HitTest returns the index of the event under p, or -1.
//
// Lanes are walked in display order; inside the lane under the pointer, events
// are checked in declared order and the first containing block wins, so
// overlapping blocks resolve to the earliest-declared event.
func HitTest(v Viewport, lanes *LaneSet, events []model.TimelineEvent, p Point) int {
	lane, ok := v.LaneAtPoint(lanes, p)
	if !ok {
		return -1
	}
	if v.TimeAxis(p) < v.Metrics.HeaderSize {
		return -1
	}
	for i, ev := range events {
		if lanes.Resolve(ev.LaneID).ID != lane.ID {
			continue
		}
		if v.EventRect(ev, lanes).Contains(p) {
			return i
		}
	}
	return -1
}

// InCanvas reports whether p is inside the event area (past the ruler and lane
// header, inside the lane stack).
func InCanvas(v Viewport, lanes *LaneSet, p Point) bool {
	if v.TimeAxis(p) < v.Metrics.HeaderSize || v.TimeAxis(p) >= v.TimeLength() {
		return false
	}
	_, ok := v.LaneAtPoint(lanes, p)
	return ok
}

package web

import (
	"fmt"
	"strings"

	"cuesheet/internal/model"
	"cuesheet/internal/timeline"
)

// eventForm is the open create or edit dialog of a session.
type eventForm struct {
	Kind        string // create|edit
	EventID     string
	Title       string
	Start       string
	Duration    string
	LaneID      string
	Type        string
	Description string
	Error       string
}

func newCreateForm(offset float64, laneID string) *eventForm {
	return &eventForm{
		Kind:     "create",
		Start:    timeline.FormatOffset(offset),
		Duration: timeline.FormatDuration(60),
		LaneID:   laneID,
	}
}

func newEditForm(ev model.TimelineEvent) *eventForm {
	return &eventForm{
		Kind:        "edit",
		EventID:     ev.ID,
		Title:       ev.Title,
		Start:       timeline.FormatOffset(ev.StartOffsetSeconds),
		Duration:    timeline.FormatDuration(ev.DurationSeconds),
		LaneID:      ev.LaneID,
		Type:        ev.ElementType,
		Description: ev.Description,
	}
}

// eventReq is the body of POST /games/{id}/events.
type eventReq struct {
	Cancel      bool   `json:"cancel"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	Duration    string `json:"duration"`
	LaneID      string `json:"laneId"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (r *eventReq) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Start = strings.TrimSpace(r.Start)
	r.Duration = strings.TrimSpace(r.Duration)
	r.LaneID = strings.TrimSpace(r.LaneID)
	r.Type = strings.TrimSpace(r.Type)
	r.Description = strings.TrimSpace(r.Description)
}

// refill copies the submitted values back into f so a rejected form keeps them.
func (r eventReq) refill(f *eventForm, err error) {
	f.Title, f.Start, f.Duration = r.Title, r.Start, r.Duration
	f.LaneID, f.Type, f.Description = r.LaneID, r.Type, r.Description
	f.Error = err.Error()
}

func (r eventReq) draft(lanes *timeline.LaneSet) (model.EventDraft, error) {
	d := model.EventDraft{
		Title:       r.Title,
		Description: r.Description,
		LaneID:      r.LaneID,
		ElementType: r.Type,
	}
	if d.Title == "" {
		return d, fmt.Errorf("title is required")
	}
	start, err := timeline.ParseOffset(r.Start)
	if err != nil {
		return d, err
	}
	d.StartOffsetSeconds = start
	if r.Duration != "" {
		if d.DurationSeconds, err = timeline.ParseDuration(r.Duration); err != nil {
			return d, err
		}
	}
	return d, checkLane(lanes, d.LaneID)
}

// patch reports only the fields that differ from ev.
func (r eventReq) patch(ev model.TimelineEvent, lanes *timeline.LaneSet) (model.EventPatch, error) {
	var p model.EventPatch
	if r.Title != ev.Title {
		if r.Title == "" {
			return p, fmt.Errorf("title is required")
		}
		p.Title = model.StringPtr(r.Title)
	}
	start, err := timeline.ParseOffset(r.Start)
	if err != nil {
		return p, err
	}
	if timeline.FormatOffset(start) != timeline.FormatOffset(ev.StartOffsetSeconds) {
		p.StartOffsetSeconds = model.Float64Ptr(start)
	}
	dur, err := timeline.ParseDuration(r.Duration)
	if err != nil {
		return p, err
	}
	if timeline.FormatDuration(dur) != timeline.FormatDuration(ev.DurationSeconds) {
		p.DurationSeconds = model.Float64Ptr(dur)
	}
	if r.LaneID != ev.LaneID {
		if r.LaneID == "" {
			return p, fmt.Errorf("lane is required")
		}
		if err := checkLane(lanes, r.LaneID); err != nil {
			return p, err
		}
		p.LaneID = model.StringPtr(r.LaneID)
	}
	if r.Type != ev.ElementType {
		p.ElementType = model.StringPtr(r.Type)
	}
	if r.Description != strings.TrimSpace(ev.Description) {
		p.Description = model.StringPtr(r.Description)
	}
	return p, nil
}

// checkLane accepts an empty lane, which is classified from the type later.
func checkLane(lanes *timeline.LaneSet, id string) error {
	if id == "" || lanes.Has(id) {
		return nil
	}
	return fmt.Errorf("unknown lane %q", id)
}

package model

import "time"

type Game struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kickoff   string    `json:"kickoff,omitempty"` // free text, e.g. "2026-10-17 19:00"
	CreatedAt time.Time `json:"createdAt"`
}

// TimelineEvent is a single block on a game's production timeline.
//
// Offsets and durations are seconds; minutes only appear at import/CLI boundaries.
type TimelineEvent struct {
	ID          string `json:"id"`
	GameID      string `json:"gameId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	LaneID      string `json:"laneId"`

	StartOffsetSeconds float64 `json:"startOffsetSeconds"`
	DurationSeconds    float64 `json:"durationSeconds"`

	// ElementType is free text (e.g. "Sponsor Read") used for lane classification and visual scale.
	ElementType string  `json:"elementType,omitempty"`
	Sponsor     *string `json:"sponsor,omitempty"`
	TemplateID  *string `json:"templateId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (e TimelineEvent) EndOffsetSeconds() float64 {
	return e.StartOffsetSeconds + e.DurationSeconds
}

// EventDraft is the partial record passed to createEvent.
type EventDraft struct {
	Title              string  `json:"title"`
	Description        string  `json:"description,omitempty"`
	LaneID             string  `json:"laneId"`
	StartOffsetSeconds float64 `json:"startOffsetSeconds"`
	DurationSeconds    float64 `json:"durationSeconds,omitempty"`
	ElementType        string  `json:"elementType,omitempty"`
	Sponsor            *string `json:"sponsor,omitempty"`
	TemplateID         *string `json:"templateId,omitempty"`
}

// EventPatch carries the fields updateEvent should change. Nil fields are left alone.
type EventPatch struct {
	Title              *string  `json:"title,omitempty"`
	Description        *string  `json:"description,omitempty"`
	LaneID             *string  `json:"laneId,omitempty"`
	StartOffsetSeconds *float64 `json:"startOffsetSeconds,omitempty"`
	DurationSeconds    *float64 `json:"durationSeconds,omitempty"`
	ElementType        *string  `json:"elementType,omitempty"`
}

func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.LaneID == nil &&
		p.StartOffsetSeconds == nil && p.DurationSeconds == nil && p.ElementType == nil
}

// Apply returns a copy of ev with the patch applied.
func (p EventPatch) Apply(ev TimelineEvent) TimelineEvent {
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.LaneID != nil {
		ev.LaneID = *p.LaneID
	}
	if p.StartOffsetSeconds != nil {
		ev.StartOffsetSeconds = *p.StartOffsetSeconds
	}
	if p.DurationSeconds != nil {
		ev.DurationSeconds = *p.DurationSeconds
	}
	if p.ElementType != nil {
		ev.ElementType = *p.ElementType
	}
	return ev
}

// Template is a draggable element from the element library.
type Template struct {
	ID                     string  `json:"id" yaml:"id"`
	Name                   string  `json:"name" yaml:"name"`
	Description            string  `json:"description,omitempty" yaml:"description"`
	Type                   string  `json:"type" yaml:"type"`
	DefaultDurationSeconds float64 `json:"defaultDurationSeconds,omitempty" yaml:"default_duration_seconds"`
	SponsorName            string  `json:"sponsorName,omitempty" yaml:"sponsor"`
	Text                   string  `json:"text,omitempty" yaml:"text"`
}

// LogEntry is one row of the store's append-only change log.
type LogEntry struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}

func StringPtr(s string) *string { return &s }

func Float64Ptr(f float64) *float64 { return &f }

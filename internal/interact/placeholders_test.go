package interact

import (
	"reflect"
	"testing"

	"cuesheet/internal/model"
	"cuesheet/internal/timeline"
)

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"no tokens here", nil},
		{"{a} and {b} and {a}", []string{"a", "b"}},
		{"{ spaced }", []string{"spaced"}},
		{"{promo.code} {x_1} {kick-off}", []string{"promo.code", "x_1", "kick-off"}},
		{"{two words} {}", nil},
		{"{{double}}", []string{"double"}},
	}
	for _, tc := range cases {
		if got := Placeholders(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Placeholders(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestSubstitute(t *testing.T) {
	t.Parallel()

	got := Substitute("Hi {name}, { name }! {unknown} {n}", map[string]string{"name": " Sam ", "n": "1"})
	if want := "Hi Sam, Sam! {unknown} 1"; got != want {
		t.Fatalf("Substitute = %q, want %q", got, want)
	}
}

func TestFromTemplate(t *testing.T) {
	t.Parallel()

	tpl := model.Template{
		ID:                     "tpl-1",
		Name:                   "Sponsor Read",
		Type:                   "Sponsor Read",
		DefaultDurationSeconds: 30,
		SponsorName:            "Acme",
		Text:                   "{sponsor} at {time} on {lane}. {tagline}",
	}
	lane := timeline.Lane{ID: timeline.LaneSponsorReads, Name: "Sponsor Reads"}

	_, missing := FromTemplate(tpl, lane, 90, nil)
	if !reflect.DeepEqual(missing, []string{"tagline"}) {
		t.Fatalf("missing = %#v, want [tagline]", missing)
	}

	d, missing := FromTemplate(tpl, lane, 90, map[string]string{"tagline": "Built to last."})
	if len(missing) != 0 {
		t.Fatalf("missing = %#v, want none", missing)
	}
	if d.Description != "Acme at 01:30 on Sponsor Reads. Built to last." {
		t.Fatalf("Description = %q", d.Description)
	}
	if d.Title != "Sponsor Read" || d.LaneID != timeline.LaneSponsorReads || d.DurationSeconds != 30 {
		t.Fatalf("draft = %+v", d)
	}
	if d.Sponsor == nil || *d.Sponsor != "Acme" || d.TemplateID == nil || *d.TemplateID != "tpl-1" {
		t.Fatalf("sponsor/template not carried: %+v", d)
	}
}

func TestTemplateLane(t *testing.T) {
	t.Parallel()

	lanes := timeline.DefaultLaneSet()
	cases := []struct {
		tpl  model.Template
		want string
	}{
		{model.Template{Name: "Acme Spot", Type: "Sponsor Read"}, timeline.LaneSponsorReads},
		{model.Template{Name: "Acme Sponsor Spot"}, timeline.LaneSponsorReads},
		{model.Template{Name: "Halftime Graphic", Type: "  "}, timeline.LaneGraphics},
		{model.Template{Name: "Sponsor Bumper", Type: "Audio"}, timeline.LaneAudio},
		{model.Template{Name: "Misc"}, timeline.LaneGeneral},
	}
	for _, tc := range cases {
		if got := TemplateLane(lanes, tc.tpl); got != tc.want {
			t.Fatalf("TemplateLane(%+v) = %q, want %q", tc.tpl, got, tc.want)
		}
	}
}

package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cuesheet/internal/model"
	"cuesheet/internal/timeline"
)

func fixtureGame() (model.Game, []model.TimelineEvent) {
	now := time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC)
	g := model.Game{ID: "game-test", Name: "Hawks vs Owls", Kickoff: "2026-10-17 19:00", CreatedAt: now}
	events := []model.TimelineEvent{
		{
			ID: "evt-2", GameID: g.ID, Title: "Acme | Read", LaneID: timeline.LaneSponsorReads,
			StartOffsetSeconds: 750, DurationSeconds: 30, ElementType: "Sponsor Read",
			Sponsor: model.StringPtr("Acme"), Description: "Brought to you by Acme.",
		},
		{ID: "evt-1", GameID: g.ID, Title: "Kickoff", LaneID: timeline.LaneGame, StartOffsetSeconds: 0, DurationSeconds: 60, ElementType: "Game Event"},
		{ID: "evt-3", GameID: g.ID, Title: "Lower Third", LaneID: timeline.LaneGraphics, StartOffsetSeconds: 750, DurationSeconds: 10},
	}
	return g, events
}

func TestRenderRundownMarkdown_ChronologicalTableAndCues(t *testing.T) {
	t.Parallel()

	g, events := fixtureGame()
	md := RenderRundownMarkdown(g, events, nil)

	if !strings.HasPrefix(md, "# Hawks vs Owls\n") {
		t.Fatalf("expected game header, got:\n%s", md)
	}
	if !strings.Contains(md, "- Runs: 00:00 to 13:00") {
		t.Fatalf("expected run span, got:\n%s", md)
	}
	kick := strings.Index(md, "| 00:00 | 01:00 | 1m | Game Events | Kickoff |")
	read := strings.Index(md, `| 12:30 | 13:00 | 30s | Sponsor Reads | Acme \| Read |`)
	third := strings.Index(md, "| 12:30 | 12:40 | 10s | Graphics | Lower Third |")
	if kick < 0 || read < 0 || third < 0 {
		t.Fatalf("missing rundown rows, got:\n%s", md)
	}
	if !(kick < read && read < third) {
		t.Fatalf("expected air order with ties in declared order, got:\n%s", md)
	}
	if !strings.Contains(md, "### 12:30 Acme | Read") || !strings.Contains(md, "- Sponsor: Acme") || !strings.Contains(md, "Brought to you by Acme.") {
		t.Fatalf("expected cue section, got:\n%s", md)
	}
}

func TestRenderRundownMarkdown_Empty(t *testing.T) {
	t.Parallel()

	md := RenderRundownMarkdown(model.Game{ID: "game-x", Name: "Empty"}, nil, nil)
	if !strings.Contains(md, "- Cues: 0") || !strings.Contains(md, "(no cues)") {
		t.Fatalf("expected empty rundown, got:\n%s", md)
	}
}

func TestRenderLaneMarkdown_OnlyThatLane(t *testing.T) {
	t.Parallel()

	g, events := fixtureGame()
	lanes := timeline.DefaultLaneSet()
	md := RenderLaneMarkdown(g, lanes.Resolve(timeline.LaneGraphics), events, lanes)
	if !strings.HasPrefix(md, "# Hawks vs Owls: Graphics\n") {
		t.Fatalf("expected lane header, got:\n%s", md)
	}
	if !strings.Contains(md, "Lower Third") || strings.Contains(md, "Kickoff") {
		t.Fatalf("expected only graphics cues, got:\n%s", md)
	}
}

func TestWriteGame_WritesRundownAndUsedLanes(t *testing.T) {
	t.Parallel()

	g, events := fixtureGame()
	outDir := t.TempDir()

	res, err := WriteGame(g, events, nil, outDir, WriteOptions{})
	if err != nil {
		t.Fatalf("WriteGame: %v", err)
	}
	want := []string{
		filepath.Join(outDir, g.ID, "rundown.md"),
		filepath.Join(outDir, g.ID, "lanes", timeline.LaneGame+".md"),
		filepath.Join(outDir, g.ID, "lanes", timeline.LaneSponsorReads+".md"),
		filepath.Join(outDir, g.ID, "lanes", timeline.LaneGraphics+".md"),
	}
	if len(res.Written) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), res.Written)
	}
	for i, p := range want {
		if res.Written[i] != p {
			t.Fatalf("written[%d]: expected %s, got %s", i, p, res.Written[i])
		}
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s to exist: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, g.ID, "lanes", timeline.LaneAudio+".md")); !os.IsNotExist(err) {
		t.Fatalf("expected no file for an empty lane, got err=%v", err)
	}

	if _, err := WriteGame(g, events, nil, outDir, WriteOptions{}); err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite error, got %v", err)
	}
	if _, err := WriteGame(g, events, nil, outDir, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("WriteGame overwrite: %v", err)
	}
}

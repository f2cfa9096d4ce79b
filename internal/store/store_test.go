package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cuesheet/internal/interact"
	"cuesheet/internal/model"
	"cuesheet/internal/timeline"
)

var _ interact.Persistence = GameScope{}

func newTestStore(t *testing.T) Store {
	t.Helper()
	clock := time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC)
	return Store{
		Dir: t.TempDir(),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
}

func mustGame(t *testing.T, s Store, name string) model.Game {
	t.Helper()
	g, err := s.CreateGame(context.Background(), name, "19:00")
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	return g
}

func TestOpen_RequiresDir(t *testing.T) {
	t.Parallel()

	_, err := Store{}.ListGames(context.Background())
	var verr ValidationError
	if !errors.As(err, &verr) || verr.Field != "dir" {
		t.Fatalf("expected dir validation error, got %v", err)
	}
}

func TestDiscoverDir_WalksUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	want := filepath.Join(root, dirName)
	if err := os.MkdirAll(want, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok := DiscoverDir(nested)
	if !ok || got != want {
		t.Fatalf("DiscoverDir = %q, %v; want %q", got, ok, want)
	}
	if _, ok := DiscoverDir(t.TempDir()); ok {
		t.Fatalf("expected no store dir in a fresh temp dir")
	}
}

func TestGames_CreateListFind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.CreateGame(ctx, "   ", ""); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}
	a := mustGame(t, s, "Hawks at Owls")
	b := mustGame(t, s, "Owls at Hawks")

	games, err := s.ListGames(ctx)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 2 || games[0].ID != a.ID || games[1].ID != b.ID {
		t.Fatalf("unexpected games: %#v", games)
	}
	if !strings.HasPrefix(a.ID, "game-") || len(a.ID) != len("game-")+12 {
		t.Fatalf("unexpected id shape %q", a.ID)
	}

	got, err := s.FindGame(ctx, "hawks AT owls")
	if err != nil || got.ID != a.ID {
		t.Fatalf("FindGame by name = %#v, %v", got, err)
	}
	got, err = s.FindGame(ctx, b.ID)
	if err != nil || got.ID != b.ID {
		t.Fatalf("FindGame by id = %#v, %v", got, err)
	}

	_, err = s.FindGame(ctx, "nope")
	var nf NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "game" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	mustGame(t, s, "Hawks at Owls")
	if _, err := s.FindGame(ctx, "Hawks at Owls"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("expected ambiguous name error, got %v", err)
	}
}

func TestEvents_CRUDKeepsDeclaredOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	g := mustGame(t, s, "Final")

	first, err := s.CreateEvent(ctx, g.ID, model.EventDraft{
		Title: "Kickoff", LaneID: "game", StartOffsetSeconds: 300, DurationSeconds: 120, ElementType: "Game Event",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	second, err := s.CreateEvent(ctx, g.ID, model.EventDraft{
		Title: "Acme read", LaneID: "sponsor-reads", StartOffsetSeconds: -5, Sponsor: model.StringPtr(" Acme "),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if second.StartOffsetSeconds != 0 {
		t.Fatalf("negative offset should clamp to 0, got %v", second.StartOffsetSeconds)
	}
	if second.DurationSeconds != DefaultEventDurationSeconds {
		t.Fatalf("missing duration should default, got %v", second.DurationSeconds)
	}
	if second.Sponsor == nil || *second.Sponsor != "Acme" {
		t.Fatalf("sponsor not trimmed: %v", second.Sponsor)
	}

	evs, err := s.ListEvents(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(evs) != 2 || evs[0].ID != first.ID || evs[1].ID != second.ID {
		t.Fatalf("unexpected order: %#v", evs)
	}
	if !evs[0].CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at round trip: %v vs %v", evs[0].CreatedAt, first.CreatedAt)
	}

	// Moving an event never changes its declared position.
	moved, err := s.UpdateEvent(ctx, first.ID, model.EventPatch{
		StartOffsetSeconds: model.Float64Ptr(1020),
		LaneID:             model.StringPtr("talent"),
	})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if moved.StartOffsetSeconds != 1020 || moved.LaneID != "talent" || moved.Title != "Kickoff" {
		t.Fatalf("unexpected update result: %#v", moved)
	}
	if !moved.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("updatedAt should advance")
	}
	evs, _ = s.ListEvents(ctx, g.ID)
	if evs[0].ID != first.ID || evs[0].StartOffsetSeconds != 1020 {
		t.Fatalf("declared order changed after update: %#v", evs)
	}

	if _, err := s.UpdateEvent(ctx, first.ID, model.EventPatch{}); err == nil {
		t.Fatalf("expected empty patch to be rejected")
	}
	if _, err := s.UpdateEvent(ctx, first.ID, model.EventPatch{Title: model.StringPtr(" ")}); err == nil {
		t.Fatalf("expected blank title to be rejected")
	}

	if err := s.DeleteEvent(ctx, first.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	var nf NotFoundError
	if err := s.DeleteEvent(ctx, first.ID); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}
	if _, err := s.FindEvent(ctx, first.ID); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError from FindEvent, got %v", err)
	}
	if _, err := s.UpdateEvent(ctx, first.ID, model.EventPatch{Title: model.StringPtr("x")}); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError from UpdateEvent, got %v", err)
	}
}

func TestCreateEvent_UnknownGame(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.CreateEvent(context.Background(), "game-missing", model.EventDraft{Title: "x", LaneID: "game"})
	var nf NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "game" {
		t.Fatalf("expected game NotFoundError, got %v", err)
	}
}

func TestReadLog_RecordsEveryWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	g := mustGame(t, s, "Final")

	ev, err := s.CreateEvent(ctx, g.ID, model.EventDraft{Title: "Kickoff", LaneID: "game"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateEvent(ctx, ev.ID, model.EventPatch{DurationSeconds: model.Float64Ptr(90)}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatal(err)
	}

	all, err := s.ReadLog(ctx, "", 0)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	var types []string
	for _, e := range all {
		types = append(types, e.Type)
	}
	want := []string{LogGameCreated, LogEventCreated, LogEventUpdated, LogEventDeleted}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("log types = %v, want %v", types, want)
	}

	last, err := s.ReadLog(ctx, ev.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 1 || last[0].Type != LogEventDeleted {
		t.Fatalf("limit should keep the newest entry, got %#v", last)
	}
}

func TestGameScope_DispatchRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	g := mustGame(t, s, "Final")
	scope := GameScope{Store: s, GameID: g.ID}

	out := interact.Dispatch(ctx, scope, interact.CreateEvent{Draft: model.EventDraft{Title: "Stinger", LaneID: "audio"}})
	if out.Err != nil || out.Event == nil {
		t.Fatalf("dispatch create: %#v", out)
	}
	out = interact.Dispatch(ctx, scope, interact.UpdateEvent{
		ID:    out.Event.ID,
		Patch: model.EventPatch{StartOffsetSeconds: model.Float64Ptr(600)},
	})
	if out.Err != nil || out.Event.StartOffsetSeconds != 600 {
		t.Fatalf("dispatch update: %#v", out)
	}
	evs, err := scope.Events(ctx)
	if err != nil || len(evs) != 1 || evs[0].StartOffsetSeconds != 600 {
		t.Fatalf("scope events = %#v, %v", evs, err)
	}
}

func TestViewState_SaveLoadApply(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	g := mustGame(t, s, "Final")

	if _, ok, err := s.LoadViewState(ctx, g.ID); err != nil || ok {
		t.Fatalf("expected no saved view, got ok=%v err=%v", ok, err)
	}

	v := timeline.DefaultViewport(1200, 600)
	v.Orientation = timeline.Vertical
	v.Interval = timeline.Interval15m
	v.Zoom.Level = 2
	v.Origin = 900
	if err := s.SaveViewState(ctx, g.ID, ViewStateOf(v)); err != nil {
		t.Fatalf("SaveViewState: %v", err)
	}

	vs, ok, err := s.LoadViewState(ctx, g.ID)
	if err != nil || !ok {
		t.Fatalf("LoadViewState: ok=%v err=%v", ok, err)
	}
	got := vs.Apply(timeline.DefaultViewport(800, 400))
	if got.Orientation != timeline.Vertical || got.Interval != timeline.Interval15m || got.Zoom.Level != 2 || got.Origin != 900 {
		t.Fatalf("unexpected applied view: %#v", got)
	}
	if got.Width != 800 || got.Height != 400 {
		t.Fatalf("Apply must keep the surface size, got %vx%v", got.Width, got.Height)
	}

	if err := s.SaveViewState(ctx, "game-missing", vs); err == nil {
		t.Fatalf("expected unknown game to be rejected")
	}
}

func TestExportImportAndBackup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	g := mustGame(t, s, "Final")
	for i, title := range []string{"Kickoff", "Acme read", "Halftime"} {
		if _, err := s.CreateEvent(ctx, g.ID, model.EventDraft{
			Title: title, LaneID: "game", StartOffsetSeconds: float64(i) * 600,
		}); err != nil {
			t.Fatal(err)
		}
	}

	ex, err := s.ExportGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("ExportGame: %v", err)
	}
	path := filepath.Join(t.TempDir(), "final.json")
	if err := WriteExport(path, ex); err != nil {
		t.Fatalf("WriteExport: %v", err)
	}
	read, err := ReadExport(path)
	if err != nil {
		t.Fatalf("ReadExport: %v", err)
	}

	dest := newTestStore(t)
	g2, err := dest.ImportGame(ctx, read)
	if err != nil {
		t.Fatalf("ImportGame: %v", err)
	}
	evs, err := dest.ListEvents(ctx, g2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 3 || evs[0].Title != "Kickoff" || evs[2].Title != "Halftime" || evs[2].StartOffsetSeconds != 1200 {
		t.Fatalf("unexpected imported events: %#v", evs)
	}
	if evs[0].ID == ex.Events[0].ID {
		t.Fatalf("import should assign fresh ids")
	}

	backup := filepath.Join(t.TempDir(), "snap", "cuesheet.sqlite")
	if err := s.Backup(ctx, backup); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	restored := Store{Dir: filepath.Dir(backup)}
	games, err := restored.ListGames(ctx)
	if err != nil || len(games) != 1 || games[0].ID != g.ID {
		t.Fatalf("backup contents = %#v, %v", games, err)
	}
	if err := s.Backup(ctx, backup); err == nil {
		t.Fatalf("expected backup to refuse an existing file")
	}
}

func TestUseGame_RemembersCurrentGame(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	if _, ok, err := s.CurrentGame(ctx); err != nil || ok {
		t.Fatalf("fresh store CurrentGame ok=%v err=%v", ok, err)
	}
	mustGame(t, s, "Hawks at Owls")
	b := mustGame(t, s, "Owls at Hawks")

	if _, err := s.UseGame(ctx, "owls at hawks"); err != nil {
		t.Fatalf("UseGame: %v", err)
	}
	got, ok, err := s.CurrentGame(ctx)
	if err != nil || !ok || got.ID != b.ID {
		t.Fatalf("CurrentGame = %#v ok=%v err=%v", got, ok, err)
	}

	var nf NotFoundError
	if _, err := s.UseGame(ctx, "nope"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// fixture is an isolated store and config path. Output goes to a buffer, so
// the default format resolves to JSON.
type fixture struct {
	dir string
	cfg string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	d := t.TempDir()
	return fixture{dir: filepath.Join(d, "store"), cfg: filepath.Join(d, "config.toml")}
}

func (f fixture) args(extra ...string) []string {
	return append([]string{"--dir", f.dir, "--config", f.cfg}, extra...)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Hints []string        `json:"_hints"`
}

func (f fixture) run(t *testing.T, args ...string) envelope {
	t.Helper()
	out, errOut, err := runCLI(t, f.args(args...))
	if err != nil {
		t.Fatalf("%v: %v\nstderr: %s", args, err, errOut)
	}
	var env envelope
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("%v: decode output: %v\n%s", args, err, out)
	}
	return env
}

func (f fixture) fail(t *testing.T, args ...string) string {
	t.Helper()
	_, errOut, err := runCLI(t, f.args(args...))
	if err == nil {
		t.Fatalf("%v: expected an error", args)
	}
	return string(errOut)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

type gameOut struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kickoff string `json:"kickoff"`
	Current bool   `json:"current"`
}

type eventOut struct {
	ID                 string  `json:"id"`
	GameID             string  `json:"gameId"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	LaneID             string  `json:"laneId"`
	StartOffsetSeconds float64 `json:"startOffsetSeconds"`
	DurationSeconds    float64 `json:"durationSeconds"`
	ElementType        string  `json:"elementType"`
	Sponsor            *string `json:"sponsor"`
	TemplateID         *string `json:"templateId"`
}

func TestGamesCreateUseList(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	hawks := decode[gameOut](t, f.run(t, "games", "create", "Hawks vs Owls", "--kickoff", "2026-10-17 19:00", "--use").Data)
	if hawks.Name != "Hawks vs Owls" || hawks.Kickoff != "2026-10-17 19:00" || !hawks.Current {
		t.Fatalf("created game = %+v", hawks)
	}

	env := f.run(t, "games", "create", "Bears vs Lions")
	bears := decode[gameOut](t, env.Data)
	if bears.Current {
		t.Fatalf("second game should not become current without --use")
	}
	if len(env.Hints) != 1 || !strings.Contains(env.Hints[0], "games use "+bears.ID) {
		t.Fatalf("hints = %#v", env.Hints)
	}

	games := decode[[]gameOut](t, f.run(t, "games", "list").Data)
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	for _, g := range games {
		if g.Current != (g.ID == hawks.ID) {
			t.Fatalf("current flag wrong for %+v", g)
		}
	}

	used := decode[gameOut](t, f.run(t, "games", "use", "bears vs lions").Data)
	if used.ID != bears.ID || !used.Current {
		t.Fatalf("use by name = %+v", used)
	}
	for _, g := range decode[[]gameOut](t, f.run(t, "games", "list").Data) {
		if g.Current != (g.ID == bears.ID) {
			t.Fatalf("after use, current flag wrong for %+v", g)
		}
	}

	if errOut := f.fail(t, "games", "use", "nope"); !strings.Contains(errOut, "game not found") {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestGameResolution(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if errOut := f.fail(t, "events", "list"); !strings.Contains(errOut, "no games yet") {
		t.Fatalf("stderr = %q", errOut)
	}

	// A single game is picked without `games use`.
	f.run(t, "games", "create", "Only Game")
	if evs := decode[[]eventOut](t, f.run(t, "events", "list").Data); len(evs) != 0 {
		t.Fatalf("expected no events, got %d", len(evs))
	}

	f.run(t, "games", "create", "Second Game")
	if errOut := f.fail(t, "events", "list"); !strings.Contains(errOut, "none selected") {
		t.Fatalf("stderr = %q", errOut)
	}
	f.run(t, "--game", "second game", "events", "list")
}

func TestEventsAddFromTemplateMoveRm(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.run(t, "games", "create", "Hawks vs Owls", "--use")

	errOut := f.fail(t, "events", "add", "--template", "Sponsor Read", "--start", "12:30")
	if !strings.Contains(errOut, "needs values for: sponsor, tagline") {
		t.Fatalf("stderr = %q", errOut)
	}

	ev := decode[eventOut](t, f.run(t, "events", "add",
		"--template", "sponsor read",
		"--start", "12:30",
		"--set", "sponsor=Acme",
		"--set", "tagline=Built to last.",
	).Data)
	if ev.LaneID != "sponsor-reads" || ev.StartOffsetSeconds != 750 || ev.DurationSeconds != 30 {
		t.Fatalf("event placement = %+v", ev)
	}
	if ev.Title != "Sponsor Read" || ev.ElementType != "Sponsor Read" || ev.TemplateID == nil {
		t.Fatalf("template not applied: %+v", ev)
	}
	if want := "This portion of the broadcast is brought to you by Acme. Built to last."; ev.Description != want {
		t.Fatalf("description = %q, want %q", ev.Description, want)
	}

	moved := decode[eventOut](t, f.run(t, "events", "move", ev.ID, "--start", "14:07", "--snap", "1").Data)
	if moved.StartOffsetSeconds != 840 || moved.LaneID != "sponsor-reads" {
		t.Fatalf("moved = %+v", moved)
	}
	moved = decode[eventOut](t, f.run(t, "events", "move", ev.ID, "--lane", "talent").Data)
	if moved.LaneID != "talent" || moved.StartOffsetSeconds != 840 {
		t.Fatalf("lane move = %+v", moved)
	}
	if errOut := f.fail(t, "events", "move", ev.ID); !strings.Contains(errOut, "nothing to change") {
		t.Fatalf("stderr = %q", errOut)
	}
	if errOut := f.fail(t, "events", "move", ev.ID, "--lane", "nowhere"); !strings.Contains(errOut, "unknown lane") {
		t.Fatalf("stderr = %q", errOut)
	}

	type shown struct {
		eventOut
		History []struct {
			Type string `json:"type"`
		} `json:"history"`
	}
	card := decode[shown](t, f.run(t, "events", "show", ev.ID).Data)
	if card.ID != ev.ID || len(card.History) != 3 {
		t.Fatalf("show = %+v", card)
	}
	if card.History[0].Type != "event.created" || card.History[2].Type != "event.updated" {
		t.Fatalf("history = %+v", card.History)
	}

	f.run(t, "events", "rm", ev.ID)
	if evs := decode[[]eventOut](t, f.run(t, "events", "list").Data); len(evs) != 0 {
		t.Fatalf("expected no events after rm, got %d", len(evs))
	}
	if errOut := f.fail(t, "events", "rm", ev.ID); !strings.Contains(errOut, "not found") {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestEventsAddByHand(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.run(t, "games", "create", "Hawks vs Owls", "--use")

	ev := decode[eventOut](t, f.run(t, "events", "add",
		"--title", "Player lower third",
		"--type", "Lower Third Graphic",
		"--start", "1:02:03",
		"--duration", "45",
	).Data)
	if ev.LaneID != "graphics" || ev.StartOffsetSeconds != 3723 || ev.DurationSeconds != 45 {
		t.Fatalf("event = %+v", ev)
	}

	ev = decode[eventOut](t, f.run(t, "events", "add", "--title", "Crowd mic", "--start", "90").Data)
	if ev.LaneID != "general" || ev.DurationSeconds != 60 {
		t.Fatalf("untyped event should land on the fallback lane with the default duration: %+v", ev)
	}

	if errOut := f.fail(t, "events", "add", "--start", "10"); !strings.Contains(errOut, "title") {
		t.Fatalf("stderr = %q", errOut)
	}
	if errOut := f.fail(t, "events", "add", "--title", "x", "--start", "-5"); !strings.Contains(errOut, "start") {
		t.Fatalf("stderr = %q", errOut)
	}

	evs := decode[[]eventOut](t, f.run(t, "events", "list", "--lane", "graphics").Data)
	if len(evs) != 1 || evs[0].Title != "Player lower third" {
		t.Fatalf("lane filter = %+v", evs)
	}
}

func TestTemplatesAddImportRm(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if n := decode[map[string]int](t, f.run(t, "templates", "seed").Data)["added"]; n == 0 {
		t.Fatalf("seed added nothing")
	}
	if n := decode[map[string]int](t, f.run(t, "templates", "seed").Data)["added"]; n != 0 {
		t.Fatalf("second seed added %d", n)
	}

	type tplOut struct {
		ID                     string  `json:"id"`
		Name                   string  `json:"name"`
		Type                   string  `json:"type"`
		DefaultDurationSeconds float64 `json:"defaultDurationSeconds"`
		SponsorName            string  `json:"sponsorName"`
	}
	added := decode[tplOut](t, f.run(t, "templates", "add",
		"--name", "Acme Read", "--type", "Sponsor Read", "--duration", "1m30s", "--sponsor", "Acme",
		"--text", "Brought to you by {sponsor}.").Data)
	if added.ID == "" || added.DefaultDurationSeconds != 90 || added.SponsorName != "Acme" {
		t.Fatalf("added = %+v", added)
	}

	lib := filepath.Join(t.TempDir(), "library.yaml")
	yaml := "templates:\n  - name: Injury Update\n    type: Talent\n    default_duration_minutes: 2\n    text: \"{player} is {status}.\"\n"
	if err := os.WriteFile(lib, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	imported := decode[[]tplOut](t, f.run(t, "templates", "import", lib).Data)
	if len(imported) != 1 || imported[0].Name != "Injury Update" || imported[0].DefaultDurationSeconds != 120 {
		t.Fatalf("imported = %+v", imported)
	}

	f.run(t, "templates", "rm", "acme read")
	for _, tpl := range decode[[]tplOut](t, f.run(t, "templates", "list").Data) {
		if tpl.Name == "Acme Read" {
			t.Fatalf("template still listed after rm")
		}
	}
}

func TestLanesListAndClassify(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	type laneOut struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	lanes := decode[[]laneOut](t, f.run(t, "lanes", "list").Data)
	if len(lanes) != 8 || lanes[0].ID != "game" || lanes[7].ID != "general" {
		t.Fatalf("lanes = %+v", lanes)
	}

	rulesEnv := f.run(t, "lanes", "rules")
	rules := decode[[]struct {
		Contains []string `json:"contains"`
		Lane     string   `json:"lane"`
	}](t, rulesEnv.Data)
	if len(rules) != 7 || rules[0].Lane != "sponsor-reads" || rules[0].Contains[0] != "sponsor" {
		t.Fatalf("rules = %+v", rules)
	}
	if len(rulesEnv.Hints) != 1 || rulesEnv.Hints[0] != "unmatched types land on general" {
		t.Fatalf("hints = %v", rulesEnv.Hints)
	}

	got := decode[[]classification](t, f.run(t, "lanes", "classify", "Sponsor Read", "PERMANENT marker", "Halftime Show").Data)
	want := []classification{
		{Type: "Sponsor Read", Lane: "sponsor-reads"},
		{Type: "PERMANENT marker", Lane: "permanent-markers"},
		{Type: "Halftime Show", Lane: "general"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("classify[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRenderTextAndSVG(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.run(t, "games", "create", "Hawks vs Owls", "--use")
	f.run(t, "events", "add", "--title", "Kickoff", "--type", "Game Event", "--start", "60", "--duration", "15m")

	out, errOut, err := runCLI(t, f.args("render", "--color", "never"))
	if err != nil {
		t.Fatalf("render: %v\n%s", err, errOut)
	}
	for _, want := range []string{"Kickoff", "Game Events", "Sponsor Reads"} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("text render missing %q:\n%s", want, out)
		}
	}

	svgPath := filepath.Join(t.TempDir(), "timeline.svg")
	if _, errOut, err := runCLI(t, f.args("render", "--format", "svg", "--out", svgPath)); err != nil {
		t.Fatalf("render svg: %v\n%s", err, errOut)
	}
	b, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "<svg ") || !strings.Contains(string(b), "Kickoff") {
		t.Fatalf("svg output:\n%s", b)
	}

	if _, _, err := runCLI(t, f.args("render", "--format", "png")); err == nil {
		t.Fatalf("expected unknown render format to fail")
	}
}

func TestExportImportBackupAndLog(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	game := decode[gameOut](t, f.run(t, "games", "create", "Hawks vs Owls", "--use").Data)
	ev := decode[eventOut](t, f.run(t, "events", "add", "--title", "Kickoff", "--type", "Game Event").Data)

	exportPath := filepath.Join(t.TempDir(), "game.json")
	f.run(t, "export", "--out", exportPath)

	other := newFixture(t)
	imported := decode[gameOut](t, other.run(t, "import", exportPath, "--use").Data)
	if imported.ID == game.ID || imported.Name != game.Name || !imported.Current {
		t.Fatalf("imported = %+v", imported)
	}
	evs := decode[[]eventOut](t, other.run(t, "events", "list").Data)
	if len(evs) != 1 || evs[0].Title != "Kickoff" || evs[0].ID == ev.ID {
		t.Fatalf("imported events = %+v", evs)
	}

	backup := filepath.Join(t.TempDir(), "backup.sqlite")
	f.run(t, "backup", backup)
	if _, err := os.Stat(backup); err != nil {
		t.Fatalf("backup missing: %v", err)
	}

	type logOut struct {
		Type     string `json:"type"`
		EntityID string `json:"entityId"`
	}
	entries := decode[[]logOut](t, f.run(t, "log").Data)
	var sawGame, sawEvent bool
	for _, e := range entries {
		sawGame = sawGame || (e.Type == "game.created" && e.EntityID == game.ID)
		sawEvent = sawEvent || (e.Type == "event.created" && e.EntityID == ev.ID)
	}
	if !sawGame || !sawEvent {
		t.Fatalf("log = %+v", entries)
	}
	if only := decode[[]logOut](t, f.run(t, "log", "--entity", ev.ID).Data); len(only) != 1 {
		t.Fatalf("entity filter = %+v", only)
	}
}

func TestTableFormat(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.run(t, "games", "create", "Hawks vs Owls", "--use")

	out, errOut, err := runCLI(t, f.args("--format", "table", "games", "list"))
	if err != nil {
		t.Fatalf("games list: %v\n%s", err, errOut)
	}
	for _, want := range []string{"NAME", "Hawks vs Owls", "*"} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}

	out, _, err = runCLI(t, f.args("--format", "edn", "lanes", "classify", "Audio sting"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), ":lane \"audio\"") {
		t.Fatalf("edn output:\n%s", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out, _, err := runCLI(t, f.args("config", "show"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), "# defaults") {
		t.Fatalf("show without a file:\n%s", out)
	}

	f.run(t, "config", "init")
	if _, err := os.Stat(f.cfg); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if errOut := f.fail(t, "config", "init"); !strings.Contains(errOut, "already exists") {
		t.Fatalf("stderr = %q", errOut)
	}

	out, _, err = runCLI(t, f.args("config", "show"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), "# loaded from "+f.cfg) || !strings.Contains(string(out), "fallback_lane") {
		t.Fatalf("show with a file:\n%s", out)
	}
}

func TestPublish(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	game := decode[gameOut](t, f.run(t, "games", "create", "Hawks vs Owls", "--use").Data)
	f.run(t, "events", "add", "--title", "Kickoff", "--type", "Game Event", "--start", "0")
	f.run(t, "events", "add", "--title", "Acme Read", "--type", "Sponsor Read", "--start", "12:30", "--duration", "30")

	to := t.TempDir()
	res := decode[struct {
		Written []string `json:"written"`
	}](t, f.run(t, "publish", "--to", to).Data)
	if len(res.Written) != 3 {
		t.Fatalf("written = %v", res.Written)
	}
	b, err := os.ReadFile(filepath.Join(to, game.ID, "rundown.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "# Hawks vs Owls") || !strings.Contains(string(b), "| 12:30 | 13:00 | 30s | Sponsor Reads | Acme Read |") {
		t.Fatalf("rundown:\n%s", b)
	}

	if errOut := f.fail(t, "publish", "--to", to); !strings.Contains(errOut, "--overwrite") {
		t.Fatalf("stderr = %q", errOut)
	}
	f.run(t, "publish", "--to", to, "--overwrite")
}

func TestDocs(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	topics := decode[[]struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}](t, f.run(t, "docs").Data)
	if len(topics) == 0 || topics[0].Name != "canvas" {
		t.Fatalf("topics = %+v", topics)
	}

	out, _, err := runCLI(t, f.args("docs", "lanes"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), "# Lanes") {
		t.Fatalf("docs lanes:\n%s", out)
	}
	if errOut := f.fail(t, "docs", "nope"); !strings.Contains(errOut, "unknown topic") {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestEventsAddFromUntypedTemplateUsesName(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.run(t, "games", "create", "Hawks vs Owls", "--use")
	f.run(t, "templates", "add", "--name", "Acme Sponsor Spot", "--duration", "20", "--sponsor", "Acme",
		"--text", "Brought to you by {sponsor}.")

	ev := decode[eventOut](t, f.run(t, "events", "add", "--template", "acme sponsor spot", "--start", "5:00").Data)
	if ev.LaneID != "sponsor-reads" || ev.DurationSeconds != 20 || ev.Description != "Brought to you by Acme." {
		t.Fatalf("event = %+v", ev)
	}
}

package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"cuesheet/internal/model"
	"cuesheet/internal/timeline"
)

type WriteOptions struct {
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteGame writes <toDir>/<game-id>/rundown.md plus one cue list per lane
// that has events under lanes/.
func WriteGame(g model.Game, events []model.TimelineEvent, lanes *timeline.LaneSet, toDir string, opt WriteOptions) (WriteResult, error) {
	if strings.TrimSpace(g.ID) == "" {
		return WriteResult{}, errors.New("missing game")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	if lanes == nil {
		lanes = timeline.DefaultLaneSet()
	}
	gameDir := filepath.Join(filepath.Clean(toDir), g.ID)
	lanesDir := filepath.Join(gameDir, "lanes")
	if err := os.MkdirAll(lanesDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	rundown := filepath.Join(gameDir, "rundown.md")
	if err := writeFile(rundown, []byte(RenderRundownMarkdown(g, events, lanes)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	written := []string{rundown}

	used := map[string]bool{}
	for _, ev := range events {
		used[lanes.Resolve(ev.LaneID).ID] = true
	}
	for _, lane := range lanes.Lanes() {
		if !used[lane.ID] {
			continue
		}
		p := filepath.Join(lanesDir, lane.ID+".md")
		if err := writeFile(p, []byte(RenderLaneMarkdown(g, lane, events, lanes)), opt.Overwrite); err != nil {
			return WriteResult{}, err
		}
		written = append(written, p)
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}

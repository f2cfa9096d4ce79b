package interact

import (
	"regexp"
	"strings"

	"cuesheet/internal/model"
	"cuesheet/internal/timeline"
)

var placeholderRE = regexp.MustCompile(`\{\s*([A-Za-z0-9_.-]+)\s*\}`)

const (
	TokenSponsor = "sponsor"
	TokenLane    = "lane"
	TokenTime    = "time"
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Placeholders returns the distinct {token} names in text, in first-seen order.
func Placeholders(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range placeholderRE.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Substitute replaces every {token} that has a value. Unknown tokens are left as-is.
func Substitute(text string, values map[string]string) string {
	return placeholderRE.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholderRE.FindStringSubmatch(m)[1]
		if v, ok := values[name]; ok {
			return strings.TrimSpace(v)
		}
		return m
	})
}

// contextValues are the tokens a drop resolves without asking.
func contextValues(tpl model.Template, lane timeline.Lane, offset float64) map[string]string {
	vals := map[string]string{
		TokenLane: lane.Name,
		TokenTime: timeline.FormatOffset(offset),
	}
	if s := strings.TrimSpace(tpl.SponsorName); s != "" {
		vals[TokenSponsor] = s
	}
	return vals
}

func merge(maps ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// TemplateLane classifies a template by its element type, or by its name when
// the type is blank.
func TemplateLane(lanes *timeline.LaneSet, tpl model.Template) string {
	key := tpl.Type
	if blank(key) {
		key = tpl.Name
	}
	return lanes.Classify(key)
}

// FromTemplate builds the event a drop of tpl at offset on lane would create,
// filling tokens from the drop context and then from values. missing lists
// the tokens still blank; the draft is only complete when it is empty.
func FromTemplate(tpl model.Template, lane timeline.Lane, offset float64, values map[string]string) (d model.EventDraft, missing []string) {
	vals := merge(contextValues(tpl, lane, offset), values)
	for _, tok := range Placeholders(tpl.Text) {
		if blank(vals[tok]) {
			missing = append(missing, tok)
		}
	}
	return draftFromTemplate(tpl, Substitute(tpl.Text, vals), offset, lane.ID), missing
}

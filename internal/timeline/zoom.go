package timeline

import (
	"fmt"
	"math"
	"strings"
)

type Interval int

const (
	Interval15s Interval = iota
	Interval30s
	Interval1m
	Interval5m
	Interval15m
	Interval30m
	Interval60m
)

var intervals = []struct {
	iv         Interval
	label      string
	seconds    float64
	multiplier float64
	aliases    []string
}{
	{Interval15s, "15s", 15, 4, nil},
	{Interval30s, "30s", 30, 2, nil},
	{Interval1m, "1", 60, 1, []string{"1m", "60s"}},
	{Interval5m, "5", 300, 0.8, []string{"5m"}},
	{Interval15m, "15", 900, 0.6, []string{"15m"}},
	{Interval30m, "30", 1800, 0.4, []string{"30m"}},
	{Interval60m, "60", 3600, 0.3, []string{"60m", "1h"}},
}

func Intervals() []Interval {
	out := make([]Interval, 0, len(intervals))
	for _, e := range intervals {
		out = append(out, e.iv)
	}
	return out
}

func ParseInterval(s string) (Interval, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range intervals {
		if s == e.label {
			return e.iv, nil
		}
		for _, a := range e.aliases {
			if s == a {
				return e.iv, nil
			}
		}
	}
	return Interval1m, fmt.Errorf("unknown interval %q (want one of 15s|30s|1|5|15|30|60)", s)
}

func (iv Interval) valid() bool { return iv >= Interval15s && iv <= Interval60m }

func (iv Interval) String() string {
	if !iv.valid() {
		return "1"
	}
	return intervals[iv].label
}

func (iv Interval) Label() string {
	if iv < Interval1m {
		return iv.String()
	}
	return iv.String() + "m"
}

// Seconds is the snapping unit.
func (iv Interval) Seconds() float64 {
	if !iv.valid() {
		return 60
	}
	return intervals[iv].seconds
}

// Multiplier is the density constant; finer intervals spread ticks further apart.
func (iv Interval) Multiplier() float64 {
	if !iv.valid() {
		return 1
	}
	return intervals[iv].multiplier
}

func (iv Interval) Next() Interval {
	if !iv.valid() || iv == Interval60m {
		return Interval15s
	}
	return iv + 1
}

func (iv Interval) Prev() Interval {
	if !iv.valid() || iv == Interval15s {
		return Interval60m
	}
	return iv - 1
}

func (iv Interval) MarshalText() ([]byte, error) { return []byte(iv.String()), nil }

func (iv *Interval) UnmarshalText(b []byte) error {
	v, err := ParseInterval(string(b))
	if err != nil {
		return err
	}
	*iv = v
	return nil
}

// RoundToInterval snaps t (seconds) to the nearest unit of iv; halves round up.
// Negative input snaps to 0.
func RoundToInterval(t float64, iv Interval) float64 {
	if t <= 0 || math.IsNaN(t) {
		return 0
	}
	unit := iv.Seconds()
	return math.Floor(t/unit+0.5) * unit
}

const (
	DefaultZoomStep = 1.2
	DefaultMinZoom  = 0.25
	DefaultMaxZoom  = 4.0
)

type Zoom struct {
	Level float64 `json:"level"`
	Step  float64 `json:"step"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func DefaultZoom() Zoom {
	return Zoom{Level: 1, Step: DefaultZoomStep, Min: DefaultMinZoom, Max: DefaultMaxZoom}
}

func (z Zoom) normalized() Zoom {
	if z.Step <= 1 {
		z.Step = DefaultZoomStep
	}
	if z.Min <= 0 {
		z.Min = DefaultMinZoom
	}
	if z.Max <= 0 {
		z.Max = DefaultMaxZoom
	}
	if z.Max < z.Min {
		z.Max = z.Min
	}
	return z
}

func (z Zoom) Clamp() Zoom {
	z = z.normalized()
	if z.Level <= 0 || math.IsNaN(z.Level) {
		z.Level = 1
	}
	z.Level = math.Min(z.Max, math.Max(z.Min, z.Level))
	return z
}

func (z Zoom) In() Zoom {
	z = z.Clamp()
	z.Level *= z.Step
	return z.Clamp()
}

func (z Zoom) Out() Zoom {
	z = z.Clamp()
	z.Level /= z.Step
	return z.Clamp()
}

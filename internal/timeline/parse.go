package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseOffset reads a game-clock position: plain seconds, MM:SS or H:MM:SS.
func ParseOffset(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty offset")
	}
	if !strings.Contains(s, ":") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("invalid offset %q (want seconds, MM:SS or H:MM:SS)", s)
		}
		if v < 0 {
			return 0, fmt.Errorf("offset %q is negative", s)
		}
		return v, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid offset %q (want MM:SS or H:MM:SS)", s)
	}
	var total float64
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid offset %q (want MM:SS or H:MM:SS)", s)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("invalid offset %q: field %d out of range", s, i+1)
		}
		total = total*60 + float64(n)
	}
	return total, nil
}

// ParseDuration reads a length as seconds, MM:SS, or a Go duration such as
// "2m30s".
func ParseDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if strings.ContainsAny(s, "hms") {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("duration %q must be positive", s)
		}
		return d.Seconds(), nil
	}
	v, err := ParseOffset(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (want seconds, MM:SS or 2m30s)", s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return v, nil
}

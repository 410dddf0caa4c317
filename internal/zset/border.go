package zset

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidBorder = errors.New("min or max is not a float")

// Border is one end of a score interval
type Border struct {
	Value     float64
	Exclusive bool
}

// ScoreRange is the interval [Min, Max] with optionally open ends
type ScoreRange struct {
	Min Border
	Max Border
}

// ParseBorder parses "1.5", "(1.5", "-inf", "+inf"
func ParseBorder(s string) (Border, error) {
	var b Border
	if strings.HasPrefix(s, "(") {
		b.Exclusive = true
		s = s[1:]
	}
	v, err := ParseScore(s)
	if err != nil {
		return Border{}, ErrInvalidBorder
	}
	b.Value = v
	return b, nil
}

// ParseScore parses a score, accepting inf spellings
func ParseScore(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "+inf", "inf", "infinity", "+infinity":
		return math.Inf(1), nil
	case "-inf", "-infinity":
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, errors.New("not a float")
	}
	return v, nil
}

// FormatScore renders a score the way clients expect to parse it back
func FormatScore(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (b Border) admitsAsMin(score float64) bool {
	if b.Exclusive {
		return score > b.Value
	}
	return score >= b.Value
}

func (b Border) admitsAsMax(score float64) bool {
	if b.Exclusive {
		return score < b.Value
	}
	return score <= b.Value
}

// Contains reports whether score lies inside r
func (r ScoreRange) Contains(score float64) bool {
	return r.Min.admitsAsMin(score) && r.Max.admitsAsMax(score)
}

func (r ScoreRange) empty() bool {
	if r.Min.Value > r.Max.Value {
		return true
	}
	return r.Min.Value == r.Max.Value && (r.Min.Exclusive || r.Max.Exclusive)
}

package classify

import (
	"math"
	"strings"

	"typequiz/internal/catalog"
	"typequiz/internal/responses"
)

// Reader is the read side of a response store.
type Reader interface {
	Get(id int) int
}

// AxisScore holds the raw accumulators for one axis.
type AxisScore struct {
	Score    int `json:"score"`
	MaxScore int `json:"max_score"`
}

// AxisResult is the resolved outcome of one axis.
type AxisResult struct {
	Axis        catalog.Axis `json:"axis"`
	Letter      string       `json:"letter"`
	Label       string       `json:"trait"`
	Percent     int          `json:"pct"`
	Score       int          `json:"score"`
	MaxScore    int          `json:"max_score"`
	LeftPercent float64      `json:"left_pct"`
}

// Positive reports whether the axis resolved to its positive pole.
func (r AxisResult) Positive() bool {
	info, ok := catalog.Info(r.Axis)
	return ok && r.Letter == info.Positive.Letter
}

// Result is the full classification: a type code such as "ENFJ-A" and the
// per-axis breakdown in type-code order.
type Result struct {
	Code string       `json:"type"`
	Axes []AxisResult `json:"axes"`
}

// Axis returns the breakdown for axis.
func (r Result) Axis(axis catalog.Axis) (AxisResult, bool) {
	for _, a := range r.Axes {
		if a.Axis == axis {
			return a, true
		}
	}
	return AxisResult{}, false
}

// BaseType returns the four letters before the hyphen.
func (r Result) BaseType() string {
	base, _, _ := strings.Cut(r.Code, "-")
	return base
}

// Scores accumulates score and max score per axis. Stored values are
// re-normalized; statements on unknown axes are skipped.
func Scores(store Reader, cat *catalog.Catalog) map[catalog.Axis]AxisScore {
	scores := make(map[catalog.Axis]AxisScore, len(catalog.Axes))
	for _, axis := range catalog.Axes {
		scores[axis] = AxisScore{}
	}
	for _, st := range cat.Statements() {
		acc, ok := scores[st.Axis]
		if !ok {
			continue
		}
		value := responses.Normalize(store.Get(st.ID))
		acc.Score += value * int(st.Weight)
		acc.MaxScore += responses.Max * st.Weight.Abs()
		scores[st.Axis] = acc
	}
	return scores
}

// Classify resolves every axis independently and builds the type code.
func Classify(store Reader, cat *catalog.Catalog) Result {
	scores := Scores(store, cat)

	var code strings.Builder
	axes := make([]AxisResult, 0, len(catalog.Axes))
	for i, axis := range catalog.Axes {
		info, _ := catalog.Info(axis)
		res := resolveAxis(info, scores[axis])
		if i == len(catalog.Axes)-1 {
			code.WriteByte('-')
		}
		code.WriteString(res.Letter)
		axes = append(axes, res)
	}
	return Result{Code: code.String(), Axes: axes}
}

func resolveAxis(info catalog.AxisInfo, acc AxisScore) AxisResult {
	res := AxisResult{
		Axis:     info.Axis,
		Score:    acc.Score,
		MaxScore: acc.MaxScore,
	}
	if acc.MaxScore == 0 {
		res.Letter = info.Positive.Letter
		res.Label = info.Positive.Label
		res.Percent = 0
		res.LeftPercent = 50
		return res
	}

	left := LeftPercent(acc.Score, acc.MaxScore)
	right := 100 - left
	res.LeftPercent = left

	switch {
	case left > right:
		res.Letter, res.Label = info.Positive.Letter, info.Positive.Label
		res.Percent = Round(left)
	case right > left:
		res.Letter, res.Label = info.Negative.Letter, info.Negative.Label
		res.Percent = Round(right)
	default:
		// left == 50 only when score == 0, so this always picks the positive pole.
		if acc.Score >= 0 {
			res.Letter, res.Label = info.Positive.Letter, info.Positive.Label
		} else {
			res.Letter, res.Label = info.Negative.Letter, info.Negative.Label
		}
		res.Percent = Round(left)
	}
	return res
}

// LeftPercent maps score in [-max, max] onto [0, 100] for the positive pole.
func LeftPercent(score, maxScore int) float64 {
	if maxScore <= 0 {
		return 50
	}
	pct := float64(score+maxScore) * 100 / float64(2*maxScore)
	if math.IsNaN(pct) {
		return 50
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Round rounds half away from zero.
func Round(x float64) int {
	return int(math.Round(x))
}

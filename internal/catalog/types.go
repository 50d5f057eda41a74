package catalog

import "fmt"

// Axis identifies one of the five bipolar dimensions.
type Axis string

const (
	AxisMind     Axis = "Mind"
	AxisEnergy   Axis = "Energy"
	AxisNature   Axis = "Nature"
	AxisTactics  Axis = "Tactics"
	AxisIdentity Axis = "Identity"
)

// Axes lists every axis in type-code order.
var Axes = []Axis{AxisMind, AxisEnergy, AxisNature, AxisTactics, AxisIdentity}

// Pole is one end of an axis.
type Pole struct {
	Letter string
	Label  string
}

// AxisInfo describes the two poles of an axis. The positive pole is the one
// a "strongly agree" answer to a weight +1 statement supports.
type AxisInfo struct {
	Axis     Axis
	Title    string
	Positive Pole
	Negative Pole
}

var axisInfo = map[Axis]AxisInfo{
	AxisMind: {
		Axis:     AxisMind,
		Title:    "Mind",
		Positive: Pole{Letter: "E", Label: "Extraverted"},
		Negative: Pole{Letter: "I", Label: "Introverted"},
	},
	AxisEnergy: {
		Axis:     AxisEnergy,
		Title:    "Energy",
		Positive: Pole{Letter: "N", Label: "Intuitive"},
		Negative: Pole{Letter: "S", Label: "Observant"},
	},
	AxisNature: {
		Axis:     AxisNature,
		Title:    "Nature",
		Positive: Pole{Letter: "F", Label: "Feeling"},
		Negative: Pole{Letter: "T", Label: "Thinking"},
	},
	AxisTactics: {
		Axis:     AxisTactics,
		Title:    "Tactics",
		Positive: Pole{Letter: "J", Label: "Judging"},
		Negative: Pole{Letter: "P", Label: "Prospecting"},
	},
	AxisIdentity: {
		Axis:     AxisIdentity,
		Title:    "Identity",
		Positive: Pole{Letter: "A", Label: "Assertive"},
		Negative: Pole{Letter: "T", Label: "Turbulent"},
	},
}

// Info returns the pole definitions for axis.
func Info(axis Axis) (AxisInfo, bool) {
	info, ok := axisInfo[axis]
	return info, ok
}

// ParseAxis matches an axis name exactly.
func ParseAxis(value string) (Axis, error) {
	for _, axis := range Axes {
		if string(axis) == value {
			return axis, nil
		}
	}
	return "", fmt.Errorf("unknown axis %q", value)
}

// Weight is the polarity of a statement: +1 or -1.
type Weight int

const (
	WeightPositive Weight = 1
	WeightNegative Weight = -1
)

// Abs returns |w|.
func (w Weight) Abs() int {
	if w < 0 {
		return int(-w)
	}
	return int(w)
}

// Statement is a single Likert item. ID equals its position in the catalog.
type Statement struct {
	ID     int    `json:"id" yaml:"id"`
	Text   string `json:"text" yaml:"text"`
	Axis   Axis   `json:"axis" yaml:"axis"`
	Weight Weight `json:"weight" yaml:"weight"`
}

package responses

import (
	"strconv"
	"strings"
)

const (
	// Min is "strongly disagree".
	Min = -3
	// Max is "strongly agree".
	Max = 3
	// Neutral is the default for unanswered and corrupted values.
	Neutral = 0
)

// Options lists the 7 points of the scale in UI order.
var Options = []int{-3, -2, -1, 0, 1, 2, 3}

var labels = map[int]string{
	-3: "strongly disagree",
	-2: "disagree",
	-1: "slightly disagree",
	0:  "neutral",
	1:  "slightly agree",
	2:  "agree",
	3:  "strongly agree",
}

// Label describes a scale point. Out-of-range values describe as neutral.
func Label(v int) string {
	return labels[Normalize(v)]
}

// Normalize maps any value outside [Min, Max] to Neutral.
func Normalize(v int) int {
	if v < Min || v > Max {
		return Neutral
	}
	return v
}

// NormalizeString parses untrusted text into a response value. Anything that
// is not an integer in range becomes Neutral.
func NormalizeString(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Neutral
	}
	return Normalize(v)
}

// Store maps every statement id in [0, size) to a response value.
// It has no "unanswered" state: ids default to Neutral.
type Store struct {
	values []int
}

// New returns a store covering ids 0..size-1, all Neutral.
func New(size int) *Store {
	if size < 0 {
		size = 0
	}
	return &Store{values: make([]int, size)}
}

// Len returns the size of the id space.
func (s *Store) Len() int {
	return len(s.values)
}

// Get returns the stored value, or Neutral for ids outside the store.
func (s *Store) Get(id int) int {
	if id < 0 || id >= len(s.values) {
		return Neutral
	}
	return s.values[id]
}

// Set normalizes v and stores it. Ids outside the store are ignored.
func (s *Store) Set(id int, v int) {
	if id < 0 || id >= len(s.values) {
		return
	}
	s.values[id] = Normalize(v)
}

// Reset replaces every value with Neutral.
func (s *Store) Reset() {
	s.values = make([]int, len(s.values))
}

// Values returns a copy of all values ordered by id.
func (s *Store) Values() []int {
	out := make([]int, len(s.values))
	copy(out, s.values)
	return out
}

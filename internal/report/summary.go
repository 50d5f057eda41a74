package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"typequiz/internal/catalog"
	"typequiz/internal/classify"
)

const barWidth = 20

// Respondent identifies who answered.
type Respondent struct {
	Name   string
	Gender string
}

// DisplayName returns the name or a placeholder when it is empty.
func (r Respondent) DisplayName() string {
	if strings.TrimSpace(r.Name) == "" {
		return "(not provided)"
	}
	return r.Name
}

// AxisLine renders one axis as "Mind  Extraverted (E) ######----  Introverted (I)  E 63%".
// The bar fills from the dominant side.
func AxisLine(a classify.AxisResult) string {
	info, _ := catalog.Info(a.Axis)
	filled := a.Percent * barWidth / 100
	var bar string
	if a.Positive() {
		bar = strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
	} else {
		bar = strings.Repeat("-", barWidth-filled) + strings.Repeat("#", filled)
	}
	return fmt.Sprintf("%-9s %s (%s) [%s] %s (%s)  %s %d%%",
		info.Title,
		info.Positive.Label, info.Positive.Letter,
		bar,
		info.Negative.Label, info.Negative.Letter,
		a.Label, a.Percent,
	)
}

// Summary renders the plain-text result used for terminal output and email.
func Summary(res classify.Result, who Respondent, profile Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Respondent: %s\n", who.DisplayName())
	fmt.Fprintf(&b, "Type:       %s (%s", res.Code, profile.Nickname)
	if profile.Role != "" {
		fmt.Fprintf(&b, ", %s", profile.Role)
	}
	b.WriteString(")\n")
	if who.Gender != "" {
		fmt.Fprintf(&b, "Gender:     %s\n", who.Gender)
	}
	b.WriteString("\n")
	for _, a := range res.Axes {
		b.WriteString(AxisLine(a))
		b.WriteString("\n")
	}
	return b.String()
}

type personaTrait struct {
	Trait  string `json:"trait"`
	Pct    int    `json:"pct"`
	Letter string `json:"letter"`
}

type persona struct {
	TargetPersona struct {
		Type   string                  `json:"mbti_type"`
		Gender string                  `json:"gender"`
		Traits map[string]personaTrait `json:"traits"`
	} `json:"target_persona"`
}

// PersonaJSON renders the result as a compact persona context document,
// suitable as structured input for a language model prompt.
func PersonaJSON(res classify.Result, gender string) (string, error) {
	var p persona
	p.TargetPersona.Type = res.Code
	p.TargetPersona.Gender = gender
	p.TargetPersona.Traits = make(map[string]personaTrait, len(res.Axes))
	for _, a := range res.Axes {
		p.TargetPersona.Traits[string(a.Axis)] = personaTrait{Trait: a.Label, Pct: a.Percent, Letter: a.Letter}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal persona: %w", err)
	}
	return string(data), nil
}

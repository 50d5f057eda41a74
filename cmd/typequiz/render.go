package main

import (
	"fmt"
	"io"
	"strings"

	"typequiz/internal/responses"
	"typequiz/internal/session"
)

func scaleLegend() string {
	parts := make([]string, 0, len(responses.Options))
	for _, v := range responses.Options {
		parts = append(parts, fmt.Sprintf("%+d %s", v, responses.Label(v)))
	}
	return "Scale: " + strings.Join(parts, ", ")
}

func renderPage(w io.Writer, sess *session.Session) {
	p := sess.Pager()
	page := p.Current()
	label := sess.Name
	if label == "" {
		label = "anonymous"
	}
	fmt.Fprintf(w, "Session %s (%s)\n", sess.ID, label)
	fmt.Fprintf(w, "Page %d/%d  %s %3.0f%%\n", page+1, p.TotalPages(), progressBar(p.Progress(), 20), p.Progress()*100)
	fmt.Fprintln(w, scaleLegend())
	fmt.Fprintln(w)
	for _, id := range p.PageIDs(page) {
		st, ok := sess.Catalog().Statement(id)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  Q%-3d [%+d] %s\n", id+1, p.Value(id), st.Text)
	}
	fmt.Fprintln(w)
	switch {
	case sess.Finished():
		fmt.Fprintf(w, "Submitted. Run: %s result\n", appName)
	case p.IsLast():
		fmt.Fprintf(w, "Last page. Answer with: %s submit Q=V...\n", appName)
	default:
		fmt.Fprintf(w, "Answer with: %s next Q=V... (or --values v1,v2,...)\n", appName)
	}
}

func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

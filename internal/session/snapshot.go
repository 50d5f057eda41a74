package session

import (
	"fmt"
	"time"

	"typequiz/internal/catalog"
	"typequiz/internal/pager"
	"typequiz/internal/responses"
)

// Snapshot is the persisted form of a session. Answers are raw values keyed by
// statement id and treated as untrusted on restore.
type Snapshot struct {
	ID                 string
	Name               string
	Gender             string
	PageSize           int
	CurrentPage        int
	Finished           bool
	Answers            map[int]int
	CatalogFingerprint string
	CatalogYAML        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Snapshot captures committed state. Pending edits are not included.
func (s *Session) Snapshot() Snapshot {
	answers := make(map[int]int, s.store.Len())
	for id, v := range s.store.Values() {
		answers[id] = v
	}
	return Snapshot{
		ID:                 s.ID,
		Name:               s.Name,
		Gender:             string(s.Gender),
		PageSize:           s.pager.PageSize(),
		CurrentPage:        s.pager.Current(),
		Finished:           s.pager.Finished(),
		Answers:            answers,
		CatalogFingerprint: s.catalog.Fingerprint(),
		CatalogYAML:        string(s.catalog.Canonical()),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// Restore rebuilds a session from snap against cat. Every answer is normalized
// and the page index is clamped; ids outside the catalog are ignored.
func Restore(cat *catalog.Catalog, snap Snapshot) (*Session, error) {
	if snap.CatalogFingerprint != "" && snap.CatalogFingerprint != cat.Fingerprint() {
		return nil, fmt.Errorf("restore session %s: %w", snap.ID, ErrCatalogMismatch)
	}
	if snap.ID == "" {
		return nil, fmt.Errorf("restore session: id is required")
	}

	store := responses.New(cat.Len())
	for id, v := range snap.Answers {
		store.Set(id, v)
	}
	ctl := pager.New(store, snap.PageSize)
	ctl.SetCurrent(snap.CurrentPage)
	ctl.SetFinished(snap.Finished)

	return &Session{
		ID:        snap.ID,
		Name:      snap.Name,
		Gender:    ParseGender(snap.Gender),
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
		catalog:   cat,
		store:     store,
		pager:     ctl,
		now:       time.Now,
	}, nil
}

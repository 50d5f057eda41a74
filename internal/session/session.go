package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"typequiz/internal/catalog"
	"typequiz/internal/classify"
	"typequiz/internal/pager"
	"typequiz/internal/responses"
)

var (
	// ErrNotFinished is returned by Finalize before the final page is submitted.
	ErrNotFinished = errors.New("session is not finished")
	// ErrCatalogMismatch is returned when a stored session was recorded
	// against a different catalog version.
	ErrCatalogMismatch = errors.New("session was recorded against a different catalog")
)

// Direction selects the navigation target.
type Direction string

const (
	Next     Direction = "next"
	Previous Direction = "previous"
)

// ParseDirection accepts next/previous and their short forms.
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "next", "n":
		return Next, nil
	case "previous", "prev", "p":
		return Previous, nil
	default:
		return "", fmt.Errorf("unknown direction %q", value)
	}
}

// Gender is optional respondent metadata carried into exports.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderUndisclosed Gender = "undisclosed"
)

// ParseGender maps free text onto a known gender, defaulting to undisclosed.
func ParseGender(value string) Gender {
	switch g := Gender(strings.ToLower(strings.TrimSpace(value))); g {
	case GenderMale, GenderFemale, GenderOther:
		return g
	default:
		return GenderUndisclosed
	}
}

// Options configures a new session.
type Options struct {
	PageSize int
	Name     string
	Gender   string
	Now      func() time.Time
}

// Session owns one response store and one pagination controller. It is not
// safe for concurrent use.
type Session struct {
	ID        string
	Name      string
	Gender    Gender
	CreatedAt time.Time
	UpdatedAt time.Time

	catalog *catalog.Catalog
	store   *responses.Store
	pager   *pager.Controller
	now     func() time.Time
}

// New initializes a fresh session: every answer neutral, page 0, not finished.
func New(cat *catalog.Catalog, opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	store := responses.New(cat.Len())
	ts := now().UTC()
	return &Session{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(opts.Name),
		Gender:    ParseGender(opts.Gender),
		CreatedAt: ts,
		UpdatedAt: ts,
		catalog:   cat,
		store:     store,
		pager:     pager.New(store, opts.PageSize),
		now:       now,
	}
}

// Catalog returns the catalog the session answers.
func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

// Responses exposes the store for export.
func (s *Session) Responses() *responses.Store {
	return s.store
}

// Pager exposes the controller for page rendering.
func (s *Session) Pager() *pager.Controller {
	return s.pager
}

// Finished reports whether the final page was submitted.
func (s *Session) Finished() bool {
	return s.pager.Finished()
}

// Page returns the current page index.
func (s *Session) Page() int {
	return s.pager.Current()
}

// Edit stages a value on the current page without committing.
func (s *Session) Edit(id, value int) bool {
	return s.pager.Edit(id, value)
}

// RecordPageInput commits input for page. Ids not on that page are dropped and
// counted.
func (s *Session) RecordPageInput(page int, values map[int]int) int {
	dropped := s.pager.CommitPage(page, values)
	s.touch()
	return dropped
}

// Navigate commits pending edits and moves in direction. Moving next from the
// last page leaves the index unchanged.
func (s *Session) Navigate(dir Direction) (int, error) {
	var page int
	switch dir {
	case Next:
		page, _ = s.pager.Advance()
	case Previous:
		page = s.pager.Retreat()
	default:
		return s.pager.Current(), fmt.Errorf("unknown direction %q", dir)
	}
	s.touch()
	return page, nil
}

// Submit commits the last page and marks the session finished.
func (s *Session) Submit() error {
	if err := s.pager.SubmitFinal(); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Finalize classifies the committed answers. It fails with ErrNotFinished
// until Submit has succeeded.
func (s *Session) Finalize() (classify.Result, error) {
	if !s.pager.Finished() {
		return classify.Result{}, ErrNotFinished
	}
	return classify.Classify(s.store, s.catalog), nil
}

// Reset discards every answer and returns to page 0.
func (s *Session) Reset() {
	s.pager.Restart()
	s.touch()
}

func (s *Session) touch() {
	s.UpdatedAt = s.now().UTC()
}

package sessionstore

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typequiz/internal/catalog"
	"typequiz/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "sessions.sqlite"))
	require.NoError(t, err, "open store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)
	cat := catalog.Default()

	s := session.New(cat, session.Options{PageSize: 6, Name: "Ada", Gender: "female"})
	s.RecordPageInput(0, map[int]int{0: 3, 4: -1})
	_, err := s.Navigate(session.Next)
	require.NoError(t, err)

	require.NoError(t, store.Save(s.Snapshot()))
	snap, err := store.Load(s.ID)
	require.NoError(t, err)

	assert.Equal(t, "Ada", snap.Name)
	assert.Equal(t, "female", snap.Gender)
	assert.Equal(t, 1, snap.CurrentPage)
	assert.Equal(t, 6, snap.PageSize)
	assert.Len(t, snap.Answers, 60)
	assert.Equal(t, 3, snap.Answers[0])
	assert.Equal(t, -1, snap.Answers[4])
	assert.Equal(t, cat.Fingerprint(), snap.CatalogFingerprint, "fingerprint persisted")

	restored, err := session.Restore(cat, snap)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Page())
	assert.Equal(t, 3, restored.Responses().Get(0))
}

func TestSaveIsLastWriteWins(t *testing.T) {
	store := openTestStore(t)
	s := session.New(catalog.Default(), session.Options{PageSize: 6})

	first := s.Snapshot()
	first.Answers[0] = 2
	second := s.Snapshot()
	second.Answers[0] = -2

	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))
	snap, err := store.Load(s.ID)
	require.NoError(t, err)
	assert.Equal(t, -2, snap.Answers[0])
}

func TestLoadMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCorruptAnswersDecodeNeutral(t *testing.T) {
	store := openTestStore(t)
	s := session.New(catalog.Default(), session.Options{PageSize: 6})
	require.NoError(t, store.Save(s.Snapshot()))

	db, err := sql.Open("sqlite", store.DBPath)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`UPDATE sessions SET answers_json = ? WHERE id = ?`,
		`{"0": 9, "1": "-2", "2": 1.5, "3": null, "x": 3, "4": -3}`, s.ID)
	require.NoError(t, err)

	snap, err := store.Load(s.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 0, 1: -2, 2: 0, 3: 0, 4: -3}, snap.Answers)

	_, err = db.Exec(`UPDATE sessions SET answers_json = 'not json' WHERE id = ?`, s.ID)
	require.NoError(t, err)
	snap, err = store.Load(s.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.Answers, "garbage answers decode empty")
}

func TestDeleteAndList(t *testing.T) {
	store := openTestStore(t)
	cat := catalog.Default()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		s := session.New(cat, session.Options{Now: func() time.Time { return ts }})
		require.NoError(t, store.Save(s.Snapshot()))
		ids = append(ids, s.ID)
	}

	list, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID, "newest first")

	require.NoError(t, store.Delete(ids[2]))
	require.NoError(t, store.Delete("unknown"), "deleting an unknown id is not an error")

	list, err = store.List(1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[1], list[0].ID)
}

func TestKV(t *testing.T) {
	store := openTestStore(t)
	value, err := store.GetKV(KeyLastSession)
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.SetKV(KeyLastSession, "abc"))
	require.NoError(t, store.SetKV(KeyLastSession, "def"))
	value, err = store.GetKV(KeyLastSession)
	require.NoError(t, err)
	assert.Equal(t, "def", value)
}

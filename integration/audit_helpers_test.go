package integration_test

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func loadAuditTypes(t *testing.T, dbPath string) map[string]int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err, "open audit db")
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.Query("SELECT type, COUNT(*) FROM events GROUP BY type")
	require.NoError(t, err, "query audit events")
	defer func() {
		_ = rows.Close()
	}()

	types := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		require.NoError(t, rows.Scan(&eventType, &count), "scan audit event")
		types[eventType] = count
	}
	require.NoError(t, rows.Err(), "iterate audit events")
	return types
}

func requireAuditEvents(t *testing.T, dbPath string, want []string) {
	t.Helper()
	types := loadAuditTypes(t, dbPath)
	for _, eventType := range want {
		require.NotZero(t, types[eventType], "missing audit event %s in %s", eventType, dbPath)
	}
}

// lastAuditPayload returns the payload of the most recent event of eventType.
func lastAuditPayload(t *testing.T, dbPath, eventType string) map[string]any {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err, "open audit db")
	defer func() {
		_ = db.Close()
	}()

	var raw string
	err = db.QueryRow("SELECT payload_json FROM events WHERE type = ? ORDER BY id DESC LIMIT 1", eventType).Scan(&raw)
	require.NoError(t, err, "query %s payload", eventType)

	payload := make(map[string]any)
	require.NoError(t, json.Unmarshal([]byte(raw), &payload), "decode %s payload", eventType)
	return payload
}

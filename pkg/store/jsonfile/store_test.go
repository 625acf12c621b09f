package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestStore_ReadsAllCollections(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "ma.json", `[
		{"id": "E1", "kanndiabetes": 1, "kannpflege": 0, "zeitlicheeinschraenkung-uhrzeit": "14:30:00"},
		{"id": "E2"}
	]`)
	writeFixture(t, dir, "klient.json", `[
		{"id": "C1", "hatdiabetes": 1, "schule": {"id": "S1"},
		 "aktuellerstundenplan": {"freitagvon": "08:00:00", "freitagbis": "13:00:00"}}
	]`)
	writeFixture(t, dir, "dist_ma_sch.json", `[
		{"mitarbeiterin": {"id": "E1"}, "schule": {"id": "S1"}, "einfachdistanzluft": 4200.5}
	]`)
	writeFixture(t, dir, "vertretungsfall_all.json", `[
		{"id": "V1", "typ": "mabw", "startdatum": "2026-09-01", "enddatum": "2026-09-30",
		 "mavertretend": {"id": "E1"}, "klientzubegleiten": {"id": "C1"}}
	]`)
	writeFixture(t, dir, "experience_log.json", `[
		{"ma": "E1", "client_experience": {"C1": ["2026-08-01"]}, "school_experience": {}}
	]`)

	store := NewStore(dir)
	ctx := context.Background()

	employees, err := store.Employees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "E1", employees[0].ID)
	assert.Equal(t, 1, employees[0].CanDiabetes)
	require.NotNil(t, employees[0].TimeRestriction)
	assert.Equal(t, "14:30:00", *employees[0].TimeRestriction)
	assert.Nil(t, employees[1].TimeRestriction)

	clients, err := store.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	require.NotNil(t, clients[0].School)
	assert.Equal(t, "S1", clients[0].School.ID)
	require.Contains(t, clients[0].Timetable, "freitagvon")

	distances, err := store.Distances(ctx)
	require.NoError(t, err)
	require.Len(t, distances, 1)
	require.NotNil(t, distances[0].StraightLineMeters)
	assert.InDelta(t, 4200.5, *distances[0].StraightLineMeters, 1e-9)

	substitutions, err := store.Substitutions(ctx)
	require.NoError(t, err)
	require.Len(t, substitutions, 1)
	assert.Equal(t, "mabw", substitutions[0].Type)
	require.NotNil(t, substitutions[0].ClientToCover)
	assert.Equal(t, "C1", substitutions[0].ClientToCover.ID)

	experience, err := store.ExperienceLog(ctx)
	require.NoError(t, err)
	require.Len(t, experience, 1)
	assert.Equal(t, []string{"2026-08-01"}, experience[0].ClientSessions["C1"])
}

func TestStore_MissingFileFails(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Employees(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ma.json")
}

func TestStore_MalformedJSONFails(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "klient.json", `{not json`)

	_, err := NewStore(dir).Clients(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gobd/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(ts time.Time) models.Snapshot {
	snap := models.NewSnapshot([]string{"RPM", "SPEED", "MAF"})
	snap.Timestamp = ts
	snap.Readings["RPM"] = models.Reading{Value: 750, OK: true}
	snap.Readings["SPEED"] = models.Reading{Value: 62.5, OK: true}
	// MAF stays not-OK: the vehicle did not answer.
	return snap
}

func TestWriteCSV(t *testing.T) {
	ts := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testSnapshot(ts)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,RPM,SPEED,MAF", lines[0])
	assert.Equal(t, "2026-08-24T15:30:00Z,750,62.5,", lines[1])
}

func TestAppendCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.csv")
	ts := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)

	require.NoError(t, AppendCSV(path, testSnapshot(ts)))
	require.NoError(t, AppendCSV(path, testSnapshot(ts.Add(time.Second))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "header must be written only once")
	assert.Equal(t, "timestamp,RPM,SPEED,MAF", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2026-08-24T15:30:00Z,"))
	assert.True(t, strings.HasPrefix(lines[2], "2026-08-24T15:30:01Z,"))
}

func TestWriteSessionCSV(t *testing.T) {
	ts := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)

	first := models.NewSnapshot([]string{"RPM", "SPEED"})
	first.Timestamp = ts
	first.Readings["RPM"] = models.Reading{Value: 800, OK: true}
	first.Readings["SPEED"] = models.Reading{Value: 0, OK: true}

	second := models.NewSnapshot([]string{"RPM", "COOLANT_TEMP"})
	second.Timestamp = ts.Add(time.Second)
	second.Readings["RPM"] = models.Reading{Value: 820, OK: true}
	second.Readings["COOLANT_TEMP"] = models.Reading{Value: 88, OK: true}

	var buf bytes.Buffer
	require.NoError(t, WriteSessionCSV(&buf, []models.Snapshot{first, second}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	// Columns in first-seen order across the session.
	assert.Equal(t, "timestamp,RPM,SPEED,COOLANT_TEMP", lines[0])
	assert.Equal(t, "2026-08-24T15:30:00Z,800,0,", lines[1])
	assert.Equal(t, "2026-08-24T15:30:01Z,820,,88", lines[2])
}

func TestWriteSessionCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteSessionCSV(&buf, nil))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]float64{"RPM": 750}))

	var got map[string]float64
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 750.0, got["RPM"])
	assert.Contains(t, buf.String(), "\n  ", "output should be indented")
}

func TestDefaultFilename(t *testing.T) {
	name := DefaultFilename("csv")
	assert.True(t, strings.HasPrefix(name, "obd_export_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
}

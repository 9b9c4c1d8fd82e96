package logbook

import (
	"path/filepath"
	"testing"
	"time"

	"gobd/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLogbook(t *testing.T) *Logbook {
	t.Helper()
	lb, err := Open(filepath.Join(t.TempDir(), "logbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { lb.Close() })
	return lb
}

func TestRecordSnapshotSkipsMissingValues(t *testing.T) {
	lb := openTestLogbook(t)

	snap := models.NewSnapshot([]string{"RPM", "MAF"})
	snap.Timestamp = time.Now()
	snap.Readings["RPM"] = models.Reading{Value: 750, OK: true}
	// MAF not-OK: must not be recorded.

	require.NoError(t, lb.RecordSnapshot(snap))

	rpm, err := lb.Recent("RPM", 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{750}, rpm)

	maf, err := lb.Recent("MAF", 10)
	require.NoError(t, err)
	assert.Empty(t, maf)
}

func TestRecentNewestFirst(t *testing.T) {
	lb := openTestLogbook(t)
	base := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)

	for i, v := range []float64{800, 900, 1000} {
		snap := models.NewSnapshot([]string{"RPM"})
		snap.Timestamp = base.Add(time.Duration(i) * time.Second)
		snap.Readings["RPM"] = models.Reading{Value: v, OK: true}
		require.NoError(t, lb.RecordSnapshot(snap))
	}

	values, err := lb.Recent("RPM", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 900}, values)
}

func TestRecordDTCs(t *testing.T) {
	lb := openTestLogbook(t)

	err := lb.RecordDTCs(time.Now(), []models.DTCEntry{
		{Code: "P0420", Description: "Catalyst System Efficiency Below Threshold"},
		{Code: "P0301", Description: "Cylinder 1 Misfire Detected"},
	}, false)
	require.NoError(t, err)

	var count int
	require.NoError(t, lb.db.QueryRow(`SELECT COUNT(*) FROM dtc_events WHERE pending = false`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logbook.db")

	lb, err := Open(path)
	require.NoError(t, err)
	snap := models.NewSnapshot([]string{"SPEED"})
	snap.Timestamp = time.Now()
	snap.Readings["SPEED"] = models.Reading{Value: 42, OK: true}
	require.NoError(t, lb.RecordSnapshot(snap))
	require.NoError(t, lb.Close())

	// Reopening must keep the existing rows.
	lb, err = Open(path)
	require.NoError(t, err)
	defer lb.Close()

	values, err := lb.Recent("SPEED", 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{42}, values)
}

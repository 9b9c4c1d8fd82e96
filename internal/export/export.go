// Package export writes snapshots and session logs to CSV and JSON.
// Column order follows the snapshot's key order, which the registry keeps
// stable.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gobd/internal/models"
)

// DefaultFilename returns a timestamped export file name, e.g.
// "obd_export_20260824_153000.csv".
func DefaultFilename(ext string) string {
	return fmt.Sprintf("obd_export_%s.%s", time.Now().Format("20060102_150405"), ext)
}

func row(snap models.Snapshot) []string {
	out := make([]string, 0, len(snap.Keys)+1)
	out = append(out, snap.Timestamp.Format(time.RFC3339))
	for _, key := range snap.Keys {
		r := snap.Readings[key]
		if !r.OK {
			out = append(out, "")
			continue
		}
		out = append(out, strconv.FormatFloat(r.Value, 'f', -1, 64))
	}
	return out
}

func header(keys []string) []string {
	return append([]string{"timestamp"}, keys...)
}

// WriteCSV writes one snapshot with a header row.
func WriteCSV(w io.Writer, snap models.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(snap.Keys)); err != nil {
		return err
	}
	if err := cw.Write(row(snap)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// AppendCSV appends one snapshot row to path, writing the header first when
// the file is new.
func AppendCSV(path string, snap models.Snapshot) error {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if isNew {
		if err := cw.Write(header(snap.Keys)); err != nil {
			return err
		}
	}
	if err := cw.Write(row(snap)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteSessionCSV writes a full session log. The column set is the union of
// the snapshots' keys in first-seen order.
func WriteSessionCSV(w io.Writer, snaps []models.Snapshot) error {
	if len(snaps) == 0 {
		return fmt.Errorf("no data to export")
	}

	var keys []string
	seen := make(map[string]bool)
	for _, snap := range snaps {
		for _, key := range snap.Keys {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header(keys)); err != nil {
		return err
	}
	for _, snap := range snaps {
		out := []string{snap.Timestamp.Format(time.RFC3339)}
		for _, key := range keys {
			r, ok := snap.Readings[key]
			if !ok || !r.OK {
				out = append(out, "")
				continue
			}
			out = append(out, strconv.FormatFloat(r.Value, 'f', -1, 64))
		}
		if err := cw.Write(out); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Package web serves the JSON API used by the browser dashboard.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gobd/internal/export"
	"gobd/internal/models"
	"gobd/internal/obd"
	"gobd/pkg/log"

	"go.uber.org/zap"
)

type sensorJSON struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
	Error string   `json:"error,omitempty"`
}

type statusJSON struct {
	Connected bool   `json:"connected"`
	Port      string `json:"port"`
	Mode      string `json:"mode"`
}

// Server exposes sensor data, trouble codes and raw command access over
// HTTP. In demo mode no hardware is touched and a simulated feed answers
// instead.
type Server struct {
	conn   obd.Connector
	reader *obd.Reader
	writer *obd.Writer
	demo   *demoFeed

	// StreamInterval is the delay between SSE pushes.
	StreamInterval time.Duration
}

// NewServer builds a server over live OBD objects. When demo is true conn,
// reader and writer may be nil.
func NewServer(conn obd.Connector, reader *obd.Reader, writer *obd.Writer, demo bool) *Server {
	s := &Server{
		conn:           conn,
		reader:         reader,
		writer:         writer,
		StreamInterval: 2 * time.Second,
	}
	if demo || reader == nil {
		s.demo = &demoFeed{}
	}
	return s
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/sensors", s.handleSensors)
	mux.HandleFunc("GET /api/dtc", s.handleDTC)
	mux.HandleFunc("POST /api/dtc/clear", s.handleDTCClear)
	mux.HandleFunc("POST /api/command", s.handleCommand)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	return mux
}

// ListenAndServe runs the server on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	log.Info("web dashboard listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sensors() map[string]sensorJSON {
	if s.demo != nil {
		return s.demo.sensors()
	}

	snap, err := s.reader.ReadAll()
	if err != nil {
		return map[string]sensorJSON{"error": {Error: err.Error()}}
	}
	out := make(map[string]sensorJSON, len(snap.Keys))
	for _, key := range snap.Keys {
		d, err := obd.Lookup(key)
		if err != nil {
			continue
		}
		r := snap.Readings[key]
		entry := sensorJSON{Unit: d.Unit}
		if r.OK {
			v := r.Value
			entry.Value = &v
		} else {
			entry.Error = "no data"
		}
		out[key] = entry
	}
	return out
}

func (s *Server) status() statusJSON {
	if s.demo != nil {
		return statusJSON{Connected: true, Port: "DEMO", Mode: "demo"}
	}
	return statusJSON{
		Connected: s.conn.Connected(),
		Port:      s.conn.Port(),
		Mode:      "live",
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sensors": s.sensors()})
}

func (s *Server) handleDTC(w http.ResponseWriter, r *http.Request) {
	if s.demo != nil {
		writeJSON(w, http.StatusOK, map[string]any{"codes": []models.DTCEntry{}})
		return
	}
	codes := s.reader.ReadDTCs()
	if codes == nil {
		codes = []models.DTCEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"codes": codes})
}

func (s *Server) handleDTCClear(w http.ResponseWriter, r *http.Request) {
	if s.demo != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "demo": true})
		return
	}
	if err := s.writer.ClearDTCs(); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Command == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"response": "", "error": "no command provided"})
		return
	}
	if s.demo != nil {
		writeJSON(w, http.StatusOK, map[string]any{"response": fmt.Sprintf("DEMO> %s\r\nOK", body.Command)})
		return
	}
	resp, err := s.writer.SendRaw(body.Command)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"response": "", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": resp})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sensors := s.sensors()
	snap := models.NewSnapshot(nil)
	for _, key := range obd.ScanKeys() {
		entry, ok := sensors[key]
		if !ok {
			continue
		}
		snap.Keys = append(snap.Keys, key)
		if entry.Value != nil {
			snap.Readings[key] = models.Reading{Value: *entry.Value, OK: true}
		}
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", export.DefaultFilename("csv")))
	if err := export.WriteCSV(w, snap); err != nil {
		log.Error("CSV export failed", zap.Error(err))
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	ticker := time.NewTicker(s.StreamInterval)
	defer ticker.Stop()

	for {
		payload, err := json.Marshal(map[string]any{
			"sensors":   s.sensors(),
			"status":    s.status(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

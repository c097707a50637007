package scan

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type startScanRequest struct {
	Repos []string `json:"repos"`
}

type startScanResponse struct {
	ScanID string `json:"scan_id"`
	Status Status `json:"status"`
}

// RegisterRoutes mounts the scan API on the given router.
func RegisterRoutes(r chi.Router, runner *Runner, store *Store, log *zap.SugaredLogger) {
	r.Post("/api/scans", func(w http.ResponseWriter, req *http.Request) {
		var body startScanRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		scan, err := runner.Start(req.Context(), body.Repos)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		runner.Launch(scan.ID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(startScanResponse{ScanID: scan.ID, Status: scan.Status})
	})

	r.Get("/api/scans/{id}", func(w http.ResponseWriter, req *http.Request) {
		scan, err := store.GetScan(req.Context(), chi.URLParam(req, "id"))
		if err == sql.ErrNoRows {
			http.Error(w, "scan not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(scan)
	})

	r.Get("/api/scans/{id}/events", func(w http.ResponseWriter, req *http.Request) {
		scanID := chi.URLParam(req, "id")
		scan, err := store.GetScan(req.Context(), scanID)
		if err == sql.ErrNoRows {
			http.Error(w, "scan not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.Warnw("websocket upgrade failed", "scan_id", scanID, "error", err)
			return
		}
		defer conn.Close()

		events, cancel := runner.Notifier().Subscribe(scanID)
		defer cancel()

		// Current status first, so late subscribers see where the scan is.
		first := Event{ScanID: scanID, Type: EventStatus, Status: scan.Status, Message: scan.Error}
		if err := conn.WriteJSON(first); err != nil {
			return
		}
		if scan.Status == StatusSuccess || scan.Status == StatusError {
			return
		}

		// Drain reads so we notice the client going away.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case ev := <-events:
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
				if ev.Type == EventStatus && (ev.Status == StatusSuccess || ev.Status == StatusError) {
					return
				}
			}
		}
	})
}

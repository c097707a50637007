package query

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type askRequest struct {
	Question string `json:"question"`
}

// RegisterRoutes mounts the ask endpoint.
func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Post("/api/ask", func(w http.ResponseWriter, req *http.Request) {
		var body askRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if body.Question == "" {
			http.Error(w, "question is required", http.StatusBadRequest)
			return
		}

		res, err := engine.Ask(req.Context(), body.Question)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	})
}

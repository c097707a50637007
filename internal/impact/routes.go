package impact

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/meshmap/internal/graph"
)

type errorRequest struct {
	Service string `json:"service,omitempty"`
	Log     string `json:"log,omitempty"`
}

type whatIfRequest struct {
	Repo     string `json:"repo"`
	FilePath string `json:"file_path"`
}

// RegisterRoutes mounts the impact API. Analysis failures come back as a
// result with an error field, not an HTTP-level failure, so clients can
// always render something.
func RegisterRoutes(r chi.Router, analyzer *Analyzer) {
	r.Post("/api/impact/error", func(w http.ResponseWriter, req *http.Request) {
		var body errorRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if body.Service == "" && body.Log == "" {
			http.Error(w, "service or log is required", http.StatusBadRequest)
			return
		}

		var (
			res *Result
			err error
		)
		if body.Service != "" {
			res, err = analyzer.AnalyzeService(req.Context(), body.Service)
		} else {
			res, err = analyzer.AnalyzeLog(req.Context(), body.Log)
		}
		if err != nil {
			res = &Result{Error: err.Error()}
		}
		writeResult(w, res)
	})

	r.Post("/api/impact/whatif", func(w http.ResponseWriter, req *http.Request) {
		var body whatIfRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if body.FilePath == "" {
			http.Error(w, "file_path is required", http.StatusBadRequest)
			return
		}

		res, err := analyzer.SimulateChange(req.Context(), body.Repo, body.FilePath)
		if err != nil {
			res = &Result{Error: err.Error()}
		}
		writeResult(w, res)
	})
}

func writeResult(w http.ResponseWriter, res *Result) {
	if res.Direct == nil {
		res.Direct = []Dependent{}
	}
	if res.Cascade == nil {
		res.Cascade = []CascadeDependent{}
	}
	if res.Edges == nil {
		res.Edges = []graph.Interaction{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

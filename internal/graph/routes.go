package graph

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts graph read endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/graph", getGraphHandler(store))
	r.Get("/api/repos", listReposHandler(store))
	r.Get("/api/services", listServicesHandler(store))
	r.Get("/api/services/{id}/interactions", serviceInteractionsHandler(store))
	r.Get("/api/topics", listTopicsHandler(store))
}

// graphResponse is the full node/edge dump used by graph renderers.
type graphResponse struct {
	Services     []Service     `json:"services"`
	Interactions []Interaction `json:"interactions"`
}

func getGraphHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := store.ListServices(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		interactions, err := store.ListInteractions(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if services == nil {
			services = []Service{}
		}
		if interactions == nil {
			interactions = []Interaction{}
		}
		writeJSON(w, http.StatusOK, graphResponse{Services: services, Interactions: interactions})
	}
}

func listReposHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repos, err := store.ListRepositories(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if repos == nil {
			repos = []Repository{}
		}
		writeJSON(w, http.StatusOK, repos)
	}
}

func listServicesHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		var (
			result []Service
			err    error
		)
		if q != "" {
			result, err = store.SearchServicesByName(r.Context(), q)
		} else {
			result, err = store.ListServices(r.Context())
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if result == nil {
			result = []Service{}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func serviceInteractionsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := store.GetService(r.Context(), id); err != nil {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		interactions, err := store.InteractionsForService(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if interactions == nil {
			interactions = []Interaction{}
		}
		writeJSON(w, http.StatusOK, interactions)
	}
}

func listTopicsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topics, err := store.DistinctTopics(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if topics == nil {
			topics = []string{}
		}
		writeJSON(w, http.StatusOK, topics)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package impact

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/meshmap/internal/graph"
)

func setupImpactRouter(t *testing.T) (chi.Router, *graph.Store) {
	t.Helper()
	analyzer, graphs := setupAnalyzer(t)
	r := chi.NewRouter()
	RegisterRoutes(r, analyzer)
	return r, graphs
}

func postJSON(t *testing.T, r chi.Router, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestImpactErrorEndpointByService(t *testing.T) {
	r, graphs := setupImpactRouter(t)
	buildShopGraph(t, graphs)

	w := postJSON(t, r, "/api/impact/error", `{"service":"checkout"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var res Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if res.Seed == nil || res.Seed.Name != "checkout" {
		t.Errorf("seed = %+v", res.Seed)
	}
	if len(res.Direct) == 0 {
		t.Error("no direct dependents")
	}
}

func TestImpactErrorEndpointRequiresInput(t *testing.T) {
	r, _ := setupImpactRouter(t)

	w := postJSON(t, r, "/api/impact/error", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	w = postJSON(t, r, "/api/impact/error", `garbage`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestImpactErrorEndpointEmptyCollectionsNotNull(t *testing.T) {
	r, graphs := setupImpactRouter(t)
	buildShopGraph(t, graphs)

	w := postJSON(t, r, "/api/impact/error", `{"service":"no-such-service"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	body := w.Body.String()
	for _, field := range []string{`"direct":[]`, `"cascade":[]`, `"edges":[]`} {
		if !strings.Contains(body, field) {
			t.Errorf("body missing %s: %s", field, body)
		}
	}
}

func TestImpactWhatIfEndpoint(t *testing.T) {
	r, graphs := setupImpactRouter(t)
	buildShopGraph(t, graphs)

	w := postJSON(t, r, "/api/impact/whatif", `{"repo":"org/shop","file_path":"services/checkout/app.py"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if res.Seed == nil || res.Seed.Name != "checkout" {
		t.Errorf("seed = %+v", res.Seed)
	}
}

func TestImpactWhatIfEndpointRequiresFilePath(t *testing.T) {
	r, _ := setupImpactRouter(t)

	w := postJSON(t, r, "/api/impact/whatif", `{"repo":"org/shop"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

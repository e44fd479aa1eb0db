package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/VineMe-App/vineme2.0-sub005/cluster"
	"github.com/VineMe-App/vineme2.0-sub005/registry"
)

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, err := registry.New(t.TempDir(), 4, cluster.Options{})
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	s := &Server{
		registry:  reg,
		monitor:   cluster.NewMonitor(),
		viewports: make(map[string]*cluster.Viewport),
	}
	return s, s.routes()
}

func loadRequestBody(t *testing.T, n int) []byte {
	t.Helper()
	entities := make([]entityPayload, n)
	for i := range entities {
		entities[i] = entityPayload{
			ID:       fmt.Sprintf("group-%d", i+1),
			Category: "service",
			Location: map[string]any{"lat": 30.0 + float64(i)*0.01, "lng": -100.0},
		}
	}
	body, err := json.Marshal(map[string]any{"entities": entities})
	if err != nil {
		t.Fatalf("Failed to marshal load request: %v", err)
	}
	return body
}

func TestConcurrentLoadAndSaveSnapshot(t *testing.T) {
	s, r := newTestServer(t)

	id, _ := s.registry.Create(nil)
	body := loadRequestBody(t, 50)

	// Loads mutate the engine's point set while saves read it; both go
	// through the server mutex, so the race detector must stay quiet.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/engines/"+id+"/groups", bytes.NewReader(body))
			r.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("Expected load to succeed, got %d", w.Code)
			}
		}()
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/engines/"+id+"/save", nil)
			r.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("Expected save to succeed, got %d", w.Code)
			}
		}()
	}
	wg.Wait()
}

func TestViewportDebounceSurvivesDefaultEngineCreation(t *testing.T) {
	_, r := newTestServer(t)

	vp, err := json.Marshal(cluster.Viewport{Lat: 37.77, Lng: -122.41, LatDelta: 0.5, LngDelta: 0.5})
	if err != nil {
		t.Fatalf("Failed to marshal viewport: %v", err)
	}

	postViewport := func() (bool, int) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/groups/viewport", bytes.NewReader(vp))
		r.ServeHTTP(w, req)

		var resp struct {
			Skipped bool `json:"skipped"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode viewport response: %v", err)
		}
		return resp.Skipped, w.Code
	}

	// The first request creates the default engine as a side effect; its
	// debounce state must still apply to the identical second request.
	skipped, code := postViewport()
	if code != http.StatusOK {
		t.Fatalf("Expected first viewport query to succeed, got %d", code)
	}
	if skipped {
		t.Error("Expected the first viewport query to run")
	}

	skipped, code = postViewport()
	if code != http.StatusOK {
		t.Fatalf("Expected second viewport query to succeed, got %d", code)
	}
	if !skipped {
		t.Error("Expected an identical repeat viewport to be skipped")
	}
}

package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/papyri/bookvec/pkg/embeddings/ollama"
	"github.com/papyri/bookvec/pkg/vector"
)

func TestEmbedReturnsFirstEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req["model"] != "nomic-embed-text" {
			t.Errorf("unexpected model %q", req["model"])
		}
		if req["input"] != "hello" {
			t.Errorf("unexpected input %q", req["input"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float64{{0.1, 0.2, 0.3}},
		})
	}))
	defer srv.Close()

	e := ollama.New(ollama.Config{BaseURL: srv.URL})
	defer e.Close()

	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Fatalf("unexpected embedding %v", vec)
	}
}

func TestEmbedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := ollama.New(ollama.Config{BaseURL: srv.URL})
	defer e.Close()

	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, vector.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestEmbedEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float64{}})
	}))
	defer srv.Close()

	e := ollama.New(ollama.Config{BaseURL: srv.URL})
	defer e.Close()

	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, vector.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

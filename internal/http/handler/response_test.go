package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaekwang-park/homework-api/internal/http/handler"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	handler.WriteJSON(w, http.StatusCreated, map[string]int{"total": 3})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var result map[string]int
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["total"] != 3 {
		t.Errorf("expected total=3, got %d", result["total"])
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	handler.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "title is required")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var result handler.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Error.Code != "VALIDATION_ERROR" || result.Error.Message != "title is required" {
		t.Errorf("unexpected error body: %+v", result.Error)
	}
}

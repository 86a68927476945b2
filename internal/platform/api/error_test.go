package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBadRequest_Envelope(t *testing.T) {
	rr := httptest.NewRecorder()
	BadRequest(rr, "IDS_NOT_VALID", "ids are not valid", "rid-1", map[string]any{"ids": []string{"x"}})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "IDS_NOT_VALID" || body.Error.RequestID != "rid-1" {
		t.Fatalf("unexpected envelope: %+v", body.Error)
	}
	if body.Error.Details["ids"] == nil {
		t.Fatal("expected details to be encoded")
	}
}

func TestInternal_HidesCause(t *testing.T) {
	rr := httptest.NewRecorder()
	Internal(rr, "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body ErrorResponse
	_ = json.NewDecoder(rr.Body).Decode(&body)
	if body.Error.Code != "INTERNAL" {
		t.Fatalf("expected INTERNAL, got %q", body.Error.Code)
	}
}

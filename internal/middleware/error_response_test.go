package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kyohei/playnote/internal/model"
)

func TestWriteErrorResponse_EncodesUnifiedFormat(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteErrorResponse(rec, http.StatusConflict, model.NewEmailTakenError())

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeEmailTaken {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeEmailTaken)
	}
	if body.Category != "auth" {
		t.Errorf("category = %q, want auth", body.Category)
	}
	if body.Message == "" || body.Action == "" {
		t.Error("message and action should not be empty")
	}
}

func TestStatusForError_MapsCodesToStatuses(t *testing.T) {
	tests := []struct {
		name   string
		apiErr *model.APIError
		want   int
	}{
		{"auth failed", model.NewAuthFailedError(), http.StatusUnauthorized},
		{"unauthorized", model.NewUnauthorizedError(), http.StatusUnauthorized},
		{"email taken", model.NewEmailTakenError(), http.StatusConflict},
		{"empty field", model.NewEmptyFieldError(), http.StatusBadRequest},
		{"invalid request", model.NewInvalidRequestError(), http.StatusBadRequest},
		{"entry not found", model.NewEntryNotFoundError(1), http.StatusNotFound},
		{"not author", model.NewNotEntryAuthorError(1), http.StatusForbidden},
		{"profile write", model.NewProfileWriteError(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusForError(tt.apiErr); got != tt.want {
				t.Errorf("StatusForError(%s) = %d, want %d", tt.apiErr.Code, got, tt.want)
			}
		})
	}
}

func TestWriteAPIError_DerivesStatusFromCode(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteAPIError(rec, model.NewNotEntryAuthorError(5))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestWriteInternalServerError_HidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteInternalServerError(rec)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
	if body.Category != "system" {
		t.Errorf("category = %q, want system", body.Category)
	}
}

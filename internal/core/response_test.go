package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ecorisk/internal/types"
)

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body APIErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error
}

func TestJSON_WritesStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, map[string]string{"status": "ok"})

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestJSON_UnmarshalableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]any{"ch": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if detail := decodeErrorBody(t, rec); detail.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("expected internal code, got %q", detail.Code)
	}
}

func TestError_AppError(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/predict", nil)
	r = r.WithContext(types.WithRequestID(r.Context(), "req-42"))
	rec := httptest.NewRecorder()

	err := types.NewAppErrorWithDetails(types.ErrCodeValidationFailed, "Please fix the following errors:\nLatitude is required",
		nil, map[string]any{"errors": []string{"Latitude is required"}})
	Error(rec, r, err)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	detail := decodeErrorBody(t, rec)
	if detail.Code != "validation_failed" {
		t.Errorf("expected validation_failed, got %q", detail.Code)
	}
	if detail.RequestID != "req-42" {
		t.Errorf("expected request id req-42, got %q", detail.RequestID)
	}
	if _, ok := detail.Details["errors"]; !ok {
		t.Errorf("expected errors in details, got %v", detail.Details)
	}
}

func TestError_WrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	inner := types.NewAppError(types.ErrCodeUpstreamUnavailable, "prediction service unavailable", nil)
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.Join(errors.New("predict"), inner))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rec.Code)
	}
}

func TestError_PlainErrorIsHidden(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("dial tcp 10.0.0.5:5000: refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	detail := decodeErrorBody(t, rec)
	if strings.Contains(detail.Message, "10.0.0.5") {
		t.Errorf("internal error leaked: %q", detail.Message)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Latitude *float64 `json:"latitude"`
		Soil     string   `json:"soil_type"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"latitude": 12.5, "soil_type": "Clay"}`},
		{name: "trailing whitespace", body: "{\"latitude\": 1}\n  "},
		{name: "empty body", body: "", wantErr: "request body must not be empty"},
		{name: "malformed", body: `{"latitude": }`, wantErr: "malformed JSON in request body"},
		{name: "wrong type", body: `{"latitude": "north"}`, wantErr: "invalid value for field latitude"},
		{name: "unknown field", body: `{"altitude": 3}`, wantErr: `unknown field in request body: "altitude"`},
		{name: "two objects", body: `{"latitude": 1}{"latitude": 2}`, wantErr: "request body must contain a single JSON object"},
		{name: "too large", body: `{"soil_type": "` + strings.Repeat("x", maxRequestBodySize) + `"}`, wantErr: "request body is too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(tt.body))
			var dst payload
			err := DecodeJSON(httptest.NewRecorder(), r, &dst)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected *types.AppError, got %T (%v)", err, err)
			}
			if appErr.Code != types.ErrCodeValidationInvalidJSON {
				t.Errorf("expected %s, got %s", types.ErrCodeValidationInvalidJSON, appErr.Code)
			}
			if appErr.Message != tt.wantErr {
				t.Errorf("expected message %q, got %q", tt.wantErr, appErr.Message)
			}
		})
	}
}

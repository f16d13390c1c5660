package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/memory"
)

func newTestMux() *http.ServeMux {
	service := domain.NewService(memory.NewRepository(), domain.NoopPublisher{})
	handler := NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func createUser(t *testing.T, mux *http.ServeMux, username string) UserView {
	t.Helper()
	rr := doJSON(t, mux, http.MethodPost, "/api/users", `{"username":"`+username+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var view UserView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return view
}

func TestCreateUserReturnsIDAndUsername(t *testing.T) {
	mux := newTestMux()

	view := createUser(t, mux, "fcc_test")

	if view.UserID == "" {
		t.Fatal("expected a generated id")
	}
	if view.Username != "fcc_test" {
		t.Fatalf("unexpected username %q", view.Username)
	}
}

func TestCreateUserMissingUsername(t *testing.T) {
	mux := newTestMux()

	rr := doJSON(t, mux, http.MethodPost, "/api/users", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("expected an error message")
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	mux := newTestMux()

	createUser(t, mux, "fcc_test")
	rr := doJSON(t, mux, http.MethodPost, "/api/users", `{"username":"fcc_test"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestListUsersIncludesCreatedUser(t *testing.T) {
	mux := newTestMux()

	created := createUser(t, mux, "fcc_test")

	rr := doJSON(t, mux, http.MethodGet, "/api/users", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var views []UserView
	if err := json.Unmarshal(rr.Body.Bytes(), &views); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	matches := 0
	for _, view := range views {
		if view.Username == "fcc_test" && view.UserID == created.UserID {
			matches++
		}
	}
	if matches != 1 {
		t.Fatalf("expected exactly one matching entry, got %d", matches)
	}
}

func TestAddExerciseRendersCalendarDate(t *testing.T) {
	mux := newTestMux()
	created := createUser(t, mux, "fcc_test")

	rr := doJSON(t, mux, http.MethodPost, "/api/users/"+created.UserID+"/exercises",
		`{"description":"run","duration":"30","date":"2023-01-15"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var view ExerciseView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.UserID != created.UserID || view.Username != "fcc_test" {
		t.Fatalf("unexpected owner %q %q", view.UserID, view.Username)
	}
	if view.Description != "run" || view.Duration != 30 {
		t.Fatalf("unexpected exercise %+v", view)
	}
	if view.Date != "Sun Jan 15 2023" {
		t.Fatalf("unexpected date rendering %q", view.Date)
	}
}

func TestAddExerciseAcceptsNumericDuration(t *testing.T) {
	mux := newTestMux()
	created := createUser(t, mux, "fcc_test")

	rr := doJSON(t, mux, http.MethodPost, "/api/users/"+created.UserID+"/exercises",
		`{"description":"swim","duration":45}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var view ExerciseView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.Duration != 45 {
		t.Fatalf("expected duration 45 got %d", view.Duration)
	}
}

func TestAddExerciseUnknownUser(t *testing.T) {
	mux := newTestMux()

	rr := doJSON(t, mux, http.MethodPost, "/api/users/no-such-id/exercises",
		`{"description":"run","duration":"30"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestAddExerciseRejectsBadDuration(t *testing.T) {
	mux := newTestMux()
	created := createUser(t, mux, "fcc_test")

	rr := doJSON(t, mux, http.MethodPost, "/api/users/"+created.UserID+"/exercises",
		`{"description":"run","duration":"thirty"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestLogsUnknownUser(t *testing.T) {
	mux := newTestMux()

	rr := doJSON(t, mux, http.MethodGet, "/api/users/no-such-id/logs", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestLogsFilterAndCount(t *testing.T) {
	mux := newTestMux()
	created := createUser(t, mux, "fcc_test")

	for _, date := range []string{"2023-01-01", "2023-02-01"} {
		rr := doJSON(t, mux, http.MethodPost, "/api/users/"+created.UserID+"/exercises",
			`{"description":"run","duration":"30","date":"`+date+`"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("append failed with %d: %s", rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, mux, http.MethodGet, "/api/users/"+created.UserID+"/logs?from=2023-01-15", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var view LogView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.Count != 1 {
		t.Fatalf("expected count 1 got %d", view.Count)
	}
	if len(view.Log) != view.Count {
		t.Fatalf("count %d does not match log length %d", view.Count, len(view.Log))
	}
	if view.Log[0].Date != "Wed Feb 01 2023" {
		t.Fatalf("unexpected entry date %q", view.Log[0].Date)
	}
}

func TestLogsLimitKeepsInsertionOrder(t *testing.T) {
	mux := newTestMux()
	created := createUser(t, mux, "fcc_test")

	dates := []string{"2023-01-01", "2023-01-02", "2023-01-03", "2023-01-04", "2023-01-05"}
	for _, date := range dates {
		doJSON(t, mux, http.MethodPost, "/api/users/"+created.UserID+"/exercises",
			`{"description":"run","duration":"30","date":"`+date+`"}`)
	}

	rr := doJSON(t, mux, http.MethodGet, "/api/users/"+created.UserID+"/logs?limit=2", "")
	var view LogView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.Count != 2 {
		t.Fatalf("expected count 2 got %d", view.Count)
	}
	if view.Log[0].Date != "Sun Jan 01 2023" || view.Log[1].Date != "Mon Jan 02 2023" {
		t.Fatalf("unexpected order: %+v", view.Log)
	}
}

func TestLogsIgnoreUnparseableFrom(t *testing.T) {
	mux := newTestMux()
	created := createUser(t, mux, "fcc_test")

	for _, date := range []string{"2023-01-01", "2023-02-01"} {
		doJSON(t, mux, http.MethodPost, "/api/users/"+created.UserID+"/exercises",
			`{"description":"run","duration":"30","date":"`+date+`"}`)
	}

	rr := doJSON(t, mux, http.MethodGet, "/api/users/"+created.UserID+"/logs?from=not-a-date", "")
	var view LogView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.Count != 2 {
		t.Fatalf("expected full unfiltered log, got count %d", view.Count)
	}
}

func TestUnknownSubresource(t *testing.T) {
	mux := newTestMux()
	created := createUser(t, mux, "fcc_test")

	rr := doJSON(t, mux, http.MethodDelete, "/api/users/"+created.UserID+"/exercises", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

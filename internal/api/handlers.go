// Package api exposes the HTTP surface of the exercise tracker.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/observability"
)

// calendarLayout renders dates as human-readable calendar strings, e.g.
// "Sun Jan 15 2023". Responses never carry raw timestamps.
const calendarLayout = "Mon Jan 02 2006"

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/users", h.users)
	mux.HandleFunc("/api/users/", h.userSubresource)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createUser(w, r)
	case http.MethodGet:
		h.listUsers(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

func (h *Handler) userSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	id := parts[0]

	switch {
	case parts[1] == "exercises" && r.Method == http.MethodPost:
		h.addExercise(w, r, id)
	case parts[1] == "logs" && r.Method == http.MethodGet:
		h.getLogs(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "unknown resource")
	}
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	ref, err := h.service.CreateUser(r.Context(), req.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserView(*ref))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	refs, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]UserView, 0, len(refs))
	for _, ref := range refs {
		views = append(views, toUserView(ref))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) addExercise(w http.ResponseWriter, r *http.Request, id string) {
	var req AddExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	logged, err := h.service.AddExercise(r.Context(), id, req.Description, string(req.Duration), string(req.Date))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ExerciseView{
		UserID:      logged.UserID,
		Username:    logged.Username,
		Description: logged.Description,
		Duration:    logged.DurationMin,
		Date:        logged.Date.UTC().Format(calendarLayout),
	})
}

func (h *Handler) getLogs(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	params := r.URL.Query()
	query := domain.LogQuery{
		From:  params.Get("from"),
		To:    params.Get("to"),
		Limit: params.Get("limit"),
	}

	result := domain.BuildLog(user, query)
	observability.RecordLogQuery(query.From != "" || query.To != "")

	view := LogView{
		UserID:   result.UserID,
		Username: result.Username,
		Count:    result.Count,
		Log:      make([]LogEntryView, 0, len(result.Entries)),
	}
	for _, entry := range result.Entries {
		view.Log = append(view.Log, LogEntryView{
			Description: entry.Description,
			Duration:    entry.DurationMin,
			Date:        entry.Date.UTC().Format(calendarLayout),
		})
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateUserRequest is the payload for POST /api/users.
type CreateUserRequest struct {
	Username string `json:"username"`
}

// AddExerciseRequest is the payload for POST /api/users/{id}/exercises.
// Duration and date tolerate both JSON strings and bare numbers, matching
// clients that post form-shaped values.
type AddExerciseRequest struct {
	Description string     `json:"description"`
	Duration    looseValue `json:"duration"`
	Date        looseValue `json:"date"`
}

// looseValue captures a JSON string or scalar as raw text.
type looseValue string

func (v *looseValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = looseValue(s)
		return nil
	}
	*v = looseValue(data)
	return nil
}

// UserView is the minimal user projection on the wire. The id travels as
// "_id"; existing clients depend on that field name.
type UserView struct {
	UserID   string `json:"_id"`
	Username string `json:"username"`
}

// ExerciseView merges a logged exercise with its owner's identity.
type ExerciseView struct {
	UserID      string `json:"_id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogEntryView is one formatted log line.
type LogEntryView struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogView packages the filtered, bounded log.
type LogView struct {
	UserID   string         `json:"_id"`
	Username string         `json:"username"`
	Count    int            `json:"count"`
	Log      []LogEntryView `json:"log"`
}

func toUserView(ref domain.UserRef) UserView {
	return UserView{UserID: ref.ID, Username: ref.Username}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadRequest, "request failed")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

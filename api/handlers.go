/*
handlers.go - HTTP API handlers for the credential tracking system

PURPOSE:
  Exposes the tracker services via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Credentials:
    GET    /api/credentials             List (filter/sort via query params)
    POST   /api/credentials             Create credential
    GET    /api/credentials/{id}        Get credential with links
    PUT    /api/credentials/{id}        Update credential
    DELETE /api/credentials/{id}        Delete credential (cascades links)
    POST   /api/credentials/{id}/submissions/bulk  Bulk-submit links

  Activities:
    GET    /api/activities              List activities with links
    POST   /api/activities              Log activity + allocations
    GET    /api/activities/{id}         Get activity with links
    PUT    /api/activities/{id}         Edit (full link-set replacement)
    DELETE /api/activities/{id}         Delete (recalculates aggregates)

  Links:
    PUT    /api/links/{id}/submission   Submit or recall one link

REQUEST FLOW:
  1. Resolve the caller from the X-User-ID header (middleware)
  2. Decode and delegate to the tracker service
  3. Map domain errors onto HTTP statuses
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (with per-field detail)
  - 403: Referencing another user's credential in an allocation
  - 404: Resource not found (includes foreign records, no leak)
  - 409: Duplicate client-assigned activity ID
  - 429: Rate limit exceeded
  - 500: Internal errors

SECURITY NOTE:
  The X-User-ID header is trusted as-is; an authenticating reverse proxy
  is expected to set it in production.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - tracker: The services these handlers delegate to
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/credtrack/cpd-engine/engine"
	"github.com/credtrack/cpd-engine/tracker"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *tracker.Service
}

// NewHandler creates a new handler over the given service.
func NewHandler(service *tracker.Service) *Handler {
	return &Handler{Service: service}
}

// =============================================================================
// CREDENTIAL HANDLERS
// =============================================================================

// ListCredentials returns the caller's credentials, filtered and ordered.
// GET /api/credentials?filter=active&sort=urgency
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	filter := engine.ParseFilter(r.URL.Query().Get("filter"))
	mode := engine.ParseSortMode(r.URL.Query().Get("sort"))

	views, err := h.Service.ListCredentials(r.Context(), callerID(r), filter, mode)
	if err != nil {
		writeDomainError(w, "Failed to list credentials", err)
		return
	}

	dtos := make([]CredentialDTO, len(views))
	for i, v := range views {
		dtos[i] = toCredentialDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCredential creates a new credential.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var form tracker.CredentialForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	view, err := h.Service.CreateCredential(r.Context(), callerID(r), form)
	if err != nil {
		writeDomainError(w, "Failed to create credential", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCredentialDTO(*view))
}

// GetCredential returns one credential with derived metrics and links.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	id := engine.CredentialID(chi.URLParam(r, "id"))

	view, links, err := h.Service.GetCredential(r.Context(), callerID(r), id)
	if err != nil {
		writeDomainError(w, "Failed to get credential", err)
		return
	}
	writeJSON(w, http.StatusOK, CredentialDetailDTO{
		CredentialDTO: toCredentialDTO(*view),
		Links:         toLinkDTOs(links),
	})
}

// UpdateCredential replaces a credential's own fields. The earned-hours
// aggregate is carried over untouched.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	id := engine.CredentialID(chi.URLParam(r, "id"))

	var form tracker.CredentialForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	view, err := h.Service.UpdateCredential(r.Context(), callerID(r), id, form)
	if err != nil {
		writeDomainError(w, "Failed to update credential", err)
		return
	}
	writeJSON(w, http.StatusOK, toCredentialDTO(*view))
}

// DeleteCredential removes a credential and its links.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	id := engine.CredentialID(chi.URLParam(r, "id"))

	if err := h.Service.DeleteCredential(r.Context(), callerID(r), id); err != nil {
		writeDomainError(w, "Failed to delete credential", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkSubmit marks every unsubmitted link under a credential submitted
// with one shared date.
// POST /api/credentials/{id}/submissions/bulk
func (h *Handler) BulkSubmit(w http.ResponseWriter, r *http.Request) {
	id := engine.CredentialID(chi.URLParam(r, "id"))

	var req BulkSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.Service.BulkSubmit(r.Context(), callerID(r), id, req.SubmittedDate)
	if err != nil {
		writeDomainError(w, "Failed to bulk-submit", err)
		return
	}
	writeJSON(w, http.StatusOK, BulkSubmitResponse{Updated: updated})
}

// =============================================================================
// ACTIVITY HANDLERS
// =============================================================================

// ListActivities returns the caller's activities with their links.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	details, err := h.Service.ListActivities(r.Context(), callerID(r))
	if err != nil {
		writeDomainError(w, "Failed to list activities", err)
		return
	}

	dtos := make([]ActivityDTO, len(details))
	for i, d := range details {
		dtos[i] = toActivityDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LogActivity stores a new activity with its credential allocations.
func (h *Handler) LogActivity(w http.ResponseWriter, r *http.Request) {
	var form tracker.ActivityForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	detail, err := h.Service.LogActivity(r.Context(), callerID(r), form)
	if err != nil {
		writeDomainError(w, "Failed to log activity", err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityDTO(*detail))
}

// GetActivity returns one activity with its links.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	id := engine.ActivityID(chi.URLParam(r, "id"))

	detail, err := h.Service.GetActivity(r.Context(), callerID(r), id)
	if err != nil {
		writeDomainError(w, "Failed to get activity", err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(*detail))
}

// UpdateActivity edits an activity, replacing its link set atomically.
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	id := engine.ActivityID(chi.URLParam(r, "id"))

	var form tracker.ActivityForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	detail, err := h.Service.UpdateActivity(r.Context(), callerID(r), id, form)
	if err != nil {
		writeDomainError(w, "Failed to update activity", err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(*detail))
}

// DeleteActivity removes an activity and recalculates every credential
// it had funded.
func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id := engine.ActivityID(chi.URLParam(r, "id"))

	if err := h.Service.DeleteActivity(r.Context(), callerID(r), id); err != nil {
		writeDomainError(w, "Failed to delete activity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LINK HANDLERS
// =============================================================================

// SetSubmission submits or recalls one credential-activity link.
// PUT /api/links/{id}/submission
func (h *Handler) SetSubmission(w http.ResponseWriter, r *http.Request) {
	id := engine.LinkID(chi.URLParam(r, "id"))

	var form tracker.SubmissionForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	link, err := h.Service.SetSubmission(r.Context(), callerID(r), id, form)
	if err != nil {
		writeDomainError(w, "Failed to update submission", err)
		return
	}
	writeJSON(w, http.StatusOK, toLinkDTO(*link))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a tracker/engine error onto an HTTP status.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var verrs engine.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "Validation failed",
			Fields: verrs,
		})
	case errors.Is(err, engine.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, engine.ErrDuplicateActivityID),
		errors.Is(err, engine.ErrDuplicateLink):
		writeError(w, http.StatusConflict, "Conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

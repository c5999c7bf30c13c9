package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	middleware "github.com/pharmaciedusoleil/portal/internal/api/middlewares"
	objectclient "github.com/pharmaciedusoleil/portal/internal/core/object-client"
	"github.com/pharmaciedusoleil/portal/internal/core/prescriptions"
	"github.com/pharmaciedusoleil/portal/internal/core/reminders"
	"github.com/pharmaciedusoleil/portal/internal/services"
)

var errNoVisitor = errors.New("visitor not identified")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("could not encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reminders.ErrNotFound),
		errors.Is(err, prescriptions.ErrNotFound),
		errors.Is(err, objectclient.ErrObjectNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrPageNotFound),
		errors.Is(err, services.ErrUnknownTab):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reminders.ErrNotPending),
		errors.Is(err, prescriptions.ErrNotApproved),
		errors.Is(err, services.ErrOutOfStock):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, reminders.ErrInvalidReminder):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errNoVisitor):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		logrus.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

const maxJSONBody = 64 << 10

// decodeJSON reads a bounded JSON body into v. On failure it writes the
// error response and reports false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

// workspace resolves the caller's workspace from the visitor id.
func workspace(ws *services.WorkspaceService, r *http.Request) (*services.Workspace, error) {
	visitorID, ok := middleware.VisitorID(r.Context())
	if !ok {
		return nil, errNoVisitor
	}
	return ws.Get(visitorID), nil
}

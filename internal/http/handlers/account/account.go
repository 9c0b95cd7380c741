// Package account contains the HTTP handlers over stored registrations.
// They are only routed when registrations are persisted.
package account

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/cafe-registration/internal/storage"
	"github.com/aanand-mishra/cafe-registration/internal/utils/response"
)

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/registrations/{id}
//
// Success response (200 OK):
//
//	{ "id": 1, "name": "Max Johnson", "email": "max@example.com", ... }
//
// Error responses:
//
//	400 Bad Request  — id is not a valid integer
//	404 Not Found    — no such registration
//	500 Internal     — database error
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a registration", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		acc, err := storage.GetRegistrationByID(intID)
		if err != nil {
			writeStorageError(w, "error getting registration", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, acc)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/registrations
// Returns a JSON array of every stored registration; [] when there are none.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all registrations")

		accounts, err := storage.GetRegistrations()
		if err != nil {
			slog.Error("error getting registrations", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, accounts)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/registrations/{id}
//
// Success response (200 OK):
//
//	{ "status": "deleted" }
// ─────────────────────────────────────────────────────────────────────────────
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a registration", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		if err := storage.DeleteRegistrationByID(intID); err != nil {
			writeStorageError(w, "error deleting registration", id, err)
			return
		}

		slog.Info("registration deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func parseID(w http.ResponseWriter, id string) (int64, bool) {
	intID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("invalid id: must be an integer")))
		return 0, false
	}
	return intID, true
}

func writeStorageError(w http.ResponseWriter, msg, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
		return
	}
	slog.Error(msg, slog.String("id", id), slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}

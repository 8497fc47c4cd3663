package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"chessbridge-backend/lib/scrapers/chesserp"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps the error taxonomy onto response statuses: upstream
// failures mirror the upstream status, auth failures surface theirs (or 500
// when none is available), anything unexpected is a 500.
func writeError(w http.ResponseWriter, err error) {
	var upstream *chesserp.UpstreamError
	if errors.As(err, &upstream) {
		writeErrorMessage(w, upstream.Status, upstream.Error())
		return
	}
	var auth *chesserp.AuthError
	if errors.As(err, &auth) {
		status := auth.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		writeErrorMessage(w, status, auth.Error())
		return
	}
	writeErrorMessage(w, http.StatusInternalServerError, err.Error())
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// jsonResponse writes data as a JSON body with the given status. A nil data
// sends the status and headers only.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Status is already on the wire at this point; log and move on.
		slog.Error("encoding response", "error", err)
	}
}

// jsonError writes an {"error": message} body with the given status.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes the request body into target and closes the body.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

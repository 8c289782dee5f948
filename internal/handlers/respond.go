package handlers

import (
	"encoding/json"
	"net/http"
)

// envelope is the payload half of a success response; respondSuccess
// adds the success flag.
type envelope map[string]any

func respondSuccess(w http.ResponseWriter, status int, payload envelope) {
	body := envelope{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{"success": false, "error": msg})
}

// userIDFrom pulls the authenticated user's id set by the auth
// middleware. Handlers behind RequireAuth can rely on it being present.
func userIDFrom(r *http.Request) int {
	id, _ := r.Context().Value("userID").(int)
	return id
}

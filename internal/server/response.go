package server

import (
	"net/http"

	"github.com/goccy/go-json"
)

// messageResponse is the {success, message} envelope used by the mutating
// endpoints
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"success":false,"message":"Failed to marshal response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithMessage(w http.ResponseWriter, code int, success bool, message string) {
	respondWithJSON(w, code, messageResponse{Success: success, Message: message})
}

package banktest

import (
	"encoding/json"
	"net/http"

	"github.com/devshark/starkbank/api"
)

// HandleError writes an error payload the way the API does.
func HandleError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Errors: []api.ErrorDetail{{Code: code, Message: message}},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// headers are already sent, so an encoding failure cannot be reported to the client
	_ = json.NewEncoder(w).Encode(payload)
}

// Package respond writes JSON bodies in the shapes the dashboard and booking
// form expect.
package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error envelope returned by every endpoint except the
// webhook receivers.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// JSON writes payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes {"detail": detail}.
func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorBody{Detail: detail})
}

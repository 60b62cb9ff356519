package httpx

import (
	"encoding/json"
	"net/http"
)

// Response is the canonical envelope every JSON endpoint uses. Historical
// revisions of this API mixed string and boolean status fields; this is the
// one shape.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteOK writes a success envelope with optional payload.
func WriteOK(w http.ResponseWriter, code int, message string, data any) {
	WriteJSON(w, code, Response{Status: true, Message: message, Data: data})
}

// WriteError writes a failure envelope. The HTTP status carries the error
// class; the message never distinguishes unknown-email from wrong-password or
// wrong-OTP from expired-OTP.
func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, Response{Status: false, Message: message})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

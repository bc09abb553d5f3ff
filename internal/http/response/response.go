package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// JSON writes the payload as-is with the given status. Encoding failures are
// logged but not surfaced; headers are already on the wire at that point.
func JSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "encode response payload", "error", err, "path", r.URL.Path)
	}
}

// Error writes the service error envelope. The machine-readable code is
// stable API surface; the message is advisory and may change.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	env := errorEnvelope{Error: errorBody{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: r.Header.Get("X-Request-Id"),
	}}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.ErrorContext(r.Context(), "encode error envelope", "error", err, "path", r.URL.Path)
	}
}

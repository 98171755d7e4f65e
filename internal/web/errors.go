package web

// errors.go centralizes status-code translation for the web layer.
//
// Core components raise typed errors; only this layer turns them into
// HTTP responses:
//   - *record.ValidationError -> 400 with the validation message
//   - record.ErrNotFound      -> 404 with a kind-specific message
//   - anything else           -> 500 with a generic storage message
//
// Technical details are logged with the request id; clients only ever see
// the user-facing message.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/martinslog/integra-backend/internal/logging"
	"github.com/martinslog/integra-backend/internal/record"
)

// respondError translates err for the client. notFoundMsg and storageMsg
// carry the operation's Portuguese messages for the 404 and 500 cases.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg, storageMsg string) {
	status := http.StatusInternalServerError
	message := storageMsg

	var ve *record.ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		message = ve.Message
	case errors.Is(err, record.ErrNotFound):
		status = http.StatusNotFound
		message = notFoundMsg
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeError(w, status, message)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}

// writeJSON encodes v as JSON with the given status code.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

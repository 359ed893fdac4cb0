package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response is the body of every form endpoint reply.
type Response struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// SendErr logs originErr and replies with msgToSend. For 5xx codes the error
// text is included in the body.
func SendErr(ctx context.Context, w http.ResponseWriter, code int, originErr error, msgToSend string) {
	resp := Response{Message: msgToSend}

	if code >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "api error", "status", code, "error", originErr)
		if originErr != nil {
			resp.Error = originErr.Error()
		}
	} else {
		slog.InfoContext(ctx, "request rejected", "status", code, "error", originErr)
	}

	SendJSON(ctx, w, code, resp)
}

func SendJSON(ctx context.Context, w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.ErrorContext(ctx, "encode response", "error", err)
	}
}

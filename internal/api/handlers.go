package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kalambet/modelserver/internal/service"
)

func handleHealth(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Health())
	}
}

type generateResponse struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}

func handleGenerate(svc *service.Service, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := RequestIDFromContext(r.Context())
		logger := opts.Logger.With("request_id", reqID)

		r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes)
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpError(w, http.StatusRequestEntityTooLarge, string(service.KindMalformedRequest),
					"Request body exceeds %d bytes", tooLarge.Limit)
				return
			}
			httpError(w, http.StatusBadRequest, string(service.KindMalformedRequest), "Invalid JSON body")
			return
		}

		prompt, err := service.ParsePrompt(body)
		if err != nil {
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				logger.Debug("request rejected", "kind", verr.Kind, "reason", verr.Reason)
				httpError(w, http.StatusBadRequest, string(verr.Kind), "%s", verr.Reason)
				return
			}
			httpError(w, http.StatusBadRequest, string(service.KindMalformedRequest), "Invalid JSON body")
			return
		}

		res, err := svc.Generate(r.Context(), prompt)
		if err != nil {
			logger.Error("error generating response", "error", err)
			details := fmt.Sprintf("internal error (request_id=%s)", reqID)
			if opts.Debug {
				details = err.Error()
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "Failed to generate response",
				"details": details,
			})
			return
		}

		writeJSON(w, http.StatusOK, generateResponse{Response: res.Text, Status: "success"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// httpError writes {"error": msg} with an optional "kind" classifying a
// rejected request.
func httpError(w http.ResponseWriter, code int, kind string, format string, args ...any) {
	body := map[string]string{"error": fmt.Sprintf(format, args...)}
	if kind != "" {
		body["kind"] = kind
	}
	writeJSON(w, code, body)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/listsync/internal/store"
)

// kindBadRequest is the error kind for malformed requests.
const kindBadRequest = "bad_request"

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StatusFor maps an error to its HTTP status. Every store kind except
// infrastructure is the client's fault.
func StatusFor(err error) int {
	if errors.Is(err, errBadRequest) || store.IsClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	resp := errorResponse{Error: err.Error(), Kind: string(store.KindOf(err))}
	if errors.Is(err, errBadRequest) {
		resp.Kind = kindBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

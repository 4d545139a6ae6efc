package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/roach88/listsync/internal/model"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// errBadRequest marks request decoding failures, which always answer 400.
var errBadRequest = errors.New("bad request")

type createListRequest struct {
	Name *string `json:"name"`
}

type renameListRequest struct {
	Name *string `json:"name"`
}

type createItemRequest struct {
	ListID  *int64  `json:"list_id"`
	Content *string `json:"content"`
}

type editItemRequest struct {
	Content *string `json:"content"`
}

func (s *Server) handleListAll(w http.ResponseWriter, r *http.Request) {
	lists, err := s.lists.ListAll(r.Context())
	s.respond(w, r, lists, err)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	l, err := s.lists.GetList(r.Context(), id)
	s.respond(w, r, l, err)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Name == nil || model.BlankName(*req.Name) {
		s.respondError(w, r, fmt.Errorf("%w: name is required", errBadRequest))
		return
	}
	l, err := s.lists.CreateList(r.Context(), *req.Name)
	s.respond(w, r, l, err)
}

func (s *Server) handleRenameList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req renameListRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Name == nil || model.BlankName(*req.Name) {
		s.respondError(w, r, fmt.Errorf("%w: name is required", errBadRequest))
		return
	}
	l, err := s.lists.RenameList(r.Context(), id, *req.Name)
	s.respond(w, r, l, err)
}

func (s *Server) handleRemoveList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	l, err := s.lists.RemoveList(r.Context(), id)
	s.respond(w, r, l, err)
}

func (s *Server) handleItemsOfList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	items, err := s.lists.ItemsOfList(r.Context(), id)
	s.respond(w, r, items, err)
}

func (s *Server) handleItemsAll(w http.ResponseWriter, r *http.Request) {
	items, err := s.lists.ItemsAll(r.Context())
	s.respond(w, r, items, err)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	i, err := s.lists.GetItem(r.Context(), id)
	s.respond(w, r, i, err)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.ListID == nil {
		s.respondError(w, r, fmt.Errorf("%w: list_id is required", errBadRequest))
		return
	}
	if req.Content == nil {
		s.respondError(w, r, fmt.Errorf("%w: content is required", errBadRequest))
		return
	}
	i, err := s.lists.CreateItem(r.Context(), *req.ListID, *req.Content)
	s.respond(w, r, i, err)
}

func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req editItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Content == nil {
		s.respondError(w, r, fmt.Errorf("%w: content is required", errBadRequest))
		return
	}
	i, err := s.lists.EditItem(r.Context(), id, *req.Content)
	s.respond(w, r, i, err)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	i, err := s.lists.RemoveItem(r.Context(), id)
	s.respond(w, r, i, err)
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Sessions: s.sessions.Active()})
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// decodeBody reads a single JSON object into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}
	return nil
}

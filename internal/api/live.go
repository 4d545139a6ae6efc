package api

import (
	"net/http"

	"github.com/roach88/listsync/internal/wsconn"
)

// handleLive upgrades to a websocket and runs a live session until it closes.
// The session runs on the request context, which the server cancels on
// shutdown.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := wsconn.NewConn(ws, wsconn.WithWriteWait(s.writeWait))
	s.logger.Debug("live client connected", "remote", r.RemoteAddr)

	if err := s.sessions.Serve(r.Context(), conn); err != nil {
		s.logger.Debug("live client disconnected", "remote", r.RemoteAddr, "reason", err)
	}
}

package ws

import (
	"log/slog"
	"net/http"

	"failly/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests into engine sessions.
type Server struct {
	log      *slog.Logger
	engine   Engine
	upgrader websocket.Upgrader
	sendBuf  int
}

func NewServer(log *slog.Logger, engine Engine, sendBuf int) *Server {
	return &Server{
		log:    log,
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The HTTP surface already runs behind the cors middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sendBuf: sendBuf,
	}
}

// ServeHTTP handles one websocket upgrade. The session lives until the
// read pump returns; connect and disconnect bookkeeping bracket it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	session := &Session{
		id:     domain.SessionID(uuid.NewString()),
		conn:   conn,
		send:   make(chan []byte, s.sendBuf),
		log:    s.log,
		engine: s.engine,
	}
	s.engine.OnConnect(session.id, session)

	go session.writePump()
	session.readPump(r.Context())
}

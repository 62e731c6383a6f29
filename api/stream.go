package api

import (
	"net/http"
	"time"

	"github.com/ogeth777/baseworld/broker"
	"github.com/ogeth777/baseworld/internal/logging"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Stream upgrades the request to a websocket and pushes the catch-up
// followed by every event until the viewer leaves or falls behind.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already answered the request
		s.log.Debug("websocket upgrade failed", logging.Error(err))
		return
	}

	sub := s.engine.Subscribe()
	log := s.log.With(logging.String("viewer", sub.ID()), logging.String("remote", r.RemoteAddr))
	log.Debug("viewer connected")

	go s.readLoop(conn, sub)
	s.writeLoop(log, conn, sub)
	log.Debug("viewer disconnected")
}

// readLoop discards everything the viewer sends and ends the subscription
// when the connection breaks.
func (s *Server) readLoop(conn *websocket.Conn, sub *broker.Subscription) {
	defer sub.Close()

	pongWait := 2 * s.cfg.Websocket.PingInterval.Get()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(log *logging.Logger, conn *websocket.Conn, sub *broker.Subscription) {
	ticker := time.NewTicker(s.cfg.Websocket.PingInterval.Get())
	defer func() {
		ticker.Stop()
		sub.Close()
		conn.Close()
	}()

	writeWait := s.cfg.Websocket.WriteWait.Get()
	for {
		select {
		case batch := <-sub.Events():
			for _, e := range batch {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(e); err != nil {
					log.Debug("could not write to viewer", logging.Error(err))
					return
				}
			}
		case <-sub.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

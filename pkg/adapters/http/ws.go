package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSMessage is the frame sent to WebSocket clients.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SubscribeWebSocket handles GET /ws. It carries the same events as /events
// and honours the same watch parameter.
func (s *Server) SubscribeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WS: Upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	watchList := parseWatch(r)
	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	s.logger.Info("WS: Client connected", "namespace", s.Store.Namespace(), "watch", watchList)

	// Clients only send control frames; a read error means they left.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			s.logger.Info("WS Client Disconnected")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matches(ev.Keys, watchList) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(WSMessage{Event: ev.Name, Data: json.RawMessage(ev.Data)}); err != nil {
				s.logger.Warn("WS: Write failed", "err", err)
				return
			}
		}
	}
}

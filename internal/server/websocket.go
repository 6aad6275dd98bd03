package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsHub is the room channel: per-room subscriber sets with a small
// presence record attached to each connection. Delivery is best-effort;
// a failed write drops the subscriber.
type wsHub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]PresenceEntry
}

func newWSHub() *wsHub {
	return &wsHub{
		rooms: make(map[string]map[*websocket.Conn]PresenceEntry),
	}
}

func (h *wsHub) Add(roomCode string, conn *websocket.Conn, entry PresenceEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[roomCode]
	if room == nil {
		room = make(map[*websocket.Conn]PresenceEntry)
		h.rooms[roomCode] = room
	}
	room[conn] = entry
}

func (h *wsHub) Remove(roomCode string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[roomCode]
	if room == nil {
		return
	}
	delete(room, conn)
	_ = conn.Close()
	if len(room) == 0 {
		delete(h.rooms, roomCode)
	}
}

// Roster lists the tracked participants currently subscribed to a room.
// Connections without presence metadata are subscribers but not
// participants, so they do not appear.
func (h *wsHub) Roster(roomCode string) []PresenceEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	roster := make([]PresenceEntry, 0)
	for _, entry := range h.rooms[roomCode] {
		if entry.PlayerID > 0 {
			roster = append(roster, entry)
		}
	}
	return roster
}

func (h *wsHub) Send(conn *websocket.Conn, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Broadcast(roomCode string, env Envelope) {
	h.mu.Lock()
	room := h.rooms[roomCode]
	conns := make([]*websocket.Conn, 0, len(room))
	for conn := range room {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(roomCode, conn)
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	roomCode, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	game, exists := s.store.GetGame(roomCode)
	if !exists {
		http.NotFound(w, r)
		return
	}
	entry := presenceFromQuery(r)
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected room_code=%s player_id=%d remote=%s", game.RoomCode, entry.PlayerID, r.RemoteAddr)
	s.ws.Add(game.RoomCode, conn, entry)
	s.ws.Send(conn, patchEnvelope(s.fullPatch(game)))
	s.publishPresence(game.RoomCode)
	if entry.PlayerID > 0 {
		s.publish(game.RoomCode, joinEnvelope(entry.PlayerID, entry.Name))
	}
	go s.readWS(game.RoomCode, conn)
}

func (s *Server) readWS(roomCode string, conn *websocket.Conn) {
	defer func() {
		s.ws.Remove(roomCode, conn)
		s.publishPresence(roomCode)
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("ws disconnected room_code=%s error=%v", roomCode, err)
			return
		}
		env, err := DecodeEnvelope(data)
		if err != nil {
			log.Printf("ws rejected message room_code=%s error=%v", roomCode, err)
			continue
		}
		// Clients may announce themselves; everything else on the wire
		// is server-authored and ignored when echoed back.
		if env.Type == msgJoinAnnounce {
			s.publish(roomCode, env)
		}
	}
}

// publish fans an envelope out to local subscribers and, when a relay
// is configured, to every other server instance sharing the room.
func (s *Server) publish(roomCode string, env Envelope) {
	s.ws.Broadcast(roomCode, env)
	if s.relay != nil {
		s.relay.Publish(roomCode, env)
	}
}

func (s *Server) publishPresence(roomCode string) {
	s.publish(roomCode, presenceEnvelope(s.ws.Roster(roomCode)))
}

func (s *Server) broadcastGameUpdate(game *Game) {
	if s.ws == nil {
		return
	}
	s.publish(game.RoomCode, patchEnvelope(s.fullPatch(game)))
}

func presenceFromQuery(r *http.Request) PresenceEntry {
	entry := PresenceEntry{Name: r.URL.Query().Get("name")}
	if id := r.URL.Query().Get("player_id"); id != "" {
		entry.PlayerID = atoiOrZero(id)
	}
	return entry
}

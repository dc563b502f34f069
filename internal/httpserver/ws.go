// internal/httpserver/ws.go
//
// Websocket transport for the multiplayer mode. One connection per player:
// a read loop feeds client actions into the matchmaker, a write pump drains
// the client's event channel back over the socket.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/match"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/storage"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	},
}

// clientAction is any inbound multiplayer message.
type clientAction struct {
	Action   string `json:"action"` // join_queue | leave_queue | ready | guess
	PlayerID int64  `json:"playerId,omitempty"`
	Name     string `json:"name,omitempty"`
}

// handleMatchSocket upgrades the connection and runs the read loop until the
// peer goes away. Disconnecting always detaches the client from the
// matchmaker, forfeiting any active round.
func (s *Server) handleMatchSocket(w http.ResponseWriter, r *http.Request) {
	identity := s.identity(w, r)
	display := "Guest"
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		display = me.Username
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	client := match.NewClient(identity, display)
	go writePump(conn, client)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// The request context dies with this handler, but matchmaker calls from
	// timers outlive it; use a detached context for actions.
	ctx := context.Background()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("identity", identity).Msg("websocket read")
			}
			break
		}
		var act clientAction
		if err := json.Unmarshal(data, &act); err != nil {
			continue
		}
		s.dispatchAction(ctx, client, act)
	}

	s.mm.Disconnect(client)
	_ = conn.Close()
}

func (s *Server) dispatchAction(ctx context.Context, client *match.Client, act clientAction) {
	switch act.Action {
	case "join_queue":
		if err := s.mm.JoinQueue(ctx, client); err != nil {
			if errors.Is(err, match.ErrAlreadyQueued) {
				return // harmless double-join
			}
			log.Warn().Err(err).Str("identity", client.Identity).Msg("join queue")
		}
	case "leave_queue":
		s.mm.LeaveQueue(client)
	case "ready":
		s.mm.Ready(ctx, client)
	case "guess":
		id := act.PlayerID
		if id == 0 && strings.TrimSpace(act.Name) != "" {
			p, err := s.store.PlayerByName(ctx, act.Name)
			if errors.Is(err, storage.ErrNotFound) {
				return
			}
			if err != nil {
				log.Warn().Err(err).Msg("resolve ws guess")
				return
			}
			id = p.ID
		}
		if id > 0 {
			s.mm.SubmitGuess(ctx, client, id)
		}
	}
}

// writePump serializes matchmaker events onto the socket and keeps the
// connection alive with pings. It exits when the client's event channel is
// closed by the matchmaker.
func writePump(conn *websocket.Conn, client *match.Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case ev, ok := <-client.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nonfamousd/copperhead-server/internal/config"
	"github.com/nonfamousd/copperhead-server/internal/game"
	chlog "github.com/nonfamousd/copperhead-server/internal/log"
	"github.com/nonfamousd/copperhead-server/internal/metrics"
	"github.com/nonfamousd/copperhead-server/internal/protocol"
	"github.com/nonfamousd/copperhead-server/internal/room"
)

// Server wires the room manager to its WebSocket endpoints and the small
// JSON status API.
type Server struct {
	cfg      config.Config
	mgr      *room.Manager
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewServer(cfg config.Config, mgr *room.Manager) *Server {
	return &Server{
		cfg: cfg,
		mgr: mgr,
		upgrader: websocket.Upgrader{
			// The browser client is served from another origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: chlog.WithComponent("network"),
	}
}

// Router builds the full HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/ws/join", s.handleJoin)
	r.Get("/ws/observe", s.handleObserve)
	r.Get("/ws/{playerID}", s.handleLegacyJoin)

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(60, time.Minute))
		r.Get("/", s.handleRoot)
		r.Get("/status", s.handleStatus)
		r.Get("/rooms/active", s.handleActiveRooms)
		r.Get("/healthz", s.handleHealthz)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*wsClient, bool) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("event", "ws.upgrade_failed").Msg("websocket upgrade failed")
		return nil, false
	}
	return newWSClient(conn), true
}

// handleJoin is the matchmaking endpoint: join a waiting game or open a
// new one.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	client, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	rm, playerID, err := s.mgr.FindOrCreateRoom(client)
	if err != nil {
		client.closeWith(protocol.CloseServerFull, "Server full - no room available")
		return
	}
	metrics.ConnectionsTotal.WithLabelValues("player").Inc()
	s.servePlayer(client, rm, playerID)
}

// handleLegacyJoin keeps the old /ws/{player_id} endpoint alive.
func (s *Server) handleLegacyJoin(w http.ResponseWriter, r *http.Request) {
	requested, err := strconv.Atoi(chi.URLParam(r, "playerID"))
	if err != nil || (requested != game.PlayerOne && requested != game.PlayerTwo) {
		client, ok := s.upgrade(w, r)
		if !ok {
			return
		}
		client.closeWith(protocol.CloseInvalidPlayer, "Invalid player_id. Use /ws/join instead.")
		return
	}

	client, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	rm, playerID, err := s.mgr.JoinLegacy(client, requested)
	if err != nil {
		client.closeWith(protocol.CloseServerFull, "Server full")
		return
	}
	metrics.ConnectionsTotal.WithLabelValues("player").Inc()
	s.servePlayer(client, rm, playerID)
}

// servePlayer pumps client frames into the room until the connection
// drops. The room itself sends the join assignment and first snapshot.
func (s *Server) servePlayer(client *wsClient, rm *room.Room, playerID int) {
	defer func() {
		rm.Inbox <- room.Leave{PlayerID: playerID}
		_ = client.Close()
	}()

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.Decode(raw)
		if err != nil {
			continue
		}
		switch msg.Action {
		case protocol.ActionMove:
			rm.Inbox <- room.Move{PlayerID: playerID, Direction: game.Direction(msg.Direction)}
		case protocol.ActionReady:
			rm.Inbox <- room.Ready{
				PlayerID:   playerID,
				Mode:       msg.Mode,
				Name:       msg.Name,
				Difficulty: msg.Difficulty(),
			}
		}
	}
}

// handleObserve serves spectators, including room switching and the
// bot-vs-bot lobby.
func (s *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	client, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	metrics.ConnectionsTotal.WithLabelValues("observer").Inc()

	observerID := uuid.NewString()
	current, _ := s.mgr.AttachObserver(observerID, client)

	defer func() {
		s.mgr.DetachObserver(observerID, current)
		_ = client.Close()
	}()

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.Decode(raw)
		if err != nil {
			continue
		}
		switch msg.Action {
		case protocol.ActionSwitchRoom:
			target, err := s.mgr.SwitchObserver(observerID, client, current, msg.RoomID)
			if err != nil {
				if b, encErr := protocol.Encode(protocol.Error{
					Type:    protocol.TypeError,
					Message: "Room " + strconv.Itoa(msg.RoomID) + " not available",
				}); encErr == nil {
					_ = client.Send(b)
				}
				continue
			}
			current = target
		case protocol.ActionGetRooms:
			list := protocol.RoomList{
				Type:  protocol.TypeRoomList,
				Rooms: room.RoomListEntries(s.mgr.ActiveStatuses()),
			}
			if current != nil {
				id := current.ID
				list.CurrentRoom = &id
			}
			if b, err := protocol.Encode(list); err == nil {
				_ = client.Send(b)
			}
		}
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"name": "CopperHead Server", "status": "running"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type statusRoom struct {
	RoomID           int   `json:"room_id"`
	Players          []int `json:"players"`
	Observers        int   `json:"observers"`
	GameRunning      bool  `json:"game_running"`
	WaitingForPlayer bool  `json:"waiting_for_player"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	statuses := s.mgr.Statuses()
	rooms := make([]statusRoom, 0, len(statuses))
	for _, st := range statuses {
		rooms = append(rooms, statusRoom{
			RoomID:           st.RoomID,
			Players:          st.Players,
			Observers:        st.Observers,
			GameRunning:      st.GameRunning,
			WaitingForPlayer: st.WaitingForPlayer,
		})
	}
	writeJSON(w, map[string]any{
		"total_rooms": len(statuses),
		"rooms":       rooms,
	})
}

func (s *Server) handleActiveRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"rooms": room.RoomListEntries(s.mgr.ActiveStatuses()),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

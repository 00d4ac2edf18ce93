package bot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nonfamousd/copperhead-server/internal/game"
	chlog "github.com/nonfamousd/copperhead-server/internal/log"
	"github.com/nonfamousd/copperhead-server/internal/protocol"
)

const (
	dialAttempts = 10
	dialBackoff  = 300 * time.Millisecond
)

// Client is one CopperBot: it dials the server's matchmaking endpoint,
// readies up, and steers its snake from state broadcasts. After a game
// ends it readies again, so bot-vs-bot matches keep running for
// observers.
type Client struct {
	ServerURL  string // base ws:// URL, with or without the trailing /ws/ path
	Difficulty int
	Name       string

	strategy *Strategy
	playerID int
	log      zerolog.Logger
}

func NewClient(serverURL string, difficulty int, name string) *Client {
	if name == "" {
		name = fmt.Sprintf("CopperBot L%d", difficulty)
	}
	return &Client{
		ServerURL:  serverURL,
		Difficulty: difficulty,
		Name:       name,
		strategy:   NewStrategy(difficulty, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))),
		log:        chlog.WithComponent("copperbot"),
	}
}

// joinURL appends the matchmaking endpoint to the base URL the server
// hands out (the original launcher prints ".../ws/").
func (c *Client) joinURL() string {
	u := c.ServerURL
	switch {
	case strings.HasSuffix(u, "/ws/"):
		return u + "join"
	case strings.HasSuffix(u, "/"):
		return u + "ws/join"
	default:
		return u + "/ws/join"
	}
}

// Run plays until the context is cancelled or the connection drops.
func (c *Client) Run(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop when the context ends.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	if err := c.sendReady(conn); err != nil {
		return fmt.Errorf("send ready: %w", err)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if err := c.handleFrame(conn, raw); err != nil {
			return err
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	url := c.joinURL()
	var lastErr error
	for i := 0; i < dialAttempts; i++ {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	return nil, fmt.Errorf("dial %s: %w", url, lastErr)
}

func (c *Client) sendReady(conn *websocket.Conn) error {
	b, err := protocol.Encode(map[string]any{
		"action": protocol.ActionReady,
		"mode":   game.ModeTwoPlayer,
		"name":   c.Name,
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (c *Client) handleFrame(conn *websocket.Conn, raw []byte) error {
	typ, err := protocol.PeekType(raw)
	if err != nil {
		return nil // tolerate unknown frames
	}
	switch typ {
	case protocol.TypeJoined:
		joined, err := protocol.DecodeServer[protocol.Joined](raw)
		if err != nil {
			return err
		}
		c.playerID = joined.PlayerID
		c.log.Info().
			Str("event", "bot.joined").
			Int("room_id", joined.RoomID).
			Int("player_id", joined.PlayerID).
			Msg("joined room")
	case protocol.TypeState:
		st, err := protocol.DecodeServer[protocol.State](raw)
		if err != nil || !st.Game.Running {
			return nil
		}
		dir, ok := c.strategy.Choose(st.Game, c.playerID)
		if !ok {
			return nil
		}
		b, err := protocol.Encode(map[string]any{
			"action":    protocol.ActionMove,
			"direction": string(dir),
		})
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return fmt.Errorf("send move: %w", err)
		}
	case protocol.TypeGameOver:
		over, _ := protocol.DecodeServer[protocol.GameOver](raw)
		won := over.Winner != nil && *over.Winner == c.playerID
		c.log.Info().
			Str("event", "bot.gameover").
			Bool("won", won).
			Msg("game over, readying for rematch")
		return c.sendReady(conn)
	}
	return nil
}

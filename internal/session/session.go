// Package session bridges one player's bidirectional websocket to its
// owning game loop. Each call to Serve blocks for the lifetime of the
// connection, running an inbound reader and an outbound writer
// concurrently; neither can ever stall the loop they're attached to.
package session

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wordloop/hangman/internal/manager"
	"github.com/wordloop/hangman/internal/message"
	"github.com/wordloop/hangman/internal/token"
)

// outboundCapacity is the per-session outbound queue depth. Capacity 1
// would be sufficient — the loop never needs more than one in-flight
// server message per player, since every update is a full envelope that
// supersedes the last — but a small amount of slack buys a little
// throughput headroom without risking unbounded queueing (spec.md §4.2).
const outboundCapacity = 2

// CloseGameNotFound and CloseGameEnded are the two application close
// codes a session ever sends, per spec.md §6.
const (
	CloseGameNotFound = 4000
	CloseGameEnded    = 4001
)

const writeWait = 5 * time.Second

// LogFunc matches the process-wide verbose-gated logger.
type LogFunc func(format string, args ...any)

// Serve registers user with handle's loop and then runs the inbound
// reader and outbound writer for conn until the connection ends. It
// blocks until both finish.
func Serve(conn *websocket.Conn, user message.User, handle manager.Handle, logf LogFunc) {
	outbound := make(chan message.ServerMessage, outboundCapacity)

	select {
	case handle.Send <- manager.JoinInbound{User: user, Outbound: outbound}:
	default:
		logf("SESSION: room mailbox full, dropping join for %s", user.Nickname)
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		writePump(conn, outbound, logf)
		close(done)
	}()

	readPump(conn, user.Token, handle.Send, logf)
	<-done
}

// readPump decodes client frames and forwards them to the loop until the
// connection closes or a protocol error makes it unrecoverable, at which
// point it reports Leave and returns. Malformed JSON frames are logged
// and skipped, not fatal (spec.md §4.2).
func readPump(conn *websocket.Conn, tok token.UserToken, send chan<- manager.Inbound, logf LogFunc) {
	defer func() {
		select {
		case send <- manager.LeaveInbound{Token: tok}:
		default:
			logf("SESSION: room mailbox full, dropping leave for %s", tok)
		}
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cm message.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			logf("SESSION: malformed client frame from %s: %v", tok, err)
			continue
		}

		select {
		case send <- manager.ClientInbound{Token: tok, Message: cm}:
		default:
			logf("SESSION: room mailbox full, dropping client frame from %s", tok)
		}
	}
}

// writePump consumes the per-session outbound queue and writes each
// ServerMessage as a text frame. When the queue is closed by the loop
// (room termination), it sends close code 4001; a transport write
// failure just returns, leaving readPump to notice the peer is gone.
func writePump(conn *websocket.Conn, outbound <-chan message.ServerMessage, logf LogFunc) {
	defer func() { _ = conn.Close() }()

	for msg := range outbound {
		data, err := msg.MarshalJSON()
		if err != nil {
			logf("SESSION: failed to marshal server message: %v", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(CloseGameEnded, "the game was closed"),
		time.Now().Add(writeWait),
	)
}

// RefuseNotFound closes a freshly upgraded connection with 4000 when the
// requested game code has no live room (spec.md §6: "accept upgrade,
// then immediately close").
func RefuseNotFound(conn *websocket.Conn) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(CloseGameNotFound, "game not found"),
		time.Now().Add(writeWait),
	)
	_ = conn.Close()
}

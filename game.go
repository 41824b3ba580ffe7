package main

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/wordloop/hangman/internal/manager"
	"github.com/wordloop/hangman/internal/message"
	"github.com/wordloop/hangman/internal/session"
	"github.com/wordloop/hangman/internal/token"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// createGameHandler serves POST /api/game: it hands the Game Manager a
// GameSettings and an owner token and returns the fresh room's code.
func createGameHandler(cfg *Config, mgr *manager.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body message.CreateGameBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		code, err := mgr.Create(body.Token, body.Settings)
		if err != nil {
			logf(cfg, "API: failed to create game: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "failed to create game")
			return
		}

		logf(cfg, "API: created game %s (mode=%s) for %s", code, body.Settings.Mode, realIP(r))

		securityHeaders(w)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(code.String())
	}
}

// wsHandler serves GET /api/game/:code/ws. A nonexistent code still
// completes the upgrade and then closes immediately with 4000, per
// spec.md §6.
func wsHandler(cfg *Config, mgr *manager.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code, err := token.ParseGameCode(ps.ByName("code"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid game code")
			return
		}

		nickname := r.URL.Query().Get("nickname")
		tok, err := token.ParseUserToken(r.URL.Query().Get("token"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid user token")
			return
		}

		handle, ok := mgr.Lookup(code)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "WS: upgrade failed: %v", err)
			return
		}

		if !ok {
			session.RefuseNotFound(conn)
			return
		}

		user := message.User{Nickname: nickname, Token: tok}

		// connID correlates this connection's log lines across the
		// inbound reader and outbound writer goroutines; it never
		// reaches the wire.
		connID := uuid.New().String()[:8]
		logf(cfg, "WS: [conn:%s] %s joining %s", connID, nickname, code)

		session.Serve(conn, user, handle, func(format string, args ...any) {
			logf(cfg, "[conn:%s] "+format, append([]any{connID}, args...)...)
		})
	}
}

// qrHandler serves GET /api/game/:code/qr: a PNG QR code encoding the
// join URL for the room, for display on a second screen. Additive and
// never required by a client to play (spec.md §6 expansion).
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + "/api/game/" + code + "/ws"

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "qr generation failed")
			return
		}

		securityHeaders(w)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

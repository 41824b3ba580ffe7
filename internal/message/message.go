// Package message defines the wire-level data model shared by both game
// loops: settings, chat, the per-mode state DTOs, the total-state
// envelope, and the client/server message taxonomy. Everything here is
// plain data — no behavior belongs in this package beyond (de)serializing
// itself correctly.
package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wordloop/hangman/internal/token"
)

// GameMode selects which game loop owns a room.
type GameMode string

const (
	ModeTeam        GameMode = "team"
	ModeCompetitive GameMode = "competitive"
)

// GameLanguage is the wordlist language for a room.
type GameLanguage string

const (
	LanguageEnglish GameLanguage = "english"
	LanguageSpanish GameLanguage = "spanish"
	LanguageFrench  GameLanguage = "french"
	LanguageGerman  GameLanguage = "german"
	LanguageRussian GameLanguage = "russian"
	LanguageTurkish GameLanguage = "turkish"
)

// AllLanguages lists every supported wordlist language, in the order the
// Word Source preprocesses them at startup.
func AllLanguages() []GameLanguage {
	return []GameLanguage{
		LanguageEnglish, LanguageSpanish, LanguageFrench,
		LanguageGerman, LanguageRussian, LanguageTurkish,
	}
}

// Difficulty selects a word-frequency quarter. Random draws from the
// whole preprocessed wordlist.
type Difficulty string

const (
	DifficultyRandom Difficulty = "random"
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyInsane Difficulty = "insane"
)

// RankedDifficulties lists the 4 quarters in easy-to-insane order, i.e.
// the order Word Source partitions the preprocessed list into.
func RankedDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyInsane}
}

// GameSettings configures a room at creation time. Difficulty defaults to
// Medium when omitted from a client request.
type GameSettings struct {
	Mode       GameMode     `json:"mode"`
	Language   GameLanguage `json:"language"`
	Difficulty Difficulty   `json:"difficulty"`
}

// UnmarshalJSON applies the default difficulty (Medium) when the field is
// absent or empty, matching spec.md's "Default difficulty: Medium".
func (s *GameSettings) UnmarshalJSON(data []byte) error {
	type alias GameSettings
	aux := alias{Difficulty: DifficultyMedium}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Difficulty == "" {
		aux.Difficulty = DifficultyMedium
	}
	*s = GameSettings(aux)
	return nil
}

// ChatColor is the display color hint attached to a chat line.
type ChatColor string

const (
	ColorNeutral ChatColor = "neutral"
	ColorGreen   ChatColor = "green"
	ColorRed     ChatColor = "red"
)

// ChatMessage is one line of room chat. From is nil for system messages
// (join/leave/end-of-round banners).
type ChatMessage struct {
	From    *string   `json:"from,omitempty"`
	Content string    `json:"content"`
	Color   ChatColor `json:"color"`
}

// SystemMessage builds a from-less chat line with the given color.
func SystemMessage(content string, color ChatColor) ChatMessage {
	return ChatMessage{Content: content, Color: color}
}

// PlayerMessage builds a chat line attributed to a player.
func PlayerMessage(nickname, content string, color ChatColor) ChatMessage {
	name := nickname
	return ChatMessage{From: &name, Content: content, Color: color}
}

// TeamState is the shared state every connected player in a Team room
// sees; it is byte-identical across players between a Join/Leave pair.
type TeamState struct {
	Players       []string      `json:"players"`
	Chat          []ChatMessage `json:"chat"`
	TriesUsed     int           `json:"tries_used"`
	Word          string        `json:"word"`
	RoundFinished bool          `json:"round_finished"`
}

// CompetitiveState is one player's private view in a Competitive room.
type CompetitiveState struct {
	TriesUsed int           `json:"tries_used"`
	Chat      []ChatMessage `json:"chat"`
	Word      string        `json:"word"`
	Countdown time.Time     `json:"countdown"`
	WordIndex int           `json:"word_index"`
	Score     int           `json:"score"`
}

// Game is the total-state envelope sent on every update. State is nil
// while the room is in its pre-start Waiting phase.
type Game[S any] struct {
	OwnerHash token.UserToken `json:"owner_hash"`
	Settings  GameSettings    `json:"settings"`
	Players   []string        `json:"players"`
	State     *S              `json:"state"`
}

// Score is one row of a Competitive scoreboard.
type Score struct {
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// RankScores assigns dense ranks (ties share a rank, the next distinct
// score immediately follows) over players already sorted by descending
// score.
func RankScores(names []string, scores []int) []Score {
	out := make([]Score, len(names))
	rank := 0
	var prev int
	havePrev := false
	for i := range names {
		if !havePrev || scores[i] < prev {
			rank++
			prev = scores[i]
			havePrev = true
		}
		out[i] = Score{Rank: rank, Nickname: names[i], Score: scores[i]}
	}
	return out
}

// User identifies a connected player: their display name and opaque
// token.
type User struct {
	Nickname string          `json:"nickname"`
	Token    token.UserToken `json:"token"`
}

// CreateGameBody is the POST /api/game request payload.
type CreateGameBody struct {
	Token    token.UserToken `json:"token"`
	Settings GameSettings    `json:"settings"`
}

// ---- Client -> server messages ----

// ClientMessageKind tags the variant of an inbound ClientMessage.
type ClientMessageKind string

const (
	ClientChatMessage ClientMessageKind = "chat_message"
	ClientNextRound   ClientMessageKind = "next_round"
)

// ClientMessage is the tagged union of messages a player's socket can
// send: a chat line (which doubles as a guess) or a request to advance
// to the next round.
type ClientMessage struct {
	Kind ClientMessageKind
	Chat string // valid when Kind == ClientChatMessage
}

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalJSON decodes the {"type":...,"data":...} tagged-union shape.
func (m *ClientMessage) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch ClientMessageKind(w.Type) {
	case ClientChatMessage:
		var content string
		if err := json.Unmarshal(w.Data, &content); err != nil {
			return fmt.Errorf("chat_message: %w", err)
		}
		*m = ClientMessage{Kind: ClientChatMessage, Chat: content}
	case ClientNextRound:
		*m = ClientMessage{Kind: ClientNextRound}
	default:
		return fmt.Errorf("unknown client message type %q", w.Type)
	}
	return nil
}

// MarshalJSON re-encodes a ClientMessage; used by tests and by any tool
// that needs to synthesize client frames.
func (m ClientMessage) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case ClientChatMessage:
		data, err := json.Marshal(m.Chat)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireMessage{Type: string(ClientChatMessage), Data: data})
	case ClientNextRound:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{Type: string(ClientNextRound)})
	default:
		return nil, fmt.Errorf("unknown client message kind %q", m.Kind)
	}
}

// ---- Server -> client messages ----

// ServerMessage is anything a game loop can push down a session's
// outbound queue. Concrete types implement it and know how to render
// themselves into the nested {"type":"team"|"competitive","data":
// {"type":"update_game"|"results","data":...}} wire shape.
type ServerMessage interface {
	json.Marshaler
	isServerMessage()
}

func wrap(outer, inner string, payload any) ([]byte, error) {
	innerPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	innerMsg, err := json.Marshal(wireMessage{Type: inner, Data: innerPayload})
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{Type: outer, Data: innerMsg})
}

// TeamUpdateGame carries the full Team envelope.
type TeamUpdateGame struct {
	Game Game[TeamState]
}

func (TeamUpdateGame) isServerMessage() {}
func (m TeamUpdateGame) MarshalJSON() ([]byte, error) {
	return wrap(string(ModeTeam), "update_game", m.Game)
}

// CompetitiveUpdateGame carries one player's Competitive envelope.
type CompetitiveUpdateGame struct {
	Game Game[CompetitiveState]
}

func (CompetitiveUpdateGame) isServerMessage() {}
func (m CompetitiveUpdateGame) MarshalJSON() ([]byte, error) {
	return wrap(string(ModeCompetitive), "update_game", m.Game)
}

// TeamResults is unused by the Team loop today (Team mode has no
// scoreboard) but kept so ServerMessage's shape matches spec.md §4.7
// exactly and a future Team scoring variant has a typed home.
type TeamResults struct {
	Scores []Score
}

func (TeamResults) isServerMessage() {}
func (m TeamResults) MarshalJSON() ([]byte, error) {
	return wrap(string(ModeTeam), "results", m.Scores)
}

// CompetitiveResults carries the end-of-round scoreboard.
type CompetitiveResults struct {
	Scores []Score
}

func (CompetitiveResults) isServerMessage() {}
func (m CompetitiveResults) MarshalJSON() ([]byte, error) {
	return wrap(string(ModeCompetitive), "results", m.Scores)
}

// Equal reports whether two marshaled ServerMessage values produce
// byte-identical JSON.
func Equal(a, b ServerMessage) (bool, error) {
	aj, err := a.MarshalJSON()
	if err != nil {
		return false, err
	}
	bj, err := b.MarshalJSON()
	if err != nil {
		return false, err
	}
	return bytes.Equal(aj, bj), nil
}

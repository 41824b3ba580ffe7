package manager

import (
	"fmt"

	"github.com/wordloop/hangman/internal/message"
	"github.com/wordloop/hangman/internal/oracle"
	"github.com/wordloop/hangman/internal/token"
)

// teamRoom is the single-writer state machine backing a Team mode room.
// Every field here is touched only by runTeamLoop's goroutine.
type teamRoom struct {
	code     token.GameCode
	settings message.GameSettings
	owner    token.UserToken
	deps     Deps

	order   []token.UserToken
	players map[token.UserToken]participant

	started       bool
	roundFinished bool
	triesUsed     int
	word          *oracle.Word
	chat          []message.ChatMessage
}

// runTeamLoop drives one Team room to completion. It returns (and calls
// onDone, which reaps the room from the Manager's registry) once the
// owner leaves or the last player leaves.
func runTeamLoop(mailbox chan Inbound, code token.GameCode, settings message.GameSettings, owner token.UserToken, deps Deps, onDone func()) {
	r := &teamRoom{
		code:     code,
		settings: settings,
		owner:    owner,
		deps:     deps,
		players:  make(map[token.UserToken]participant),
	}
	defer onDone()

	for raw := range mailbox {
		switch m := raw.(type) {
		case JoinInbound:
			r.handleJoin(m)
		case LeaveInbound:
			if r.handleLeave(m) {
				return
			}
		case ClientInbound:
			r.handleClient(m)
		case countdownFired:
			// Team rooms never schedule a countdown; nothing to do.
		}
	}
}

func (r *teamRoom) handleJoin(m JoinInbound) {
	r.order = append(r.order, m.User.Token)
	r.players[m.User.Token] = participant{user: m.User, outbound: m.Outbound}
	r.chat = append(r.chat, message.SystemMessage(m.User.Nickname+" joined the game", message.ColorNeutral))
	r.deps.Metrics.SessionJoined()
	r.broadcast()
}

// handleLeave removes a player and reports whether the room must now
// terminate (the owner left, or no players remain).
func (r *teamRoom) handleLeave(m LeaveInbound) bool {
	p, ok := r.players[m.Token]
	if !ok {
		r.deps.logf("LOOP: team %s: leave from unknown token", r.code)
		return false
	}

	isOwner := m.Token == r.owner
	delete(r.players, m.Token)
	r.order = removeToken(r.order, m.Token)
	r.chat = append(r.chat, message.SystemMessage(p.user.Nickname+" left the game", message.ColorNeutral))
	r.deps.Metrics.SessionLeft()

	if isOwner || len(r.players) == 0 {
		r.broadcast()
		closeAll(r.players)
		return true
	}

	r.broadcast()
	return false
}

func (r *teamRoom) handleClient(m ClientInbound) {
	switch m.Message.Kind {
	case message.ClientNextRound:
		r.handleNextRound(m.Token)
	case message.ClientChatMessage:
		r.handleChat(m.Token, m.Message.Chat)
	}
}

func (r *teamRoom) handleNextRound(from token.UserToken) {
	switch {
	case !r.started:
		if from != r.owner {
			r.deps.logf("LOOP: team %s: next_round from non-owner while waiting", r.code)
			return
		}
		if !r.drawWord() {
			return
		}
		r.started = true
		r.roundFinished = false
		r.triesUsed = 0
		r.chat = append(r.chat, message.SystemMessage(r.nicknameOf(from)+" started the round!", message.ColorNeutral))
		r.broadcast()

	case r.roundFinished:
		r.chat = stripUserChat(r.chat)
		if !r.drawWord() {
			return
		}
		r.roundFinished = false
		r.triesUsed = 0
		r.chat = append(r.chat, message.SystemMessage(r.nicknameOf(from)+" started a new round!", message.ColorNeutral))
		r.broadcast()

	default:
		r.deps.logf("LOOP: team %s: next_round ignored, round still in progress", r.code)
	}
}

func (r *teamRoom) handleChat(from token.UserToken, text string) {
	if !r.started || r.roundFinished {
		r.deps.logf("LOOP: team %s: chat guess ignored, no round in progress", r.code)
		return
	}

	nickname := r.nicknameOf(from)
	result := r.word.Guess(text)
	r.chat = append(r.chat, message.PlayerMessage(nickname, text, result.ChatColor()))

	switch result {
	case oracle.Solved:
		r.roundFinished = true
		r.chat = append(r.chat, message.SystemMessage("You guessed the word!", message.ColorGreen))
		r.deps.Metrics.RoundFinished(message.ModeTeam)
	case oracle.Miss:
		r.triesUsed++
		if r.triesUsed >= 9 {
			r.roundFinished = true
			r.chat = append(r.chat, message.SystemMessage(fmt.Sprintf("No tries left! The word was %q", r.word.Target()), message.ColorRed))
			r.deps.Metrics.RoundFinished(message.ModeTeam)
		}
	case oracle.Hit:
		// Word and tries already reflect the reveal; nothing further.
	}

	r.broadcast()
}

// drawWord samples a fresh target and reports success. A sampling
// failure (e.g. the configured language was never preprocessed) is a
// loop invariant violation per spec.md §7: logged and the transition is
// abandoned rather than corrupting state.
func (r *teamRoom) drawWord() bool {
	target, err := r.deps.Words.Sample(r.settings.Language, r.settings.Difficulty)
	if err != nil {
		r.deps.logf("LOOP: team %s: word sample failed: %v", r.code, err)
		return false
	}
	r.deps.Metrics.WordDrawn(r.settings.Language, r.settings.Difficulty)
	r.word = oracle.New(target, r.settings.Language)
	return true
}

func (r *teamRoom) nicknameOf(tok token.UserToken) string {
	if p, ok := r.players[tok]; ok {
		return p.user.Nickname
	}
	return "a player"
}

func (r *teamRoom) playerNames() map[token.UserToken]string {
	names := make(map[token.UserToken]string, len(r.players))
	for tok, p := range r.players {
		names[tok] = p.user.Nickname
	}
	return names
}

// broadcast sends the full envelope to every currently-registered
// player. This is the only consistency primitive Team mode needs: every
// state-mutating transition ends here, collapsing any intermediate
// inconsistency (spec.md §4.3).
func (r *teamRoom) broadcast() {
	names := namesInOrder(r.order, r.playerNames())

	var state *message.TeamState
	if r.started {
		state = &message.TeamState{
			Players:       names,
			Chat:          append([]message.ChatMessage(nil), r.chat...),
			TriesUsed:     r.triesUsed,
			Word:          r.word.Render(),
			RoundFinished: r.roundFinished,
		}
	}

	env := message.Game[message.TeamState]{
		OwnerHash: r.owner.Hashed(),
		Settings:  r.settings,
		Players:   names,
		State:     state,
	}
	out := message.TeamUpdateGame{Game: env}

	for _, tok := range r.order {
		sendOutbound(r.deps, r.players[tok].outbound, out)
	}
}

// stripUserChat drops every player-attributed chat line, keeping only
// system banners, when a new round begins.
func stripUserChat(chat []message.ChatMessage) []message.ChatMessage {
	out := chat[:0]
	for _, c := range chat {
		if c.From == nil {
			out = append(out, c)
		}
	}
	return append([]message.ChatMessage(nil), out...)
}

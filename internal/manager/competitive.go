package manager

import (
	"fmt"
	"sort"
	"time"

	"github.com/wordloop/hangman/internal/message"
	"github.com/wordloop/hangman/internal/oracle"
	"github.com/wordloop/hangman/internal/token"
)

// competitivePlayerState is one player's private progress: their own
// tries, chat, word oracle, and score. It persists across a Leave so a
// rejoin with the same token resumes it rather than starting fresh
// (spec.md §9, "half-implemented rejoin" design note).
type competitivePlayerState struct {
	triesUsed int
	chat      []message.ChatMessage
	countdown time.Time
	wordIndex int
	score     int
	word      *oracle.Word
}

// competitiveRoom is the single-writer state machine backing a
// Competitive mode room.
type competitiveRoom struct {
	code     token.GameCode
	settings message.GameSettings
	owner    token.UserToken
	deps     Deps

	order   []token.UserToken
	players map[token.UserToken]participant
	states  map[token.UserToken]*competitivePlayerState
	mailbox chan Inbound

	globalChat []message.ChatMessage
	words      []string

	started       bool
	resultsIssued bool
	countdown     time.Time
	generation    int
}

func runCompetitiveLoop(mailbox chan Inbound, code token.GameCode, settings message.GameSettings, owner token.UserToken, deps Deps, onDone func()) {
	r := &competitiveRoom{
		code:     code,
		settings: settings,
		owner:    owner,
		deps:     deps,
		players:  make(map[token.UserToken]participant),
		states:   make(map[token.UserToken]*competitivePlayerState),
		mailbox:  mailbox,
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
			r.handleCountdownFired(m)
		}
	}
}

func (r *competitiveRoom) handleJoin(m JoinInbound) {
	r.order = append(r.order, m.User.Token)
	r.players[m.User.Token] = participant{user: m.User, outbound: m.Outbound}

	if _, existing := r.states[m.User.Token]; !existing {
		ps := &competitivePlayerState{
			chat: append([]message.ChatMessage(nil), r.globalChat...),
		}
		if r.started && len(r.words) > 0 {
			ps.word = oracle.New(r.words[0], r.settings.Language)
			ps.countdown = r.countdown
		}
		r.states[m.User.Token] = ps
	}

	banner := message.SystemMessage(m.User.Nickname+" joined the game", message.ColorNeutral)
	r.pushGlobalBanner(banner, m.User.Token)
	r.deps.Metrics.SessionJoined()
	r.broadcastAll()
}

func (r *competitiveRoom) handleLeave(m LeaveInbound) bool {
	p, ok := r.players[m.Token]
	if !ok {
		r.deps.logf("LOOP: competitive %s: leave from unknown token", r.code)
		return false
	}

	isOwner := m.Token == r.owner
	delete(r.players, m.Token)
	r.order = removeToken(r.order, m.Token)
	r.deps.Metrics.SessionLeft()

	if isOwner || len(r.players) == 0 {
		r.pushGlobalBanner(message.SystemMessage(p.user.Nickname+" left the game", message.ColorNeutral), 0)
		r.broadcastAll()
		closeAll(r.players)
		return true
	}

	r.pushGlobalBanner(message.SystemMessage(p.user.Nickname+" left the game", message.ColorNeutral), 0)
	r.broadcastAll()
	return false
}

func (r *competitiveRoom) handleClient(m ClientInbound) {
	switch m.Message.Kind {
	case message.ClientNextRound:
		r.handleNextRound(m.Token)
	case message.ClientChatMessage:
		r.handleChat(m.Token, m.Message.Chat)
	}
}

// handleNextRound implements spec.md §4.4's authorization split: only
// the owner may start the first round; once started, any player may
// trigger a restart, including mid-round or after results have fired.
func (r *competitiveRoom) handleNextRound(from token.UserToken) {
	if !r.started {
		if from != r.owner {
			r.deps.logf("LOOP: competitive %s: next_round from non-owner while waiting", r.code)
			return
		}
	}
	r.startRound()
}

// startRound (re)initializes every known player's progress, seeds a
// fresh word pool, and schedules a new round-countdown task under a
// bumped generation so any in-flight timer from a prior round becomes a
// no-op when it eventually fires.
func (r *competitiveRoom) startRound() {
	target, err := r.sampleFresh()
	if err != nil {
		r.deps.logf("LOOP: competitive %s: word sample failed: %v", r.code, err)
		return
	}
	r.words = []string{target}

	r.generation++
	r.countdown = time.Now().Add(r.deps.roundDuration())
	r.resultsIssued = false
	r.started = true

	for tok, ps := range r.states {
		ps.triesUsed = 0
		ps.chat = append([]message.ChatMessage(nil), r.globalChat...)
		ps.countdown = r.countdown
		ps.wordIndex = 0
		ps.score = 0
		ps.word = oracle.New(target, r.settings.Language)
		r.states[tok] = ps
	}

	scheduleCountdown(r.mailbox, r.generation, r.deps.roundDuration())
	r.broadcastAll()
}

func (r *competitiveRoom) handleChat(from token.UserToken, text string) {
	if !r.started || r.resultsIssued {
		r.deps.logf("LOOP: competitive %s: chat guess ignored, no round in progress", r.code)
		return
	}
	ps, ok := r.states[from]
	if !ok || ps.word == nil {
		r.deps.logf("LOOP: competitive %s: chat guess from unknown or unseated token", r.code)
		return
	}

	result := ps.word.Guess(text)
	ps.chat = append(ps.chat, message.PlayerMessage(r.nicknameOf(from), text, result.ChatColor()))

	switch result {
	case oracle.Solved:
		ps.score++
		ps.chat = append(ps.chat, message.SystemMessage(fmt.Sprintf("You guessed %q!", ps.word.Target()), message.ColorGreen))
		r.advanceWord(ps)
	case oracle.Miss:
		ps.triesUsed++
		if ps.triesUsed >= 9 {
			ps.chat = append(ps.chat, message.SystemMessage(fmt.Sprintf("No tries left! The word was %q", ps.word.Target()), message.ColorRed))
			r.advanceWord(ps)
		}
	case oracle.Hit:
		// Reveal already updated in place; nothing further.
	}

	r.sendTo(from)
}

// advanceWord moves a single player on to the next word in the shared
// draw sequence: reusing a previously-drawn word if a faster player
// already reached this index, otherwise sampling and memoizing a fresh
// one so every player sees the same sequence at the same index.
func (r *competitiveRoom) advanceWord(ps *competitivePlayerState) {
	ps.chat = stripUserChat(ps.chat)
	ps.triesUsed = 0
	ps.wordIndex++

	target, err := r.wordAt(ps.wordIndex)
	if err != nil {
		r.deps.logf("LOOP: competitive %s: word sample failed: %v", r.code, err)
		ps.wordIndex--
		return
	}
	ps.word = oracle.New(target, r.settings.Language)
}

func (r *competitiveRoom) wordAt(idx int) (string, error) {
	if idx < len(r.words) {
		return r.words[idx], nil
	}
	target, err := r.sampleFresh()
	if err != nil {
		return "", err
	}
	r.words = append(r.words, target)
	return target, nil
}

func (r *competitiveRoom) sampleFresh() (string, error) {
	target, err := r.deps.Words.Sample(r.settings.Language, r.settings.Difficulty)
	if err != nil {
		return "", err
	}
	r.deps.Metrics.WordDrawn(r.settings.Language, r.settings.Difficulty)
	return target, nil
}

func (r *competitiveRoom) handleCountdownFired(m countdownFired) {
	if m.generation != r.generation || !r.started || r.resultsIssued {
		return
	}
	r.resultsIssued = true
	scores := r.computeResults()
	for _, tok := range r.order {
		sendOutbound(r.deps, r.players[tok].outbound, message.CompetitiveResults{Scores: scores})
	}
	r.deps.Metrics.RoundFinished(message.ModeCompetitive)
}

// computeResults ranks currently-connected players by descending score,
// assigning dense ranks (ties share a rank).
func (r *competitiveRoom) computeResults() []message.Score {
	type row struct {
		name  string
		score int
	}
	rows := make([]row, 0, len(r.order))
	for _, tok := range r.order {
		rows = append(rows, row{name: r.nicknameOf(tok), score: r.states[tok].score})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].score > rows[j].score })

	names := make([]string, len(rows))
	scores := make([]int, len(rows))
	for i, rw := range rows {
		names[i] = rw.name
		scores[i] = rw.score
	}
	return message.RankScores(names, scores)
}

func (r *competitiveRoom) nicknameOf(tok token.UserToken) string {
	if p, ok := r.players[tok]; ok {
		return p.user.Nickname
	}
	return "a player"
}

func (r *competitiveRoom) playerNames() map[token.UserToken]string {
	names := make(map[token.UserToken]string, len(r.players))
	for tok, p := range r.players {
		names[tok] = p.user.Nickname
	}
	return names
}

// pushGlobalBanner appends a system banner to the room-wide log and to
// every known player's own chat except the one named by skip (pass the
// zero token to skip no one), matching spec.md §4.4's "push join banner
// into each existing player's chat and global_chat".
func (r *competitiveRoom) pushGlobalBanner(banner message.ChatMessage, skip token.UserToken) {
	r.globalChat = append(r.globalChat, banner)
	for tok, ps := range r.states {
		if tok == skip {
			continue
		}
		ps.chat = append(ps.chat, banner)
	}
}

// broadcastAll sends every connected player its own envelope: Team mode
// broadcasts one shared state, but Competitive's contract is that each
// player sees only its own CompetitiveState (spec.md §3 invariant).
func (r *competitiveRoom) broadcastAll() {
	for _, tok := range r.order {
		r.sendTo(tok)
	}
}

func (r *competitiveRoom) sendTo(tok token.UserToken) {
	p, ok := r.players[tok]
	if !ok {
		return
	}
	ps := r.states[tok]

	names := namesInOrder(r.order, r.playerNames())

	var state *message.CompetitiveState
	if r.started && ps != nil && ps.word != nil {
		state = &message.CompetitiveState{
			TriesUsed: ps.triesUsed,
			Chat:      append([]message.ChatMessage(nil), ps.chat...),
			Word:      ps.word.Render(),
			Countdown: ps.countdown,
			WordIndex: ps.wordIndex,
			Score:     ps.score,
		}
	}

	env := message.Game[message.CompetitiveState]{
		OwnerHash: r.owner.Hashed(),
		Settings:  r.settings,
		Players:   names,
		State:     state,
	}
	sendOutbound(r.deps, p.outbound, message.CompetitiveUpdateGame{Game: env})
}

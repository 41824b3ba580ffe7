package manager

import (
	"time"

	"github.com/wordloop/hangman/internal/message"
	"github.com/wordloop/hangman/internal/metrics"
	"github.com/wordloop/hangman/internal/token"
	"github.com/wordloop/hangman/internal/wordsource"
)

// Inbound is the tagged union of everything a room's mailbox accepts: a
// Session registering or leaving, a client frame, or (Competitive only) a
// countdown task's self-delivered deadline notice. A loop never receives
// anything else.
type Inbound interface {
	isInbound()
}

// JoinInbound registers a player with the loop, handing over the
// send-end of that player's outbound queue.
type JoinInbound struct {
	User     message.User
	Outbound chan<- message.ServerMessage
}

func (JoinInbound) isInbound() {}

// LeaveInbound reports that a player's session has ended, whether by an
// explicit close frame or an abnormal transport close.
type LeaveInbound struct {
	Token token.UserToken
}

func (LeaveInbound) isInbound() {}

// ClientInbound wraps a decoded client frame with the token of the
// session that sent it.
type ClientInbound struct {
	Token   token.UserToken
	Message message.ClientMessage
}

func (ClientInbound) isInbound() {}

// countdownFired is a Competitive round-timer's self-delivered deadline
// notice. It closes over the round generation it was scheduled for so a
// stale timer from a superseded round is a no-op (see scheduleCountdown).
type countdownFired struct {
	generation int
}

func (countdownFired) isInbound() {}

// Deps bundles the collaborators every loop needs beyond its own mailbox:
// the Word Source to sample from, the metrics sink to report through, and
// a log function gated the same way the rest of the process is. None of
// these are ever mutated by a loop.
type Deps struct {
	Words         *wordsource.Source
	Metrics       *metrics.Registry
	Logf          func(format string, args ...any)
	RoundDuration time.Duration
}

func (d Deps) logf(format string, args ...any) {
	if d.Logf == nil {
		return
	}
	d.Logf(format, args...)
}

func (d Deps) roundDuration() time.Duration {
	if d.RoundDuration <= 0 {
		return 3 * time.Minute
	}
	return d.RoundDuration
}

// participant is the bookkeeping every loop keeps per connected player:
// their identity and the send-end of their outbound queue.
type participant struct {
	user     message.User
	outbound chan<- message.ServerMessage
}

// sendOutbound is a non-blocking send: a full queue or a writer that has
// already died is equivalent to "this player has gone" and must never
// stall the loop. The loop logs and moves on; the next inbound close
// frame produces the authoritative Leave.
func sendOutbound(deps Deps, ch chan<- message.ServerMessage, msg message.ServerMessage) {
	select {
	case ch <- msg:
	default:
		deps.logf("LOOP: dropped outbound message, session queue full or gone")
	}
}

// scheduleCountdown starts a Competitive round's single-shot deadline
// timer. It belongs to round generation gen: if the loop starts a new
// round before this timer fires, the comparison in handleCountdownFired
// makes the stale delivery a no-op instead of ending the wrong round.
func scheduleCountdown(mailbox chan Inbound, gen int, d time.Duration) {
	go func() {
		time.Sleep(d)
		select {
		case mailbox <- countdownFired{generation: gen}:
		default:
		}
	}()
}

func removeToken(order []token.UserToken, t token.UserToken) []token.UserToken {
	out := order[:0]
	for _, tok := range order {
		if tok != t {
			out = append(out, tok)
		}
	}
	return out
}

func namesInOrder(order []token.UserToken, lookup map[token.UserToken]string) []string {
	names := make([]string, 0, len(order))
	for _, tok := range order {
		if n, ok := lookup[tok]; ok {
			names = append(names, n)
		}
	}
	return names
}

func closeAll(participants map[token.UserToken]participant) {
	for _, p := range participants {
		close(p.outbound)
	}
}

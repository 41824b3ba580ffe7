package manager

import (
	"testing"
	"time"

	"github.com/wordloop/hangman/internal/message"
	"github.com/wordloop/hangman/internal/oracle"
	"github.com/wordloop/hangman/internal/token"
	"github.com/wordloop/hangman/internal/wordsource"
)

// singleWordDeps builds Deps whose Word Source always samples target,
// regardless of language or difficulty, so scenario tests can inject a
// deterministic word as spec.md §8 calls for.
func singleWordDeps(t *testing.T, target string) Deps {
	t.Helper()
	dir := t.TempDir()
	prePath, err := wordsource.PreprocessedPath(dir, message.LanguageEnglish)
	if err != nil {
		t.Fatal(err)
	}
	if err := wordsource.WritePreprocessed(prePath, []string{target}); err != nil {
		t.Fatal(err)
	}
	src, err := wordsource.Load(dir, []message.GameLanguage{message.LanguageEnglish})
	if err != nil {
		t.Fatal(err)
	}
	return Deps{Words: src, RoundDuration: 50 * time.Millisecond}
}

func teamSettings() message.GameSettings {
	return message.GameSettings{Mode: message.ModeTeam, Language: message.LanguageEnglish, Difficulty: message.DifficultyMedium}
}

func startTeamRoom(settings message.GameSettings, owner token.UserToken, deps Deps) chan Inbound {
	mailbox := make(chan Inbound, mailboxCapacity)
	go runTeamLoop(mailbox, token.GameCode(1), settings, owner, deps, func() {})
	return mailbox
}

func waitTeamEnvelope(t *testing.T, ch chan message.ServerMessage) message.Game[message.TeamState] {
	t.Helper()
	select {
	case m := <-ch:
		tug, ok := m.(message.TeamUpdateGame)
		if !ok {
			t.Fatalf("unexpected message type %T", m)
		}
		return tug.Game
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for team envelope")
	}
	return message.Game[message.TeamState]{}
}

func expectNoTeamEnvelope(t *testing.T, ch chan message.ServerMessage) {
	t.Helper()
	select {
	case m := <-ch:
		t.Fatalf("expected no broadcast, got %#v", m)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTeamHappyPathSolve(t *testing.T) {
	owner, bob := token.UserToken(1), token.UserToken(2)
	deps := singleWordDeps(t, "apple")
	mailbox := startTeamRoom(teamSettings(), owner, deps)

	outA := make(chan message.ServerMessage, 8)
	mailbox <- JoinInbound{User: message.User{Nickname: "Alice", Token: owner}, Outbound: outA}
	env := waitTeamEnvelope(t, outA)
	if env.State != nil {
		t.Fatalf("expected Waiting (state=none), got %+v", env.State)
	}
	if env.OwnerHash != owner.Hashed() {
		t.Fatalf("expected owner_hash to be hash of owner token")
	}

	outB := make(chan message.ServerMessage, 8)
	mailbox <- JoinInbound{User: message.User{Nickname: "Bob", Token: bob}, Outbound: outB}
	waitTeamEnvelope(t, outA) // Alice sees Bob join
	env = waitTeamEnvelope(t, outB)
	if len(env.Players) != 2 {
		t.Fatalf("expected 2 players, got %v", env.Players)
	}

	mailbox <- ClientInbound{Token: owner, Message: message.ClientMessage{Kind: message.ClientNextRound}}
	env = waitTeamEnvelope(t, outA)
	waitTeamEnvelope(t, outB)
	if env.State == nil || env.State.Word != "_____" || env.State.TriesUsed != 0 || env.State.RoundFinished {
		t.Fatalf("expected started round with blank word, got %+v", env.State)
	}

	mailbox <- ClientInbound{Token: owner, Message: message.ClientMessage{Kind: message.ClientChatMessage, Chat: "a"}}
	env = waitTeamEnvelope(t, outA)
	waitTeamEnvelope(t, outB)
	if env.State.Word != "a____" {
		t.Fatalf("expected single 'a' revealed, got %q", env.State.Word)
	}
	if env.State.TriesUsed != 0 {
		t.Fatalf("a Hit must not consume a try, got tries_used=%d", env.State.TriesUsed)
	}

	mailbox <- ClientInbound{Token: bob, Message: message.ClientMessage{Kind: message.ClientChatMessage, Chat: "apple"}}
	env = waitTeamEnvelope(t, outA)
	waitTeamEnvelope(t, outB)
	if env.State.Word != "apple" || !env.State.RoundFinished {
		t.Fatalf("expected solved round, got %+v", env.State)
	}

	mailbox <- ClientInbound{Token: owner, Message: message.ClientMessage{Kind: message.ClientChatMessage, Chat: "x"}}
	expectNoTeamEnvelope(t, outA)
	expectNoTeamEnvelope(t, outB)
}

func TestTeamOutOfTries(t *testing.T) {
	owner := token.UserToken(1)
	deps := singleWordDeps(t, "dog")
	mailbox := startTeamRoom(teamSettings(), owner, deps)

	out := make(chan message.ServerMessage, 16)
	mailbox <- JoinInbound{User: message.User{Nickname: "Alice", Token: owner}, Outbound: out}
	waitTeamEnvelope(t, out)

	mailbox <- ClientInbound{Token: owner, Message: message.ClientMessage{Kind: message.ClientNextRound}}
	waitTeamEnvelope(t, out)

	guesses := []string{"x", "y", "z", "q", "w", "r", "t", "u", "i"}
	var env message.Game[message.TeamState]
	for i, g := range guesses {
		mailbox <- ClientInbound{Token: owner, Message: message.ClientMessage{Kind: message.ClientChatMessage, Chat: g}}
		env = waitTeamEnvelope(t, out)
		if env.State.TriesUsed != i+1 {
			t.Fatalf("guess %d: expected tries_used=%d, got %d", i, i+1, env.State.TriesUsed)
		}
	}
	if !env.State.RoundFinished {
		t.Fatalf("expected round finished after 9 misses")
	}
	if env.State.TriesUsed != 9 {
		t.Fatalf("expected tries_used=9, got %d", env.State.TriesUsed)
	}
	last := env.State.Chat[len(env.State.Chat)-1]
	if last.Color != message.ColorRed || last.From != nil {
		t.Fatalf("expected a red system banner at the end, got %+v", last)
	}
}

func TestTeamNextRoundDuringLiveRoundIsIgnored(t *testing.T) {
	owner := token.UserToken(1)
	deps := singleWordDeps(t, "cat")
	mailbox := startTeamRoom(teamSettings(), owner, deps)

	out := make(chan message.ServerMessage, 8)
	mailbox <- JoinInbound{User: message.User{Nickname: "Alice", Token: owner}, Outbound: out}
	waitTeamEnvelope(t, out)
	mailbox <- ClientInbound{Token: owner, Message: message.ClientMessage{Kind: message.ClientNextRound}}
	waitTeamEnvelope(t, out)

	mailbox <- ClientInbound{Token: owner, Message: message.ClientMessage{Kind: message.ClientNextRound}}
	expectNoTeamEnvelope(t, out)
}

func TestTeamOwnerLeaveClosesRoom(t *testing.T) {
	owner, bob := token.UserToken(1), token.UserToken(2)
	deps := singleWordDeps(t, "cat")
	mailbox := startTeamRoom(teamSettings(), owner, deps)

	outA := make(chan message.ServerMessage, 8)
	mailbox <- JoinInbound{User: message.User{Nickname: "Alice", Token: owner}, Outbound: outA}
	waitTeamEnvelope(t, outA)

	outB := make(chan message.ServerMessage, 8)
	mailbox <- JoinInbound{User: message.User{Nickname: "Bob", Token: bob}, Outbound: outB}
	waitTeamEnvelope(t, outA)
	waitTeamEnvelope(t, outB)

	mailbox <- LeaveInbound{Token: owner}

	// Bob must receive a final broadcast and then see his outbound queue
	// closed, which is how a session learns to send close code 4001.
	waitTeamEnvelope(t, outB)
	select {
	case _, open := <-outB:
		if open {
			t.Fatalf("expected outbound channel to be closed after owner leaves")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound channel to close")
	}
}

// TestGuessInvariants checks the oracle-level invariants spec.md §8 lists:
// a Miss never changes the rendered word, a Hit strictly reveals at
// least one slot, and a Solved leaves zero Unknowns.
func TestGuessInvariants(t *testing.T) {
	w := oracle.New("banana", message.LanguageEnglish)
	before := w.Render()
	if w.Guess("z") != oracle.Miss {
		t.Fatal("expected Miss")
	}
	if w.Render() != before {
		t.Fatalf("Miss must not change the rendered word: %q != %q", w.Render(), before)
	}

	unknownBefore := w.UnknownCount()
	if w.Guess("a") == oracle.Miss {
		t.Fatal("expected a Hit or Solved for 'a'")
	}
	if w.UnknownCount() >= unknownBefore {
		t.Fatalf("a Hit must strictly decrease Unknown count: before=%d after=%d", unknownBefore, w.UnknownCount())
	}

	if w.Guess("banana") != oracle.Solved {
		t.Fatal("expected whole-word guess to solve")
	}
	if w.UnknownCount() != 0 {
		t.Fatalf("expected zero Unknowns after Solved, got %d", w.UnknownCount())
	}
}

func TestRankScoresDenseRanking(t *testing.T) {
	scores := message.RankScores([]string{"Alice", "Bob", "Carol", "Dave"}, []int{5, 5, 3, 1})
	want := []int{1, 1, 2, 3}
	for i, s := range scores {
		if s.Rank != want[i] {
			t.Fatalf("rank %d: expected %d, got %d", i, want[i], s.Rank)
		}
	}
}

func TestWholeWordGuessPreservesTargetCase(t *testing.T) {
	w := oracle.New("Banane", message.LanguageGerman)
	if w.Guess("banane") != oracle.Solved {
		t.Fatal("expected case-insensitive whole-word solve")
	}
	if w.Render() != "Banane" {
		t.Fatalf("expected rendered word to preserve target casing, got %q", w.Render())
	}
}

package message

import (
	"encoding/json"
	"testing"
)

func TestGameSettingsDefaultDifficulty(t *testing.T) {
	var s GameSettings
	if err := json.Unmarshal([]byte(`{"mode":"team","language":"english"}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.Difficulty != DifficultyMedium {
		t.Fatalf("expected default difficulty medium, got %q", s.Difficulty)
	}
}

func TestGameSettingsExplicitDifficultyWins(t *testing.T) {
	var s GameSettings
	if err := json.Unmarshal([]byte(`{"mode":"team","language":"english","difficulty":"insane"}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.Difficulty != DifficultyInsane {
		t.Fatalf("expected insane, got %q", s.Difficulty)
	}
}

func TestClientMessageRoundTrip(t *testing.T) {
	chat := ClientMessage{Kind: ClientChatMessage, Chat: "apple"}
	data, err := json.Marshal(chat)
	if err != nil {
		t.Fatal(err)
	}

	var decoded ClientMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded != chat {
		t.Fatalf("round-trip mismatch: %+v != %+v", decoded, chat)
	}

	next := ClientMessage{Kind: ClientNextRound}
	data, err = json.Marshal(next)
	if err != nil {
		t.Fatal(err)
	}
	var decodedNext ClientMessage
	if err := json.Unmarshal(data, &decodedNext); err != nil {
		t.Fatal(err)
	}
	if decodedNext.Kind != ClientNextRound {
		t.Fatalf("expected next_round, got %+v", decodedNext)
	}
}

func TestClientMessageUnknownTypeFails(t *testing.T) {
	var m ClientMessage
	if err := json.Unmarshal([]byte(`{"type":"nope"}`), &m); err == nil {
		t.Fatal("expected error for unknown client message type")
	}
}

func TestServerMessageWireShape(t *testing.T) {
	g := Game[TeamState]{
		Players: []string{"Alice"},
		State: &TeamState{
			Players: []string{"Alice"},
			Word:    "a___e",
		},
	}
	msg := TeamUpdateGame{Game: g}
	data, err := msg.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		t.Fatal(err)
	}
	var outerType string
	if err := json.Unmarshal(outer["type"], &outerType); err != nil {
		t.Fatal(err)
	}
	if outerType != "team" {
		t.Fatalf("expected outer type team, got %q", outerType)
	}

	var inner map[string]json.RawMessage
	if err := json.Unmarshal(outer["data"], &inner); err != nil {
		t.Fatal(err)
	}
	var innerType string
	if err := json.Unmarshal(inner["type"], &innerType); err != nil {
		t.Fatal(err)
	}
	if innerType != "update_game" {
		t.Fatalf("expected inner type update_game, got %q", innerType)
	}
}

func TestRankScoresDenseRanking(t *testing.T) {
	names := []string{"Alice", "Bob", "Carl", "Dana"}
	scores := []int{3, 3, 2, 0}
	ranked := RankScores(names, scores)

	want := []int{1, 1, 2, 3}
	for i, s := range ranked {
		if s.Rank != want[i] {
			t.Errorf("rank[%d] = %d, want %d", i, s.Rank, want[i])
		}
	}
}

func TestEqualByteIdentical(t *testing.T) {
	a := TeamUpdateGame{Game: Game[TeamState]{Players: []string{"A"}}}
	b := TeamUpdateGame{Game: Game[TeamState]{Players: []string{"A"}}}
	eq, err := Equal(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !eq {
		t.Fatal("expected byte-identical messages to compare equal")
	}

	c := TeamUpdateGame{Game: Game[TeamState]{Players: []string{"B"}}}
	eq, err = Equal(a, c)
	if err != nil {
		t.Fatal(err)
	}
	if eq {
		t.Fatal("expected differing messages to compare unequal")
	}
}

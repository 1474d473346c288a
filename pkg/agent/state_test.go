package agent

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadStateMissingFile(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "agent_state.json"))
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(state.History) != 0 || len(state.StreamedSubmissions) != 0 {
		t.Fatalf("expected zero state, got %+v", state)
	}
	if !state.StreamedSubmissionsUntil.Equal(time.Unix(0, 0).UTC()) {
		t.Fatalf("watermark = %v", state.StreamedSubmissionsUntil)
	}
}

func TestStateSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_state.json")
	state := &State{
		History:                  []HistoryItem{{NotesAndStrategy: "replied to a post"}},
		StreamedSubmissions:      []StreamedSubmission{{ID: "p1", Timestamp: time.Now().UTC().Truncate(time.Second)}},
		StreamedSubmissionsUntil: time.Now().UTC().Truncate(time.Second),
	}
	if err := state.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(loaded.History) != 1 || loaded.History[0].NotesAndStrategy != "replied to a post" {
		t.Fatalf("history lost: %+v", loaded.History)
	}
	if len(loaded.StreamedSubmissions) != 1 || loaded.StreamedSubmissions[0].ID != "p1" {
		t.Fatalf("streamed submissions lost: %+v", loaded.StreamedSubmissions)
	}
}

func TestAppendHistoryBounded(t *testing.T) {
	state := &State{}
	for i := 0; i < 5; i++ {
		state.AppendHistory(HistoryItem{NotesAndStrategy: string(rune('a' + i))}, 3)
	}
	if len(state.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(state.History))
	}
	if state.History[0].NotesAndStrategy != "c" {
		t.Fatalf("oldest kept item = %q, want c", state.History[0].NotesAndStrategy)
	}
}

func TestPushStreamedDeduplicates(t *testing.T) {
	state := &State{}
	now := time.Now().UTC()
	if !state.PushStreamed("p1", now) {
		t.Fatal("first push rejected")
	}
	if state.PushStreamed("p1", now) {
		t.Fatal("duplicate push accepted")
	}
	if len(state.StreamedSubmissions) != 1 {
		t.Fatalf("streamed submissions = %d", len(state.StreamedSubmissions))
	}
}

func TestPopStreamedReturnsNewest(t *testing.T) {
	state := &State{}
	now := time.Now().UTC()
	state.PushStreamed("p1", now.Add(-time.Minute))
	state.PushStreamed("p2", now)

	popped, ok := state.PopStreamed()
	if !ok || popped.ID != "p2" {
		t.Fatalf("popped = %+v, ok = %v", popped, ok)
	}
	if len(state.StreamedSubmissions) != 1 {
		t.Fatalf("remaining = %d", len(state.StreamedSubmissions))
	}

	if _, ok := (&State{}).PopStreamed(); ok {
		t.Fatal("pop on empty state succeeded")
	}
}

func TestPruneStreamedDropsOldAndCaps(t *testing.T) {
	state := &State{}
	now := time.Now().UTC()
	state.PushStreamed("old", now.Add(-48*time.Hour))
	for i := 0; i < 12; i++ {
		state.PushStreamed(string(rune('a'+i)), now.Add(-time.Duration(i)*time.Minute))
	}

	state.PruneStreamed(now, 24*time.Hour)
	if len(state.StreamedSubmissions) != maxStreamedSubmissions {
		t.Fatalf("kept %d, want %d", len(state.StreamedSubmissions), maxStreamedSubmissions)
	}
	for _, sub := range state.StreamedSubmissions {
		if sub.ID == "old" {
			t.Fatal("stale submission survived pruning")
		}
	}
}

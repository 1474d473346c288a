package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// maxStreamedSubmissions caps how many pending submissions the state keeps.
const maxStreamedSubmissions = 8

// HistoryItem is one note the agent kept about a past action.
type HistoryItem struct {
	NotesAndStrategy string `json:"notes_and_strategy"`
}

// StreamedSubmission is a pending submission the agent has not reacted to yet.
type StreamedSubmission struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the persisted agent state.
type State struct {
	History                  []HistoryItem        `json:"history"`
	StreamedSubmissions      []StreamedSubmission `json:"streamed_submissions"`
	StreamedSubmissionsUntil time.Time            `json:"streamed_submissions_until_timestamp"`
}

// LoadState reads the state file, returning a zero state when it does not
// exist yet.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{StreamedSubmissionsUntil: time.Unix(0, 0).UTC()}, nil
		}
		return nil, err
	}
	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return state, nil
}

// Save writes the state to path.
func (s *State) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AppendHistory adds a note, keeping at most max entries.
func (s *State) AppendHistory(item HistoryItem, max int) {
	s.History = append(s.History, item)
	if max > 0 && len(s.History) > max {
		s.History = s.History[len(s.History)-max:]
	}
}

// PushStreamed records a pending submission unless it is already tracked.
func (s *State) PushStreamed(id string, ts time.Time) bool {
	for _, existing := range s.StreamedSubmissions {
		if existing.ID == id {
			return false
		}
	}
	s.StreamedSubmissions = append(s.StreamedSubmissions, StreamedSubmission{ID: id, Timestamp: ts})
	return true
}

// PopStreamed removes and returns the most recent pending submission.
func (s *State) PopStreamed() (StreamedSubmission, bool) {
	if len(s.StreamedSubmissions) == 0 {
		return StreamedSubmission{}, false
	}
	last := s.StreamedSubmissions[len(s.StreamedSubmissions)-1]
	s.StreamedSubmissions = s.StreamedSubmissions[:len(s.StreamedSubmissions)-1]
	return last, true
}

// PruneStreamed drops pending submissions older than maxAge and keeps at most
// maxStreamedSubmissions of the rest.
func (s *State) PruneStreamed(now time.Time, maxAge time.Duration) {
	kept := make([]StreamedSubmission, 0, len(s.StreamedSubmissions))
	for _, sub := range s.StreamedSubmissions {
		if sub.Timestamp.After(now.Add(-maxAge)) {
			kept = append(kept, sub)
		}
	}
	if len(kept) > maxStreamedSubmissions {
		kept = kept[len(kept)-maxStreamedSubmissions:]
	}
	s.StreamedSubmissions = kept
}

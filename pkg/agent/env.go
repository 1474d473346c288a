// Package agent runs the event loop that reacts to Reddit activity with
// LLM-generated replies.
package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/regentbot/regent/pkg/config"
	"github.com/regentbot/regent/pkg/fmtlog"
	"github.com/regentbot/regent/pkg/logger"
	"github.com/regentbot/regent/pkg/provider"
	"github.com/regentbot/regent/pkg/reddit"
)

// Reddit is the slice of the Reddit client the agent needs. *reddit.Client
// implements it; tests substitute fakes.
type Reddit interface {
	Me(ctx context.Context) (*reddit.Account, error)
	Submission(ctx context.Context, id string) (*reddit.Submission, error)
	SubmissionComments(ctx context.Context, id string) (*reddit.Submission, []*reddit.Comment, error)
	InboxUnread(ctx context.Context) ([]*reddit.Comment, error)
	MarkRead(ctx context.Context, fullname string) error
	Reply(ctx context.Context, fullname, text string) error
	Submit(ctx context.Context, subreddit, title, text string) error
	LatestSubmissionBy(ctx context.Context, username string) (*reddit.Submission, error)
	Conversation(ctx context.Context, commentID string) ([]reddit.ConversationItem, error)
}

// Env bundles everything one agent run needs.
type Env struct {
	Config   *config.AgentConfig
	Provider provider.Provider
	Reddit   Reddit
	State    *State

	// StateFile is where State is persisted after each mutation.
	StateFile string
	// Stream delivers new submissions from the configured subreddits.
	Stream <-chan *reddit.Submission
	// TestMode gates actions behind interactive confirmation.
	TestMode bool
	// Interval is the pause between event cycles outside test mode.
	Interval time.Duration
	// Username of the logged-in account, filled in by Run.
	Username string

	Log logger.Logger
	Fmt *fmtlog.Log

	// In and Out drive the test-mode confirmations.
	In  io.Reader
	Out io.Writer
}

// NewEnv loads the persisted state and fills in defaults.
func NewEnv(cfg *config.AgentConfig, p provider.Provider, r Reddit, stateFile string) (*Env, error) {
	state, err := LoadState(stateFile)
	if err != nil {
		return nil, fmt.Errorf("load agent state: %w", err)
	}
	return &Env{
		Config:    cfg,
		Provider:  p,
		Reddit:    r,
		State:     state,
		StateFile: stateFile,
		Interval:  10 * time.Second,
		Log:       logger.NopLogger{},
		Fmt:       fmtlog.New(),
		In:        os.Stdin,
		Out:       os.Stdout,
	}, nil
}

// SaveState persists the current state.
func (e *Env) SaveState() error {
	if e.StateFile == "" {
		return nil
	}
	return e.State.Save(e.StateFile)
}

func (e *Env) saveResult(notesAndStrategy string) {
	e.State.AppendHistory(HistoryItem{NotesAndStrategy: notesAndStrategy}, e.Config.MaxHistoryLength)
	if err := e.SaveState(); err != nil {
		e.Log.Error("save agent state", map[string]any{"error": err.Error()})
	}
}

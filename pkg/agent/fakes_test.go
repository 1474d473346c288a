package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/regentbot/regent/pkg/config"
	"github.com/regentbot/regent/pkg/fmtlog"
	"github.com/regentbot/regent/pkg/logger"
	"github.com/regentbot/regent/pkg/provider"
	"github.com/regentbot/regent/pkg/reddit"
)

// fakeReddit implements the Reddit interface with canned data and records
// the writes it receives.
type fakeReddit struct {
	account     *reddit.Account
	submissions map[string]*reddit.Submission
	comments    map[string][]*reddit.Comment
	inbox       []*reddit.Comment
	latest      *reddit.Submission
	chain       []reddit.ConversationItem

	replies    []string
	replyTexts []string
	submitted  []string
	markedRead []string
	replyErr   error
}

func newFakeReddit() *fakeReddit {
	return &fakeReddit{
		account:     &reddit.Account{ID: "u1", Name: "regent_bot"},
		submissions: map[string]*reddit.Submission{},
		comments:    map[string][]*reddit.Comment{},
	}
}

func (f *fakeReddit) Me(context.Context) (*reddit.Account, error) { return f.account, nil }

func (f *fakeReddit) Submission(_ context.Context, id string) (*reddit.Submission, error) {
	s, ok := f.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %s not found", id)
	}
	return s, nil
}

func (f *fakeReddit) SubmissionComments(_ context.Context, id string) (*reddit.Submission, []*reddit.Comment, error) {
	s, ok := f.submissions[id]
	if !ok {
		return nil, nil, fmt.Errorf("submission %s not found", id)
	}
	return s, f.comments[id], nil
}

func (f *fakeReddit) InboxUnread(context.Context) ([]*reddit.Comment, error) {
	return f.inbox, nil
}

func (f *fakeReddit) MarkRead(_ context.Context, fullname string) error {
	f.markedRead = append(f.markedRead, fullname)
	return nil
}

func (f *fakeReddit) Reply(_ context.Context, fullname, text string) error {
	if f.replyErr != nil {
		return f.replyErr
	}
	f.replies = append(f.replies, fullname)
	f.replyTexts = append(f.replyTexts, text)
	return nil
}

func (f *fakeReddit) Submit(_ context.Context, subreddit, title, _ string) error {
	f.submitted = append(f.submitted, subreddit+"/"+title)
	return nil
}

func (f *fakeReddit) LatestSubmissionBy(context.Context, string) (*reddit.Submission, error) {
	return f.latest, nil
}

func (f *fakeReddit) Conversation(context.Context, string) ([]reddit.ConversationItem, error) {
	return f.chain, nil
}

// fakeProvider returns a fixed decision.
type fakeProvider struct {
	decision *provider.ReplyDecision
	err      error
	prompts  []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GenerateReply(_ context.Context, systemPrompt string) (*provider.ReplyDecision, error) {
	f.prompts = append(f.prompts, systemPrompt)
	return f.decision, f.err
}

func testEnv(r Reddit, p provider.Provider) *Env {
	return &Env{
		Config: &config.AgentConfig{
			Name:                       "test-agent",
			AgentInstructions:          "be helpful",
			ActiveOnSubreddits:         []string{"golang"},
			MaxPostAgeForReplyingHours: 24,
			MinimumTimeBetweenPostsHrs: 1,
			MaxHistoryLength:           10,
			MaxCommentTreeSize:         20,
		},
		Provider: p,
		Reddit:   r,
		State:    &State{StreamedSubmissionsUntil: time.Unix(0, 0).UTC()},
		Username: "regent_bot",
		Log:      logger.NopLogger{},
		Fmt:      fmtlog.New(),
	}
}

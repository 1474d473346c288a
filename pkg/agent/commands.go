package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/regentbot/regent/pkg/reddit"
)

// Command is one action the agent can take against its environment. Results
// are maps so failures travel back to the model as data instead of aborting
// the loop.
type Command interface {
	Execute(ctx context.Context, env *Env) map[string]any
}

type commandDecoder func(args []string) (Command, error)

var commandRegistry = map[string]commandDecoder{
	"show_username":                       decodeShowUsername,
	"show_new_post":                       decodeShowNewPost,
	"show_conversation_with_new_activity": decodeShowConversation,
	"reply_to_content":                    decodeReplyToContent,
	"create_post":                         decodeCreatePost,
}

// DecodeCommand resolves a named command and its arguments.
func DecodeCommand(name string, args []string) (Command, error) {
	decoder, ok := commandRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown command: %q", name)
	}
	return decoder(args)
}

// CommandNames lists the registered command names.
func CommandNames() []string {
	names := make([]string, 0, len(commandRegistry))
	for name := range commandRegistry {
		names = append(names, name)
	}
	return names
}

func arity(name string, args []string, want int) error {
	if len(args) != want {
		return fmt.Errorf("%s requires %d arguments, got %d", name, want, len(args))
	}
	return nil
}

// ShowUsername reports the logged-in account name.
type ShowUsername struct{}

func decodeShowUsername(args []string) (Command, error) {
	if err := arity("show_username", args, 0); err != nil {
		return nil, err
	}
	return ShowUsername{}, nil
}

func (ShowUsername) Execute(ctx context.Context, env *Env) map[string]any {
	account, err := env.Reddit.Me(ctx)
	if err != nil {
		env.Log.Error("get username", map[string]any{"error": err.Error()})
		return map[string]any{"error": "Could not get username"}
	}
	return map[string]any{"username": account.Name}
}

// ShowNewPost pops the most recent pending submission and renders it.
type ShowNewPost struct{}

func decodeShowNewPost(args []string) (Command, error) {
	if err := arity("show_new_post", args, 0); err != nil {
		return nil, err
	}
	return ShowNewPost{}, nil
}

func (ShowNewPost) Execute(ctx context.Context, env *Env) map[string]any {
	pending, ok := env.State.PopStreamed()
	if !ok {
		return map[string]any{"note": "No new submissions"}
	}
	submission, err := env.Reddit.Submission(ctx, pending.ID)
	if err != nil {
		env.Log.Error("fetch new post", map[string]any{"id": pending.ID, "error": err.Error()})
		return map[string]any{"error": "Could not fetch new post"}
	}
	return map[string]any{
		"post": map[string]any{
			"content_id": reddit.SubmissionPrefix + submission.ID,
			"author":     submission.AuthorName(),
			"title":      submission.Title,
			"text":       submission.Selftext,
		},
	}
}

// ShowConversationWithNewActivity pops the first unread inbox comment and
// renders the thread it belongs to.
type ShowConversationWithNewActivity struct{}

func decodeShowConversation(args []string) (Command, error) {
	if err := arity("show_conversation_with_new_activity", args, 0); err != nil {
		return nil, err
	}
	return ShowConversationWithNewActivity{}, nil
}

func (ShowConversationWithNewActivity) Execute(ctx context.Context, env *Env) map[string]any {
	comments, err := env.Reddit.InboxUnread(ctx)
	if err != nil {
		env.Log.Error("list inbox", map[string]any{"error": err.Error()})
		return map[string]any{"error": "Could not show conversation"}
	}
	if len(comments) == 0 {
		return map[string]any{"note": "No new comments in inbox"}
	}
	comment := comments[0]
	conversation, err := env.Reddit.Conversation(ctx, comment.ID)
	if err != nil {
		env.Log.Error("show conversation", map[string]any{"comment": comment.ID, "error": err.Error()})
		return map[string]any{"error": "Could not show conversation"}
	}
	if env.approve("Mark comment as read?") {
		if err := env.Reddit.MarkRead(ctx, reddit.CommentPrefix+comment.ID); err != nil {
			env.Log.Error("mark comment read", map[string]any{"comment": comment.ID, "error": err.Error()})
		}
	}
	return map[string]any{"conversation": conversation}
}

// ReplyToContent comments on a submission or comment by content id.
type ReplyToContent struct {
	ContentID string
	ReplyText string
}

func decodeReplyToContent(args []string) (Command, error) {
	if err := arity("reply_to_content", args, 2); err != nil {
		return nil, err
	}
	return ReplyToContent{ContentID: args[0], ReplyText: args[1]}, nil
}

func (c ReplyToContent) Execute(ctx context.Context, env *Env) map[string]any {
	switch {
	case strings.HasPrefix(c.ContentID, reddit.SubmissionPrefix):
		id := strings.TrimPrefix(c.ContentID, reddit.SubmissionPrefix)
		if _, err := env.Reddit.Submission(ctx, id); err != nil {
			return map[string]any{"error": fmt.Sprintf("Could not fetch post with ID: %s", c.ContentID)}
		}
	case strings.HasPrefix(c.ContentID, reddit.CommentPrefix):
		// Fullname is usable directly; existence is checked by the reply call.
	default:
		return map[string]any{"error": fmt.Sprintf("Invalid content ID: %s", c.ContentID)}
	}

	if err := env.Reddit.Reply(ctx, c.ContentID, c.ReplyText); err != nil {
		env.Log.Error("post reply", map[string]any{"content_id": c.ContentID, "error": err.Error()})
		return map[string]any{"error": fmt.Sprintf("Could not reply to content with ID: %s", c.ContentID)}
	}
	return map[string]any{"result": "Reply posted successfully"}
}

// CreatePost submits a self post, enforcing the minimum interval since the
// account's last post.
type CreatePost struct {
	Subreddit string
	PostTitle string
	PostText  string
}

func decodeCreatePost(args []string) (Command, error) {
	if err := arity("create_post", args, 3); err != nil {
		return nil, err
	}
	return CreatePost{Subreddit: args[0], PostTitle: args[1], PostText: args[2]}, nil
}

func (c CreatePost) Execute(ctx context.Context, env *Env) map[string]any {
	account, err := env.Reddit.Me(ctx)
	if err != nil {
		env.Log.Error("get current user", map[string]any{"error": err.Error()})
		return map[string]any{"error": "Could not create post"}
	}
	latest, err := env.Reddit.LatestSubmissionBy(ctx, account.Name)
	if err != nil {
		env.Log.Error("fetch latest submission", map[string]any{"error": err.Error()})
		return map[string]any{"error": "Could not create post"}
	}

	minInterval := time.Duration(env.Config.MinimumTimeBetweenPostsHrs) * time.Hour
	if latest != nil && time.Since(latest.Created()) < minInterval {
		return map[string]any{
			"error": fmt.Sprintf(
				"Not enough time has passed since the last post, which was published %s. Minimum time between posts is %d hours.",
				latest.Created().Format(time.RFC3339), env.Config.MinimumTimeBetweenPostsHrs,
			),
		}
	}

	if err := env.Reddit.Submit(ctx, c.Subreddit, c.PostTitle, c.PostText); err != nil {
		env.Log.Error("create post", map[string]any{"subreddit": c.Subreddit, "error": err.Error()})
		return map[string]any{"error": "Could not create post"}
	}
	return map[string]any{"result": "Post created"}
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/regentbot/regent/pkg/fmtlog"
	"github.com/regentbot/regent/pkg/reddit"
)

// Run executes the agent loop until ctx is canceled. Errors inside a cycle
// are logged; only setup failures abort the run.
func Run(ctx context.Context, env *Env) error {
	account, err := env.Reddit.Me(ctx)
	if err != nil {
		return fmt.Errorf("log in: %w", err)
	}
	env.Username = account.Name
	env.Fmt.Textf("Logged in as: %s", env.Username)

	// Give the streamer a moment to deliver the first backlog.
	env.drainStream(true)

	for {
		if err := env.handleEvent(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			env.Log.Error("handle event", map[string]any{"error": err.Error()})
		}

		if env.TestMode {
			confirmEnter(env.In, env.Out)
		} else {
			env.Fmt.Textf("Waiting %s before handling the next event.", env.Interval)
			select {
			case <-time.After(env.Interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// drainStream moves queued submissions from the streamer into the persisted
// state. With wait set it blocks briefly for the first delivery.
func (e *Env) drainStream(wait bool) {
	if e.Stream == nil {
		return
	}
	for {
		var s *reddit.Submission
		if wait {
			select {
			case s = <-e.Stream:
			case <-time.After(10 * time.Second):
			}
			wait = false
		} else {
			select {
			case s = <-e.Stream:
			default:
			}
		}
		if s == nil {
			break
		}

		created := s.Created()
		if !created.After(e.State.StreamedSubmissionsUntil) {
			e.Log.Debug("skipping already covered post", map[string]any{"id": s.ID, "title": s.Title})
			continue
		}
		e.State.StreamedSubmissionsUntil = created
		if e.State.PushStreamed(s.ID, created) {
			e.Log.Debug("queued post", map[string]any{"id": s.ID, "title": s.Title})
		} else {
			e.Log.Info("skipping already streamed post", map[string]any{"id": s.ID, "title": s.Title})
		}
	}

	maxAge := time.Duration(e.Config.MaxPostAgeForReplyingHours) * time.Hour
	e.State.PruneStreamed(time.Now().UTC(), maxAge)
	if err := e.SaveState(); err != nil {
		e.Log.Error("save agent state", map[string]any{"error": err.Error()})
	}
}

// handleEvent reacts to the highest-priority pending event: an unread inbox
// comment first, then a queued submission.
func (e *Env) handleEvent(ctx context.Context) error {
	e.Fmt.Text("Waiting for event...")

	comments, err := e.Reddit.InboxUnread(ctx)
	if err != nil {
		return fmt.Errorf("list inbox: %w", err)
	}
	e.Fmt.Textf("Number of messages in inbox: %d", len(comments))
	e.Fmt.Textf("Number of unread posts: %d", len(e.State.StreamedSubmissions))
	e.drainStream(false)

	if len(comments) > 0 {
		if err := e.handleInboxComment(ctx, comments[0]); err != nil {
			return err
		}
	}

	if len(e.State.StreamedSubmissions) > 0 {
		return e.handleQueuedSubmission(ctx)
	}
	if len(comments) == 0 {
		e.Fmt.Text("No new events.")
	}
	return nil
}

func (e *Env) handleInboxComment(ctx context.Context, comment *reddit.Comment) error {
	conversation, err := e.Reddit.Conversation(ctx, comment.ID)
	if err != nil {
		return fmt.Errorf("show conversation: %w", err)
	}
	conversationJSON, err := json.MarshalIndent(conversation, "", "  ")
	if err != nil {
		return err
	}

	e.Fmt.Header(3, "New inbox comment event:")
	e.Fmt.Textf("From: %s", comment.AuthorName())
	e.Fmt.Textf("Comment: %s", comment.Body)
	e.Fmt.Textf("Link: https://reddit.com%s", comment.Context)

	eventMessage := fmt.Sprintf(
		"You have a new comment in your inbox. Here is the conversation:\n\n```json\n%s\n```",
		conversationJSON,
	)
	e.generateAndReply(ctx, e.SystemPromptForEvent(eventMessage), reddit.CommentPrefix+comment.ID, nil)

	if e.approve("Mark comment as read?") {
		if err := e.Reddit.MarkRead(ctx, reddit.CommentPrefix+comment.ID); err != nil {
			e.Log.Error("mark comment read", map[string]any{"comment": comment.ID, "error": err.Error()})
		}
	}
	return nil
}

func (e *Env) handleQueuedSubmission(ctx context.Context) error {
	pending := e.State.StreamedSubmissions[len(e.State.StreamedSubmissions)-1]
	submission, comments, err := e.Reddit.SubmissionComments(ctx, pending.ID)
	if err != nil {
		return fmt.Errorf("fetch submission %s: %w", pending.ID, err)
	}

	if submission.Author == "" {
		e.Log.Info("skipping post with unknown author", map[string]any{"id": submission.ID, "title": submission.Title})
	} else {
		tree := reddit.BuildTree(submission, comments, e.Config.MaxCommentTreeSize)
		treeJSON, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return err
		}

		e.Fmt.Header(3, "New post event:")
		e.Fmt.Textf("Subreddit: r/%s", submission.Subreddit)
		e.Fmt.Textf("Title: %s", submission.Title)
		e.Fmt.Textf("URL: %s", submission.URL)
		e.Fmt.Textf("Author: %s", submission.AuthorName())
		e.Fmt.Textf("Text: %s", submission.Selftext)

		eventMessage := fmt.Sprintf(
			"You have a new post in the monitored subreddits. Here is the conversation tree, with the up to %d highest rated comments:\n\n```json\n%s\n```",
			e.Config.MaxCommentTreeSize, treeJSON,
		)
		e.generateAndReply(ctx, e.SystemPromptForEvent(eventMessage), "", tree)
	}

	if e.approve("Remove post from stream?") {
		e.State.PopStreamed()
		if err := e.SaveState(); err != nil {
			e.Log.Error("save agent state", map[string]any{"error": err.Error()})
		}
	}
	return nil
}

// generateAndReply asks the provider for a decision and executes it. For
// inbox events target pins the content id; for post events the decision's
// content id has to exist in the tree.
func (e *Env) generateAndReply(ctx context.Context, systemPrompt, target string, tree *reddit.SubmissionNode) {
	e.Fmt.Text("Generating a reply...")
	decision, err := e.Provider.GenerateReply(ctx, systemPrompt)
	if err != nil {
		e.Log.Error("generate reply", map[string]any{"error": err.Error()})
		e.Fmt.Text("Error: Could not get reply.")
		return
	}

	e.Fmt.Header(3, "Generated reply:")
	e.Fmt.Code(fmtlog.Dump(decision))

	if decision.Data == nil {
		e.Log.Info("no action taken", nil)
		return
	}

	contentID := target
	if contentID == "" {
		contentID = decision.Data.ContentID
		if tree == nil || !tree.FindContent(contentID) {
			e.Log.Error("content id not in tree", map[string]any{"content_id": contentID})
			return
		}
	}

	if !e.approve("Submit the reply?") {
		e.Log.Info("skipped reply submission on user's request", nil)
		return
	}

	command := ReplyToContent{ContentID: contentID, ReplyText: decision.Data.ReplyText}
	result := command.Execute(ctx, e)
	e.Fmt.Header(3, "Action result:")
	e.Fmt.Code(fmtlog.Dump(result))

	e.saveResult(decision.NotesAndStrategy)
}

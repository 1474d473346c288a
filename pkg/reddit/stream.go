package reddit

import (
	"context"
	"strings"
	"time"

	"github.com/regentbot/regent/pkg/logger"
)

// StreamOptions configures the submission streamer.
type StreamOptions struct {
	// Subreddits to poll; joined with "+" into one listing request.
	Subreddits []string
	// Interval between polls. Defaults to 30 seconds.
	Interval time.Duration
	// Limit per poll. Defaults to 25.
	Limit int
	// SkipAuthor drops submissions by this user, typically the agent itself.
	SkipAuthor string
	// MaxAge drops submissions older than this. Zero keeps everything.
	MaxAge time.Duration
	// SelfOnly drops link posts, keeping only text submissions.
	SelfOnly bool

	Logger logger.Logger
}

// StreamSubmissions polls the subreddits' new listings and delivers unseen
// submissions on the returned channel until ctx is canceled. Filtered and
// previously seen submissions are skipped.
func StreamSubmissions(ctx context.Context, client *Client, opts StreamOptions) <-chan *Submission {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Limit <= 0 {
		opts.Limit = 25
	}
	if opts.Logger == nil {
		opts.Logger = logger.NopLogger{}
	}
	multi := strings.Join(opts.Subreddits, "+")

	out := make(chan *Submission)
	go func() {
		defer close(out)

		seen := newSeenSet(4 * opts.Limit)
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()

		for {
			submissions, err := client.SubredditNew(ctx, multi, opts.Limit)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				opts.Logger.Warn("poll subreddit listing", map[string]any{"subreddits": multi, "error": err.Error()})
			}
			// Oldest first, so delivery order follows creation order.
			for i := len(submissions) - 1; i >= 0; i-- {
				s := submissions[i]
				if seen.contains(s.ID) {
					continue
				}
				seen.add(s.ID)
				if skip, reason := shouldSkip(s, opts); skip {
					opts.Logger.Debug("skipping submission", map[string]any{"id": s.ID, "title": s.Title, "reason": reason})
					continue
				}
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func shouldSkip(s *Submission, opts StreamOptions) (bool, string) {
	if opts.SkipAuthor != "" && s.Author == opts.SkipAuthor {
		return true, "own post"
	}
	if opts.SelfOnly && !s.IsSelf {
		return true, "no text body"
	}
	if opts.MaxAge > 0 && time.Since(s.Created()) > opts.MaxAge {
		return true, "too old"
	}
	return false, ""
}

// seenSet is a bounded id set with FIFO eviction.
type seenSet struct {
	ids   map[string]struct{}
	order []string
	cap   int
}

func newSeenSet(cap int) *seenSet {
	return &seenSet{ids: make(map[string]struct{}, cap), cap: cap}
}

func (s *seenSet) contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *seenSet) add(id string) {
	if s.contains(id) {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	if len(s.order) > s.cap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.ids, oldest)
	}
}

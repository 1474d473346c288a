package reddit

import "context"

// SubmissionNode is the root of a rendered conversation tree.
type SubmissionNode struct {
	ContentID string         `json:"content_id"`
	Subreddit string         `json:"subreddit"`
	Author    string         `json:"author"`
	Title     string         `json:"title"`
	Text      string         `json:"text"`
	Replies   []*CommentNode `json:"replies"`
}

// CommentNode is one comment in a rendered conversation tree.
type CommentNode struct {
	ContentID string         `json:"content_id"`
	Author    string         `json:"author"`
	Text      string         `json:"text"`
	Score     int            `json:"score"`
	Replies   []*CommentNode `json:"replies"`
}

// buildCommentNodes converts a comment forest, dropping deleted authors.
func buildCommentNodes(comments []*Comment) []*CommentNode {
	var nodes []*CommentNode
	for _, c := range comments {
		if c.Author == "" {
			continue
		}
		nodes = append(nodes, &CommentNode{
			ContentID: CommentPrefix + c.ID,
			Author:    c.AuthorName(),
			Text:      c.Body,
			Score:     c.Score,
			Replies:   buildCommentNodes(c.Replies.Comments),
		})
	}
	return nodes
}

// treeSize counts nodes with a score at or above the threshold. A nil
// threshold counts everything.
func treeSize(threshold *int, nodes []*CommentNode) int {
	size := 0
	for _, node := range nodes {
		if threshold != nil && node.Score < *threshold {
			continue
		}
		size += 1 + treeSize(threshold, node.Replies)
	}
	return size
}

// findMinScoreThreshold searches for the smallest score threshold that crops
// the tree to at most desiredSize nodes. Lower thresholds keep more nodes, so
// the bounds are first widened until they bracket the answer, then bisected.
func findMinScoreThreshold(nodes []*CommentNode, desiredSize, low, high int) int {
	mid := (low + high) / 2
	for treeSize(&low, nodes) < desiredSize {
		step := mid - low
		if step < 5 {
			step = 5
		}
		low -= step
	}
	for treeSize(&high, nodes) > desiredSize {
		step := high - mid
		if step < 5 {
			step = 5
		}
		high += step
	}

	for low <= high {
		mid = (low + high) / 2
		size := treeSize(&mid, nodes)
		switch {
		case size == desiredSize:
			return mid
		case size < desiredSize:
			high = mid - 1
		default:
			low = mid + 1
		}
	}
	return low
}

// cropTree removes nodes (and their subtrees) below the threshold.
func cropTree(nodes []*CommentNode, threshold *int) []*CommentNode {
	var out []*CommentNode
	for _, node := range nodes {
		if threshold != nil && node.Score < *threshold {
			continue
		}
		out = append(out, &CommentNode{
			ContentID: node.ContentID,
			Author:    node.Author,
			Text:      node.Text,
			Score:     node.Score,
			Replies:   cropTree(node.Replies, threshold),
		})
	}
	return out
}

// BuildTree assembles a conversation tree for the submission and crops it to
// maxSize comments by raising the minimum score threshold when needed.
func BuildTree(submission *Submission, comments []*Comment, maxSize int) *SubmissionNode {
	nodes := buildCommentNodes(comments)
	if maxSize > 0 && treeSize(nil, nodes) >= maxSize {
		threshold := findMinScoreThreshold(nodes, maxSize, 1, 500)
		nodes = cropTree(nodes, &threshold)
	}
	return &SubmissionNode{
		ContentID: SubmissionPrefix + submission.ID,
		Subreddit: submission.Subreddit,
		Author:    submission.AuthorName(),
		Title:     submission.Title,
		Text:      submission.Selftext,
		Replies:   nodes,
	}
}

// FindContent locates a node by content id anywhere in the tree; the root
// matches on the submission's id.
func (n *SubmissionNode) FindContent(contentID string) bool {
	if n.ContentID == contentID {
		return true
	}
	return findInNodes(n.Replies, contentID)
}

func findInNodes(nodes []*CommentNode, contentID string) bool {
	for _, node := range nodes {
		if node.ContentID == contentID {
			return true
		}
		if findInNodes(node.Replies, contentID) {
			return true
		}
	}
	return false
}

// ConversationItem is one entry of a linear comment chain, submission first.
type ConversationItem struct {
	ContentID string `json:"content_id"`
	Author    string `json:"author"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
}

// Conversation walks a comment's parent chain up to the submission and
// returns the thread as a list, root first.
func (c *Client) Conversation(ctx context.Context, commentID string) ([]ConversationItem, error) {
	var chain []*Comment
	id := commentID
	for {
		comment, err := c.Comment(ctx, id)
		if err != nil {
			return nil, err
		}
		chain = append([]*Comment{comment}, chain...)
		if after, ok := trimPrefix(comment.ParentID, CommentPrefix); ok {
			id = after
			continue
		}
		submissionID, ok := trimPrefix(comment.ParentID, SubmissionPrefix)
		if !ok {
			return nil, invalidParentErr(comment.ParentID)
		}
		submission, err := c.Submission(ctx, submissionID)
		if err != nil {
			return nil, err
		}
		items := []ConversationItem{{
			ContentID: SubmissionPrefix + submission.ID,
			Author:    submission.AuthorName(),
			Title:     submission.Title,
			Text:      submission.Selftext,
		}}
		for _, cm := range chain {
			items = append(items, ConversationItem{
				ContentID: CommentPrefix + cm.ID,
				Author:    cm.AuthorName(),
				Text:      cm.Body,
			})
		}
		return items, nil
	}
}

func trimPrefix(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return s, false
}

type invalidParentErr string

func (e invalidParentErr) Error() string {
	return "invalid parent id: " + string(e)
}

package reddit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Fullname prefixes used by the Reddit API.
const (
	CommentPrefix    = "t1_"
	SubmissionPrefix = "t3_"
)

// Thing is the kind/data envelope every Reddit API object arrives in.
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Listing is the paginated container for things.
type Listing struct {
	After    string  `json:"after"`
	Before   string  `json:"before"`
	Children []Thing `json:"children"`
}

type listingEnvelope struct {
	Kind string  `json:"kind"`
	Data Listing `json:"data"`
}

// Account is the authenticated user, from /api/v1/me.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Submission is a Reddit post (kind t3).
type Submission struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"` // fullname, e.g. "t3_abc123"
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	IsSelf     bool    `json:"is_self"`
	Stickied   bool    `json:"stickied"`
}

// Comment is a Reddit comment (kind t1).
type Comment struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"` // fullname, e.g. "t1_xyz789"
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	ParentID   string  `json:"parent_id"` // fullname of parent, t1_ or t3_
	LinkID     string  `json:"link_id"`
	Context    string  `json:"context"`
	Subreddit  string  `json:"subreddit"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	New        bool    `json:"new"`
	Replies    Replies `json:"replies"`
}

// Replies is a comment's children. On the wire it is either an empty string
// or a nested listing, so it needs a custom decoder.
type Replies struct {
	Comments []*Comment
}

func (r *Replies) UnmarshalJSON(data []byte) error {
	r.Comments = nil
	if len(data) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		// Empty string means no replies.
		return nil
	}
	var env listingEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode replies listing: %w", err)
	}
	comments, err := commentsFromListing(env.Data)
	if err != nil {
		return err
	}
	r.Comments = comments
	return nil
}

func (r Replies) MarshalJSON() ([]byte, error) {
	if len(r.Comments) == 0 {
		return []byte(`""`), nil
	}
	children := make([]Thing, 0, len(r.Comments))
	for _, c := range r.Comments {
		data, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		children = append(children, Thing{Kind: "t1", Data: data})
	}
	return json.Marshal(listingEnvelope{Kind: "Listing", Data: Listing{Children: children}})
}

// commentsFromListing decodes the t1 children of a listing, skipping "more"
// stubs the API uses for collapsed branches.
func commentsFromListing(l Listing) ([]*Comment, error) {
	var comments []*Comment
	for _, child := range l.Children {
		if child.Kind != "t1" {
			continue
		}
		c := &Comment{}
		if err := json.Unmarshal(child.Data, c); err != nil {
			return nil, fmt.Errorf("decode comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func submissionsFromListing(l Listing) ([]*Submission, error) {
	var submissions []*Submission
	for _, child := range l.Children {
		if child.Kind != "t3" {
			continue
		}
		s := &Submission{}
		if err := json.Unmarshal(child.Data, s); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		submissions = append(submissions, s)
	}
	return submissions, nil
}

// Created returns the submission creation time.
func (s *Submission) Created() time.Time {
	return time.Unix(int64(s.CreatedUTC), 0).UTC()
}

// Created returns the comment creation time.
func (c *Comment) Created() time.Time {
	return time.Unix(int64(c.CreatedUTC), 0).UTC()
}

// AuthorName returns the author, or a placeholder for deleted accounts.
func (s *Submission) AuthorName() string {
	if s.Author == "" {
		return "[unknown/deleted]"
	}
	return s.Author
}

// AuthorName returns the author, or a placeholder for deleted accounts.
func (c *Comment) AuthorName() string {
	if c.Author == "" {
		return "[unknown/deleted]"
	}
	return c.Author
}

// Package reddit is a thin client for the parts of the Reddit API the agent
// uses: OAuth2 authentication, listings, the inbox, and posting.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/regentbot/regent/pkg/logger"
)

const (
	apiBaseURL   = "https://oauth.reddit.com"
	authorizeURL = "https://www.reddit.com/api/v1/authorize"
	tokenURL     = "https://www.reddit.com/api/v1/access_token"

	// DefaultRedirectURL is the registered OAuth redirect target.
	DefaultRedirectURL = "http://localhost:8080"
)

// Scopes requested during the OAuth bootstrap.
var Scopes = []string{"identity", "submit", "read", "privatemessages"}

// Credentials identify the Reddit app and account.
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	RefreshToken string
}

// Client talks to the Reddit API on behalf of one account.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     logger.Logger
}

// Option adjusts client construction.
type Option func(*Client)

// WithBaseURL points the client at a different API host, used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the OAuth-wrapped HTTP client, used in tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger injects a logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func oauthConfig(creds Credentials, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authorizeURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// userAgentTransport sets the User-Agent Reddit requires on every request.
type userAgentTransport struct {
	next  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.agent)
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(clone)
}

// NewClient builds a client with a refreshing OAuth2 token source. The
// credentials must carry a refresh token from the bootstrap flow.
func NewClient(ctx context.Context, creds Credentials, opts ...Option) (*Client, error) {
	if strings.TrimSpace(creds.RefreshToken) == "" {
		return nil, fmt.Errorf("reddit credentials have no refresh token")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	source := oauthConfig(creds, DefaultRedirectURL).TokenSource(ctx, &oauth2.Token{
		RefreshToken: creds.RefreshToken,
	})
	c := &Client{
		baseURL:   apiBaseURL,
		userAgent: creds.UserAgent,
		logger:    logger.NopLogger{},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &oauth2.Transport{
				Source: source,
				Base:   &userAgentTransport{agent: creds.UserAgent},
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	u := c.baseURL + path
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.logger.Debug("reddit request", map[string]any{"method": method, "path": path})
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) getListing(ctx context.Context, path string) (Listing, error) {
	var env listingEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return Listing{}, err
	}
	return env.Data, nil
}

// apiResult is the envelope of api_type=json write endpoints.
type apiResult struct {
	JSON struct {
		Errors [][]any `json:"errors"`
	} `json:"json"`
}

func (r apiResult) err(op string) error {
	if len(r.JSON.Errors) == 0 {
		return nil
	}
	parts := make([]string, 0, len(r.JSON.Errors))
	for _, e := range r.JSON.Errors {
		fields := make([]string, 0, len(e))
		for _, f := range e {
			fields = append(fields, fmt.Sprint(f))
		}
		parts = append(parts, strings.Join(fields, " "))
	}
	return fmt.Errorf("%s: %s", op, strings.Join(parts, "; "))
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	account := &Account{}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, account); err != nil {
		return nil, err
	}
	if account.Name == "" {
		return nil, fmt.Errorf("no user logged in")
	}
	return account, nil
}

// SubredditNew lists the newest submissions of one or more subreddits
// (joined with "+", as in "golang+programming").
func (c *Client) SubredditNew(ctx context.Context, subreddits string, limit int) ([]*Submission, error) {
	if limit <= 0 {
		limit = 25
	}
	path := fmt.Sprintf("/r/%s/new?limit=%d", url.PathEscape(subreddits), limit)
	listing, err := c.getListing(ctx, path)
	if err != nil {
		return nil, err
	}
	return submissionsFromListing(listing)
}

// Submission fetches one submission by id (without the t3_ prefix).
func (c *Client) Submission(ctx context.Context, id string) (*Submission, error) {
	listing, err := c.getListing(ctx, "/api/info?id="+url.QueryEscape(SubmissionPrefix+id))
	if err != nil {
		return nil, err
	}
	submissions, err := submissionsFromListing(listing)
	if err != nil {
		return nil, err
	}
	if len(submissions) == 0 {
		return nil, fmt.Errorf("submission %s not found", id)
	}
	return submissions[0], nil
}

// Comment fetches one comment by id (without the t1_ prefix).
func (c *Client) Comment(ctx context.Context, id string) (*Comment, error) {
	listing, err := c.getListing(ctx, "/api/info?id="+url.QueryEscape(CommentPrefix+id))
	if err != nil {
		return nil, err
	}
	comments, err := commentsFromListing(listing)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, fmt.Errorf("comment %s not found", id)
	}
	return comments[0], nil
}

// SubmissionComments fetches a submission together with its comment forest.
// The endpoint returns a two-element array: the submission listing and the
// top-level comment listing.
func (c *Client) SubmissionComments(ctx context.Context, id string) (*Submission, []*Comment, error) {
	var envelopes []listingEnvelope
	path := "/comments/" + url.PathEscape(id) + "?limit=100&depth=10"
	if err := c.do(ctx, http.MethodGet, path, nil, &envelopes); err != nil {
		return nil, nil, err
	}
	if len(envelopes) != 2 {
		return nil, nil, fmt.Errorf("comments response has %d listings, want 2", len(envelopes))
	}
	submissions, err := submissionsFromListing(envelopes[0].Data)
	if err != nil {
		return nil, nil, err
	}
	if len(submissions) == 0 {
		return nil, nil, fmt.Errorf("submission %s not found", id)
	}
	comments, err := commentsFromListing(envelopes[1].Data)
	if err != nil {
		return nil, nil, err
	}
	return submissions[0], comments, nil
}

// InboxUnread returns the unread comment replies in the account inbox.
// Private messages (kind t4) are skipped.
func (c *Client) InboxUnread(ctx context.Context) ([]*Comment, error) {
	listing, err := c.getListing(ctx, "/message/unread?limit=100")
	if err != nil {
		return nil, err
	}
	return commentsFromListing(listing)
}

// MarkRead marks an inbox item read by fullname.
func (c *Client) MarkRead(ctx context.Context, fullname string) error {
	form := url.Values{"id": {fullname}}
	return c.do(ctx, http.MethodPost, "/api/read_message", form, nil)
}

// Reply comments on the thing identified by fullname (t1_ or t3_ prefixed).
func (c *Client) Reply(ctx context.Context, fullname, text string) error {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {fullname},
		"text":     {text},
	}
	var result apiResult
	if err := c.do(ctx, http.MethodPost, "/api/comment", form, &result); err != nil {
		return err
	}
	return result.err("reply to " + fullname)
}

// Submit creates a self post on the subreddit.
func (c *Client) Submit(ctx context.Context, subreddit, title, text string) error {
	form := url.Values{
		"api_type": {"json"},
		"sr":       {subreddit},
		"kind":     {"self"},
		"title":    {title},
		"text":     {text},
	}
	var result apiResult
	if err := c.do(ctx, http.MethodPost, "/api/submit", form, &result); err != nil {
		return err
	}
	return result.err("submit to r/" + subreddit)
}

// LatestSubmissionBy returns the user's newest submission, or nil when the
// account has never posted.
func (c *Client) LatestSubmissionBy(ctx context.Context, username string) (*Submission, error) {
	path := "/user/" + url.PathEscape(username) + "/submitted?sort=new&limit=1"
	listing, err := c.getListing(ctx, path)
	if err != nil {
		return nil, err
	}
	submissions, err := submissionsFromListing(listing)
	if err != nil {
		return nil, err
	}
	if len(submissions) == 0 {
		return nil, nil
	}
	return submissions[0], nil
}

package reddit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DefaultAuthTimeout bounds how long the bootstrap waits for the user to
// authorize in the browser.
const DefaultAuthTimeout = 5 * time.Minute

// ErrAuthTimeout is returned when no redirect arrives before the deadline.
var ErrAuthTimeout = errors.New("timed out waiting for the OAuth redirect")

// Authenticator drives the one-time refresh-token bootstrap.
type Authenticator struct {
	config    *oauth2.Config
	userAgent string
	state     string
}

// NewAuthenticator prepares the OAuth2 flow for the given app credentials.
// redirectURL must match the redirect URI registered with the Reddit app;
// leave it empty for the default http://localhost:8080.
func NewAuthenticator(creds Credentials, redirectURL string) *Authenticator {
	if strings.TrimSpace(redirectURL) == "" {
		redirectURL = DefaultRedirectURL
	}
	return &Authenticator{
		config:    oauthConfig(creds, redirectURL),
		userAgent: creds.UserAgent,
		state:     uuid.NewString(),
	}
}

// State returns the CSRF state parameter bound to this flow.
func (a *Authenticator) State() string {
	return a.state
}

// AuthURL returns the authorization URL the user has to open in a browser.
// duration=permanent makes Reddit include a refresh token in the exchange.
func (a *Authenticator) AuthURL() string {
	return a.config.AuthCodeURL(a.state, oauth2.SetAuthURLParam("duration", "permanent"))
}

type callbackResult struct {
	code string
	err  error
}

// WaitForCode serves the redirect endpoint until exactly one callback
// arrives, then shuts the listener down and returns the authorization code.
func (a *Authenticator) WaitForCode(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}

	redirect, err := url.Parse(a.config.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("parse redirect url: %w", err)
	}
	addr := redirect.Host
	if redirect.Port() == "" {
		addr = net.JoinHostPort(redirect.Hostname(), "80")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", addr, err)
	}

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		result := a.handleCallback(w, r)
		select {
		case results <- result:
		default:
			// A second request raced the shutdown; only the first wins.
		}
	})
	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: err}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-results:
		return result.code, result.err
	case <-timer.C:
		return "", ErrAuthTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (a *Authenticator) handleCallback(w http.ResponseWriter, r *http.Request) callbackResult {
	query := r.URL.Query()

	if got := query.Get("state"); got != a.state {
		msg := fmt.Sprintf("State mismatch. Expected: %s Received: %s", a.state, got)
		http.Error(w, msg, http.StatusBadRequest)
		return callbackResult{err: errors.New(msg)}
	}
	if errParam := query.Get("error"); errParam != "" {
		http.Error(w, errParam, http.StatusBadRequest)
		return callbackResult{err: fmt.Errorf("authorization failed: %s", errParam)}
	}
	code := query.Get("code")
	if code == "" {
		http.Error(w, "missing code parameter", http.StatusBadRequest)
		return callbackResult{err: errors.New("redirect carried no code parameter")}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "Authorization received. You can close this tab and return to the terminal.")
	return callbackResult{code: code}
}

// Exchange trades the authorization code for a refresh token.
func (a *Authenticator) Exchange(ctx context.Context, code string) (string, error) {
	// The token endpoint also enforces Reddit's user agent policy.
	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: &userAgentTransport{agent: a.userAgent},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return "", errors.New("token response carried no refresh token")
	}
	return token.RefreshToken, nil
}

package reddit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testAuthenticator(redirectURL string) *Authenticator {
	return NewAuthenticator(Credentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		UserAgent:    "regent-test",
	}, redirectURL)
}

func TestAuthURLCarriesScopesAndDuration(t *testing.T) {
	a := testAuthenticator("")

	u, err := url.Parse(a.AuthURL())
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	q := u.Query()
	if q.Get("duration") != "permanent" {
		t.Fatalf("duration = %q", q.Get("duration"))
	}
	if q.Get("state") != a.State() {
		t.Fatalf("state = %q, want %q", q.Get("state"), a.State())
	}
	if got := q.Get("scope"); !strings.Contains(got, "privatemessages") {
		t.Fatalf("scope = %q", got)
	}
	if q.Get("redirect_uri") != DefaultRedirectURL {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

func TestHandleCallbackStateMismatch(t *testing.T) {
	a := testAuthenticator("")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?state=wrong&code=abc", nil)

	result := a.handleCallback(rec, req)
	if result.err == nil || !strings.Contains(result.err.Error(), "State mismatch") {
		t.Fatalf("expected state mismatch error, got %v", result.err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleCallbackProviderError(t *testing.T) {
	a := testAuthenticator("")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?state="+a.State()+"&error=access_denied", nil)

	result := a.handleCallback(rec, req)
	if result.err == nil || !strings.Contains(result.err.Error(), "access_denied") {
		t.Fatalf("expected provider error, got %v", result.err)
	}
}

func TestHandleCallbackMissingCode(t *testing.T) {
	a := testAuthenticator("")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?state="+a.State(), nil)

	if result := a.handleCallback(rec, req); result.err == nil {
		t.Fatal("expected error for missing code")
	}
}

func TestHandleCallbackSuccess(t *testing.T) {
	a := testAuthenticator("")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?state="+a.State()+"&code=the-code", nil)

	result := a.handleCallback(rec, req)
	if result.err != nil {
		t.Fatalf("handleCallback: %v", result.err)
	}
	if result.code != "the-code" {
		t.Fatalf("code = %q", result.code)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

// freePort grabs an ephemeral port for the callback listener.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port
}

func TestWaitForCodeReceivesOneRedirect(t *testing.T) {
	port := freePort(t)
	redirect := fmt.Sprintf("http://127.0.0.1:%d", port)
	a := testAuthenticator(redirect)

	type waitResult struct {
		code string
		err  error
	}
	done := make(chan waitResult, 1)
	go func() {
		code, err := a.WaitForCode(context.Background(), 5*time.Second)
		done <- waitResult{code, err}
	}()

	// Poll until the listener is up, then deliver the redirect.
	deadline := time.Now().Add(2 * time.Second)
	target := fmt.Sprintf("%s/?state=%s&code=granted", redirect, a.State())
	for {
		resp, err := http.Get(target)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("callback server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	result := <-done
	if result.err != nil {
		t.Fatalf("WaitForCode: %v", result.err)
	}
	if result.code != "granted" {
		t.Fatalf("code = %q", result.code)
	}
}

func TestWaitForCodeTimesOut(t *testing.T) {
	port := freePort(t)
	a := testAuthenticator(fmt.Sprintf("http://127.0.0.1:%d", port))

	_, err := a.WaitForCode(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, ErrAuthTimeout) {
		t.Fatalf("expected ErrAuthTimeout, got %v", err)
	}
}

func TestExchangeReturnsRefreshToken(t *testing.T) {
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); !ok {
			t.Fatal("expected basic auth on token request")
		}
		if got := r.Header.Get("User-Agent"); got != "regent-test" {
			t.Fatalf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer","refresh_token":"rt-123","expires_in":3600}`))
	}))
	defer token.Close()

	a := testAuthenticator("")
	a.config.Endpoint.TokenURL = token.URL

	rt, err := a.Exchange(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if rt != "rt-123" {
		t.Fatalf("refresh token = %q", rt)
	}
}

func TestExchangeRejectsMissingRefreshToken(t *testing.T) {
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer","expires_in":3600}`))
	}))
	defer token.Close()

	a := testAuthenticator("")
	a.config.Endpoint.TokenURL = token.URL

	if _, err := a.Exchange(context.Background(), "the-code"); err == nil {
		t.Fatal("expected error when refresh token is absent")
	}
}

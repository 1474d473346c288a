package reddit

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestSeenSetEvictsOldest(t *testing.T) {
	s := newSeenSet(2)
	s.add("a")
	s.add("b")
	s.add("c")
	if s.contains("a") {
		t.Fatal("oldest id should have been evicted")
	}
	if !s.contains("b") || !s.contains("c") {
		t.Fatal("recent ids missing")
	}
}

func TestShouldSkip(t *testing.T) {
	now := float64(time.Now().Unix())
	opts := StreamOptions{SkipAuthor: "regent_bot", SelfOnly: true, MaxAge: time.Hour}

	cases := []struct {
		name string
		s    *Submission
		skip bool
	}{
		{"own post", &Submission{Author: "regent_bot", IsSelf: true, CreatedUTC: now}, true},
		{"link post", &Submission{Author: "alice", IsSelf: false, CreatedUTC: now}, true},
		{"too old", &Submission{Author: "alice", IsSelf: true, CreatedUTC: now - 7200}, true},
		{"fresh self post", &Submission{Author: "alice", IsSelf: true, CreatedUTC: now}, false},
	}
	for _, tc := range cases {
		if skip, _ := shouldSkip(tc.s, opts); skip != tc.skip {
			t.Fatalf("%s: shouldSkip = %v, want %v", tc.name, skip, tc.skip)
		}
	}
}

func TestStreamSubmissionsDeliversUnseenOldestFirst(t *testing.T) {
	now := float64(time.Now().Unix())
	var polls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		// Listing is newest-first, as the API returns it.
		fmt.Fprintf(w, `{"kind":"Listing","data":{"children":[
			{"kind":"t3","data":{"id":"p2","title":"second","author":"bob","is_self":true,"created_utc":%f}},
			{"kind":"t3","data":{"id":"p1","title":"first","author":"alice","is_self":true,"created_utc":%f}}
		]}}`, now, now-10)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := StreamSubmissions(ctx, c, StreamOptions{
		Subreddits: []string{"golang"},
		Interval:   10 * time.Millisecond,
	})

	first := <-out
	second := <-out
	if first.ID != "p1" || second.ID != "p2" {
		t.Fatalf("unexpected delivery order: %s, %s", first.ID, second.ID)
	}

	// Later polls return the same listing; nothing new may arrive.
	select {
	case s := <-out:
		t.Fatalf("duplicate submission delivered: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
	if polls.Load() < 2 {
		t.Fatalf("expected repeated polls, got %d", polls.Load())
	}

	cancel()
	// Channel closes on cancellation.
	for range out {
	}
}

func TestStreamSubmissionsAppliesFilters(t *testing.T) {
	now := float64(time.Now().Unix())
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"kind":"Listing","data":{"children":[
			{"kind":"t3","data":{"id":"keep","title":"ok","author":"alice","is_self":true,"created_utc":%f}},
			{"kind":"t3","data":{"id":"own","title":"mine","author":"regent_bot","is_self":true,"created_utc":%f}},
			{"kind":"t3","data":{"id":"link","title":"link","author":"bob","is_self":false,"created_utc":%f}}
		]}}`, now, now, now)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := StreamSubmissions(ctx, c, StreamOptions{
		Subreddits: []string{"golang"},
		Interval:   10 * time.Millisecond,
		SkipAuthor: "regent_bot",
		SelfOnly:   true,
	})

	got := <-out
	if got.ID != "keep" {
		t.Fatalf("unexpected submission: %+v", got)
	}
	select {
	case s := <-out:
		t.Fatalf("filtered submission delivered: %+v", s)
	case <-time.After(80 * time.Millisecond):
	}
}

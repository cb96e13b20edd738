package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gramflow/gramflow/internal/model"
)

// newTestServer serves a login endpoint, one profile, and a paginated
// follower listing of total entries split into pages of pageSize.
func newTestServer(t *testing.T, total, pageSize int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/session", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if creds["password"] != "hunter2" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "test-token"})
	})

	mux.HandleFunc("GET /api/v1/users/alice", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(model.Profile{ID: "1001", Username: "alice", FollowerCount: total})
	})

	listing := func(w http.ResponseWriter, r *http.Request) {
		offset := 0
		if cursor := r.URL.Query().Get("cursor"); cursor != "" {
			var err error
			offset, err = strconv.Atoi(cursor)
			if err != nil {
				http.Error(w, "bad cursor", http.StatusBadRequest)
				return
			}
		}

		end := offset + pageSize
		if end > total {
			end = total
		}

		var page listingPage
		for i := offset; i < end; i++ {
			page.Users = append(page.Users, model.AccountRef{
				ID:       fmt.Sprintf("f%d", i+1),
				Username: fmt.Sprintf("user%d", i+1),
			})
		}
		if end < total {
			page.NextCursor = strconv.Itoa(end)
			page.HasMore = true
		}
		json.NewEncoder(w).Encode(page)
	}
	mux.HandleFunc("GET /api/v1/users/alice/followers", listing)
	mux.HandleFunc("GET /api/v1/users/alice/following", listing)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newLoggedInClient(t *testing.T, server *httptest.Server) *HTTPClient {
	t.Helper()

	client := NewHTTPClient(server.URL, nil, 5*time.Second, discardLogger())
	if err := client.Login(context.Background(), "crawler", "hunter2"); err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	return client
}

func TestHTTPClientLogin(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, 0, 10)

	t.Run("valid credentials establish a session", func(t *testing.T) {
		t.Parallel()
		newLoggedInClient(t, server)
	})

	t.Run("invalid credentials are rejected", func(t *testing.T) {
		t.Parallel()

		client := NewHTTPClient(server.URL, nil, 5*time.Second, discardLogger())
		if err := client.Login(context.Background(), "crawler", "wrong"); err == nil {
			t.Error("expected login error, got nil")
		}
	})

	t.Run("requests without a session are refused locally", func(t *testing.T) {
		t.Parallel()

		client := NewHTTPClient(server.URL, nil, 5*time.Second, discardLogger())
		if _, err := client.FetchProfile(context.Background(), "alice"); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("got %v, want ErrNotAuthenticated", err)
		}
	})
}

func TestHTTPClientFetchProfile(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, 42, 10)
	client := newLoggedInClient(t, server)

	profile, err := client.FetchProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("failed to fetch profile: %v", err)
	}
	if profile.ID != "1001" || profile.FollowerCount != 42 {
		t.Errorf("got %+v, want ID 1001 with 42 followers", profile)
	}

	if _, err := client.FetchProfile(context.Background(), "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("got %v, want ErrProfileNotFound", err)
	}
}

func TestHTTPClientListingPagination(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, 23, 10)
	client := newLoggedInClient(t, server)
	ctx := context.Background()

	listing, err := client.ListFollowers(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to open listing: %v", err)
	}

	var got []string
	for {
		ref, err := listing.Next(ctx)
		if errors.Is(err, ErrEndOfList) {
			break
		}
		if err != nil {
			t.Fatalf("listing failed: %v", err)
		}
		got = append(got, ref.ID)
	}

	if len(got) != 23 {
		t.Fatalf("got %d entries, want 23 across 3 pages", len(got))
	}
	if got[0] != "f1" || got[22] != "f23" {
		t.Errorf("entries out of order: first %q, last %q", got[0], got[22])
	}
}

func TestHTTPClientEmptyListing(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, 0, 10)
	client := newLoggedInClient(t, server)
	ctx := context.Background()

	listing, err := client.ListFollowing(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to open listing: %v", err)
	}
	if _, err := listing.Next(ctx); !errors.Is(err, ErrEndOfList) {
		t.Errorf("got %v, want ErrEndOfList", err)
	}
}

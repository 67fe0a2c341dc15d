package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type repoJSON struct {
	Name     string    `json:"name"`
	Owner    ownerJSON `json:"owner"`
	CloneURL string    `json:"clone_url"`
}

type ownerJSON struct {
	Login string `json:"login"`
}

func repo(owner, name string) repoJSON {
	return repoJSON{
		Name:     name,
		Owner:    ownerJSON{Login: owner},
		CloneURL: fmt.Sprintf("https://github.com/%s/%s.git", owner, name),
	}
}

// pagedServer serves pages of /user/repos with GitHub style Link headers.
func pagedServer(t *testing.T, pages [][]repoJSON, requests *atomic.Int32) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		if r.URL.Path != "/user/repos" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		assert.Equal(t, "owner,collaborator,organization_member", r.URL.Query().Get("affiliation"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}

		body := []repoJSON{}
		if page <= len(pages) {
			body = pages[page-1]
		}
		if page < len(pages) {
			w.Header().Set("Link", fmt.Sprintf(`<%s/user/repos?page=%d>; rel="next"`, server.URL, page+1))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)

	return server
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := NewClient(Config{
		Token:       "test-token",
		BaseURL:     baseURL,
		PerPage:     2,
		Affiliation: "owner,collaborator,organization_member",
		Timeout:     5 * time.Second,
		Retry: RetryConfig{
			Attempts:     3,
			InitialDelay: time.Millisecond,
			MaxDelay:     10 * time.Millisecond,
		},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	return client
}

func collect(t *testing.T, client *Client) ([]string, error) {
	t.Helper()

	var names []string
	for repo, err := range client.Repositories(context.Background()) {
		if err != nil {
			return names, err
		}
		names = append(names, repo.FullName())
	}

	return names, nil
}

func TestClient_RepositoriesPagination(t *testing.T) {
	tests := []struct {
		name     string
		pages    [][]repoJSON
		expected []string
	}{
		{
			name:     "no repositories",
			pages:    nil,
			expected: nil,
		},
		{
			name:     "single page",
			pages:    [][]repoJSON{{repo("alice", "proj"), repo("acme", "api")}},
			expected: []string{"alice/proj", "acme/api"},
		},
		{
			name: "three pages with a duplicate across pages",
			pages: [][]repoJSON{
				{repo("alice", "proj"), repo("acme", "api")},
				{repo("acme", "api"), repo("acme", "web")},
				{repo("bob", "dotfiles")},
			},
			expected: []string{"alice/proj", "acme/api", "acme/web", "bob/dotfiles"},
		},
		{
			name: "case insensitive duplicate",
			pages: [][]repoJSON{
				{repo("Alice", "Proj")},
				{repo("alice", "proj")},
			},
			expected: []string{"Alice/Proj"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			server := pagedServer(t, tt.pages, &requests)
			client := newTestClient(t, server.URL)

			names, err := collect(t, client)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, names)
			assert.Equal(t, int32(max(len(tt.pages), 1)), requests.Load())
		})
	}
}

func TestClient_RepositoriesStopsWhenConsumerStops(t *testing.T) {
	var requests atomic.Int32
	server := pagedServer(t, [][]repoJSON{
		{repo("alice", "one"), repo("alice", "two")},
		{repo("alice", "three")},
	}, &requests)
	client := newTestClient(t, server.URL)

	for repo, err := range client.Repositories(context.Background()) {
		require.NoError(t, err)
		assert.Equal(t, "alice/one", repo.FullName())
		break
	}

	assert.Equal(t, int32(1), requests.Load())
}

func TestClient_RepositoriesDescriptorFields(t *testing.T) {
	var requests atomic.Int32
	server := pagedServer(t, [][]repoJSON{{repo("alice", "proj")}}, &requests)
	client := newTestClient(t, server.URL)

	for repo, err := range client.Repositories(context.Background()) {
		require.NoError(t, err)
		assert.Equal(t, "alice", repo.Owner)
		assert.Equal(t, "proj", repo.Name)
		assert.Equal(t, "https://github.com/alice/proj.git", repo.CloneURL)
	}
}

func TestClient_RepositoriesErrors(t *testing.T) {
	tests := []struct {
		name             string
		status           int
		headers          map[string]string
		body             string
		expectedErr      error
		expectedRequests int32
	}{
		{
			name:             "unauthorized is not retried",
			status:           http.StatusUnauthorized,
			body:             `{"message":"Bad credentials"}`,
			expectedErr:      ErrAuthentication,
			expectedRequests: 1,
		},
		{
			name:             "forbidden is an authentication failure",
			status:           http.StatusForbidden,
			body:             `{"message":"Resource not accessible by integration"}`,
			expectedErr:      ErrAuthentication,
			expectedRequests: 1,
		},
		{
			name:             "bad gateway is retried until attempts run out",
			status:           http.StatusBadGateway,
			body:             `{"message":"Server Error"}`,
			expectedErr:      ErrTransient,
			expectedRequests: 3,
		},
		{
			name:   "rate limit reset beyond max delay is not waited for",
			status: http.StatusForbidden,
			headers: map[string]string{
				"X-RateLimit-Limit":     "5000",
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
			},
			body:             `{"message":"API rate limit exceeded for user ID 1."}`,
			expectedErr:      ErrTransient,
			expectedRequests: 1,
		},
		{
			name:             "not found is a listing failure",
			status:           http.StatusNotFound,
			body:             `{"message":"Not Found"}`,
			expectedErr:      ErrListing,
			expectedRequests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				requests.Add(1)
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)

			names, err := collect(t, client)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Empty(t, names)
			assert.Equal(t, tt.expectedRequests, requests.Load())
		})
	}
}

func TestClient_RepositoriesRecoversFromTransientError(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"unavailable"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]repoJSON{repo("alice", "proj")})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	names, err := collect(t, client)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice/proj"}, names)
	assert.Equal(t, int32(2), requests.Load())
}

func TestClient_RepositoriesPartialListing(t *testing.T) {
	var requests atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
			return
		}

		w.Header().Set("Link", fmt.Sprintf(`<%s/user/repos?page=2>; rel="next"`, server.URL))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]repoJSON{repo("alice", "proj")})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	names, err := collect(t, client)
	require.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, []string{"alice/proj"}, names)
}

func TestClient_Authenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login":"alice"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	login, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", login)

	client, err = NewClient(Config{Token: "wrong", BaseURL: server.URL}, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.Authenticate(context.Background())
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(context.Canceled), context.Canceled)
	assert.NotErrorIs(t, classify(context.Canceled), ErrTransient)
	assert.ErrorIs(t, classify(fmt.Errorf("dial tcp: connection refused")), ErrTransient)
}

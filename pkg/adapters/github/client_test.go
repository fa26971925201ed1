package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler, maxRepos int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, MaxRepositories: maxRepos}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestListPublicRepositories_Paginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"name":"three","html_url":"https://github.com/octocat/three","owner":{"login":"octocat"}}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/users/octocat/repos?page=2>; rel="next"`, r.Host))
		fmt.Fprint(w, `[
			{"name":"one","html_url":"https://github.com/octocat/one","description":"first","language":"Go","topics":["cli","tools"],"owner":{"login":"octocat"}},
			{"name":"two","fork":true,"archived":true,"owner":{"login":"octocat"}}
		]`)
	})

	repos, err := newTestClient(t, mux, 0).ListPublicRepositories(context.Background(), "octocat")

	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, Repository{
		Owner:       "octocat",
		Name:        "one",
		URL:         "https://github.com/octocat/one",
		Description: "first",
		Language:    "Go",
		Topics:      []string{"cli", "tools"},
	}, repos[0])
	assert.True(t, repos[1].Fork)
	assert.True(t, repos[1].Archived)
	assert.Equal(t, "three", repos[2].Name)
}

func TestListPublicRepositories_RespectsMax(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"name":"a"},{"name":"b"},{"name":"c"}]`)
	})

	repos, err := newTestClient(t, mux, 2).ListPublicRepositories(context.Background(), "octocat")

	require.NoError(t, err)
	assert.Len(t, repos, 2)
}

func TestListPublicRepositories_UnknownUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/ghost/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})

	_, err := newTestClient(t, mux, 0).ListPublicRepositories(context.Background(), "ghost")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list repositories")
}

func TestReadme(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/one/readme", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		encoded := base64.StdEncoding.EncodeToString([]byte("# One\nA tool."))
		fmt.Fprintf(w, `{"type":"file","encoding":"base64","content":%q}`, encoded)
	})
	mux.HandleFunc("/repos/octocat/bare/readme", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	client := newTestClient(t, mux, 0)

	text, err := client.Readme(context.Background(), "octocat", "one")
	require.NoError(t, err)
	assert.Equal(t, "# One\nA tool.", text)

	text, err = client.Readme(context.Background(), "octocat", "bare")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestUsernameFromURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://github.com/octocat", "octocat", false},
		{"https://github.com/octocat/", "octocat", false},
		{"https://www.github.com/octocat/some-repo", "octocat", false},
		{"github.com/octocat", "octocat", false},
		{"octocat", "octocat", false},
		{"https://gitlab.com/octocat", "", true},
		{"https://github.com/", "", true},
		{"  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := UsernameFromURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

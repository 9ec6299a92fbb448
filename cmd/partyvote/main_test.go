package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	votes     map[string]int
	votesDown bool
	requests  []string
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
}

func (f *fakeAPI) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/party":
			w.Write([]byte(`[{"party_id":1,"name":"A","color":"#ff0000"},{"party_id":99,"name":"その他"}]`))
		case "/votes":
			if f.votesDown {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			require.NoError(t, json.NewEncoder(w).Encode(f.votes))
		case "/login":
			w.Write([]byte(`{"success":true,"user_id":"u-1"}`))
		case "/vote":
			var body struct {
				UserId  string `json:"user_id"`
				PartyId int    `json:"party_id"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "u-1", body.UserId)
			if body.PartyId == 1 {
				f.votes["A"]++
			} else {
				f.votes["その他"]++
			}
			w.Write([]byte(`{"success":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func run(t *testing.T, apiURL string, sessionPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api-url", apiURL, "--session", sessionPath, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	chdir(t, t.TempDir())

	api := &fakeAPI{votes: map[string]int{"A": 3, "その他": 1}}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	sessionPath := filepath.Join(t.TempDir(), "session.db")

	t.Run("results", func(t *testing.T) {
		out, err := run(t, srv.URL, sessionPath, "results")
		require.NoError(t, err)
		assert.Contains(t, out, "総投票数: 4票")
	})

	t.Run("vote without session", func(t *testing.T) {
		api.reset()
		out, err := run(t, srv.URL, sessionPath, "vote", "A")
		assert.Error(t, err)
		assert.Contains(t, out, "ログインしてください")
		assert.Empty(t, api.seen(), "no request before the session check")
	})

	t.Run("login then vote", func(t *testing.T) {
		_, err := run(t, srv.URL, sessionPath, "login", "alice", "secret")
		require.NoError(t, err)

		out, err := run(t, srv.URL, sessionPath, "whoami")
		require.NoError(t, err)
		assert.Contains(t, out, "u-1")

		out, err = run(t, srv.URL, sessionPath, "vote", "A")
		require.NoError(t, err)
		assert.Contains(t, out, "A に投票しました！")
		assert.Contains(t, out, "総投票数: 5票")
	})

	t.Run("vote while tally is down", func(t *testing.T) {
		api.mu.Lock()
		api.votesDown = true
		api.mu.Unlock()
		defer func() {
			api.mu.Lock()
			api.votesDown = false
			api.mu.Unlock()
		}()
		api.reset()

		out, err := run(t, srv.URL, sessionPath, "vote", "A")
		require.NoError(t, err)
		assert.Contains(t, api.seen(), "POST /vote")
		assert.Contains(t, out, "警告")
	})

	t.Run("select unknown segment", func(t *testing.T) {
		_, err := run(t, srv.URL, sessionPath, "select", "7")
		assert.Error(t, err)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := run(t, srv.URL, sessionPath, "results", "--format", "pdf")
		assert.Error(t, err)
	})

	t.Run("chart", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "results.html")
		_, err := run(t, srv.URL, sessionPath, "results", "--format", "chart", "--out", path)
		require.NoError(t, err)
		assert.FileExists(t, path)
	})
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

package cli_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rshade/multiverse/internal/cli"
	"github.com/rshade/multiverse/internal/config"
)

const fakePageSize = 20

// fakeCatalog serves a small character catalog in the API's envelope format.
type fakeCatalog struct {
	server     *httptest.Server
	characters []map[string]any
	failing    atomic.Bool
	failPage   atomic.Int32
	requests   atomic.Int32
}

var familyNames = []string{"Rick Sanchez", "Morty Smith", "Summer Smith", "Beth Smith", "Jerry Smith"}

func newFakeCatalog(t *testing.T, total int) *fakeCatalog {
	t.Helper()
	fc := &fakeCatalog{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/character", fc.serveCharacters)
	mux.HandleFunc("/api/location", fc.serveLocations)
	mux.HandleFunc("/api/episode", fc.serveEpisodes)
	fc.server = httptest.NewServer(mux)
	t.Cleanup(fc.server.Close)

	for id := 1; id <= total; id++ {
		status, origin, episode := "Alive", "Abadango", "2"
		if id%2 == 0 {
			status = "Dead"
		}
		if id%3 == 0 {
			origin = "Earth (C-137)"
		}
		if id <= 10 {
			episode = "1"
		}
		fc.characters = append(fc.characters, map[string]any{
			"id":       id,
			"name":     fmt.Sprintf("%s %d", familyNames[(id-1)%len(familyNames)], id),
			"status":   status,
			"species":  "Human",
			"type":     "",
			"gender":   "Male",
			"origin":   map[string]string{"name": origin, "url": ""},
			"location": map[string]string{"name": "Citadel of Ricks", "url": ""},
			"episode":  []string{fc.server.URL + "/api/episode/" + episode},
		})
	}
	return fc
}

func (fc *fakeCatalog) baseURL() string { return fc.server.URL + "/api" }

func (fc *fakeCatalog) serveCharacters(w http.ResponseWriter, r *http.Request) {
	fc.requests.Add(1)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if fc.failing.Load() || (page > 0 && int32(page) == fc.failPage.Load()) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	matched := make([]map[string]any, 0, len(fc.characters))
	for _, c := range fc.characters {
		name, _ := c["name"].(string)
		status, _ := c["status"].(string)
		if n := q.Get("name"); n != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(n)) {
			continue
		}
		if s := q.Get("status"); s != "" && !strings.EqualFold(s, status) {
			continue
		}
		matched = append(matched, c)
	}
	writePage(w, r, fc.server.URL+"/api/character", matched)
}

func (fc *fakeCatalog) serveLocations(w http.ResponseWriter, r *http.Request) {
	writePage(w, r, fc.server.URL+"/api/location", []map[string]any{
		{"id": 1, "name": "Earth (C-137)", "type": "Planet", "dimension": "Dimension C-137"},
		{"id": 2, "name": "Abadango", "type": "Cluster", "dimension": "unknown"},
		{"id": 3, "name": "Citadel of Ricks", "type": "Space station", "dimension": "unknown"},
	})
}

func (fc *fakeCatalog) serveEpisodes(w http.ResponseWriter, r *http.Request) {
	writePage(w, r, fc.server.URL+"/api/episode", []map[string]any{
		{"id": 1, "name": "Pilot", "air_date": "December 2, 2013", "episode": "S01E01"},
		{"id": 2, "name": "Lawnmower Dog", "air_date": "December 9, 2013", "episode": "S01E02"},
	})
}

// writePage writes one 20-item page of items, or the API's 404 body when
// nothing matches.
func writePage(w http.ResponseWriter, r *http.Request, endpoint string, items []map[string]any) {
	if len(items) == 0 {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"There is nothing here"}`))
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		page, _ = strconv.Atoi(p)
	}
	pages := (len(items) + fakePageSize - 1) / fakePageSize
	if page < 1 || page > pages {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"There is nothing here"}`))
		return
	}

	var next any
	if page < pages {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page+1))
		next = endpoint + "?" + q.Encode()
	}

	start := (page - 1) * fakePageSize
	end := min(start+fakePageSize, len(items))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"info":    map[string]any{"count": len(items), "pages": pages, "next": next, "prev": nil},
		"results": items[start:end],
	})
}

// setupCLITest isolates the config directory and resets global state.
func setupCLITest(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvLogFile, "")
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

// executeCmd runs the root command with args and returns stdout and stderr.
func executeCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeOverlay writes a --config overlay file and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/engine/crawl"
)

// fakeAPI serves paged listings of n items per resource, three per page.
type fakeAPI struct {
	server    *httptest.Server
	requests  atomic.Int32
	failPage  int   // page that fails with failCode, 0 for none
	failCount int32 // how many times failPage fails before succeeding, <0 forever
	failCode  int
	failures  atomic.Int32
	lastQuery atomic.Value
}

const perPage = 3

// failing makes page fail count times (forever when count < 0) with code.
func failing(page int, count int32, code int) func(*fakeAPI) {
	return func(a *fakeAPI) {
		a.failPage = page
		a.failCount = count
		a.failCode = code
	}
}

func newFakeAPI(t *testing.T, total int, opts ...func(*fakeAPI)) *fakeAPI {
	t.Helper()
	api := &fakeAPI{failCode: http.StatusInternalServerError}
	for _, opt := range opts {
		opt(api)
	}
	mux := http.NewServeMux()
	for _, resource := range []string{"character", "location", "episode"} {
		mux.HandleFunc("/api/"+resource, func(w http.ResponseWriter, r *http.Request) {
			api.serve(w, r, resource, total)
		})
	}
	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) baseURL() string { return a.server.URL + "/api" }

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request, resource string, total int) {
	a.requests.Add(1)
	a.lastQuery.Store(r.URL.RawQuery)

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		page, _ = strconv.Atoi(p)
	}

	if page == a.failPage && (a.failCount < 0 || a.failures.Load() < a.failCount) {
		a.failures.Add(1)
		http.Error(w, `{"error":"boom"}`, a.failCode)
		return
	}

	if r.URL.Query().Get("name") == "nobody" || total == 0 {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"There is nothing here"}`))
		return
	}

	pages := (total + perPage - 1) / perPage
	var next any
	if page < pages {
		next = fmt.Sprintf("%s/api/%s?page=%d", a.server.URL, resource, page+1)
	}

	results := make([]map[string]any, 0, perPage)
	for id := (page-1)*perPage + 1; id <= min(page*perPage, total); id++ {
		item := map[string]any{"id": id, "name": fmt.Sprintf("%s %d", resource, id)}
		if resource == "character" {
			item["status"] = "Alive"
			item["gender"] = "unknown"
			item["origin"] = map[string]string{"name": "Earth (C-137)", "url": ""}
			item["episode"] = []string{a.server.URL + "/api/episode/1"}
		}
		results = append(results, item)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"info":    map[string]any{"count": total, "pages": pages, "next": next, "prev": nil},
		"results": results,
	})
}

func newClient(t *testing.T, base string, opts ...catalog.Option) *catalog.Client {
	t.Helper()
	opts = append([]catalog.Option{
		catalog.WithRetryWait(time.Millisecond, 2*time.Millisecond),
		catalog.WithLookupBackoff(time.Millisecond),
	}, opts...)
	client, err := catalog.NewClient(base, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{name: "default", baseURL: catalog.DefaultBaseURL, want: catalog.DefaultBaseURL},
		{name: "trailing slash trimmed", baseURL: "https://example.test/api/", want: "https://example.test/api"},
		{name: "relative", baseURL: "/api", wantErr: true},
		{name: "unsupported scheme", baseURL: "ftp://example.test", wantErr: true},
		{name: "empty", baseURL: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, err := catalog.NewClient(tt.baseURL)
			if tt.wantErr {
				require.ErrorIs(t, err, catalog.ErrInvalidBaseURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.BaseURL())
		})
	}
}

func TestClient_CharactersURL(t *testing.T) {
	t.Parallel()
	client := newClient(t, "https://example.test/api")

	got := client.CharactersURL(catalog.Query{Name: " rick ", Status: "Alive", Gender: "all"}, 2)
	assert.Equal(t, "https://example.test/api/character?name=rick&page=2&status=alive", got)
}

func TestClient_FetchCharacters(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(t, 7)
	client := newClient(t, api.baseURL())

	page, err := client.FetchCharacters(context.Background(), catalog.Query{Status: "dead", Gender: "all"}, 3)
	require.NoError(t, err)

	assert.Equal(t, "page=3&status=dead", api.lastQuery.Load())
	assert.Equal(t, 7, page.Info.Count)
	assert.Equal(t, 3, page.Info.Pages)
	assert.False(t, page.Info.HasNext())
	require.Len(t, page.Results, 1)
	assert.Equal(t, 7, page.Results[0].ID)
	assert.Equal(t, catalog.StatusAlive, page.Results[0].Status)
	assert.Equal(t, "Unknown", page.Results[0].Gender.Label())
	assert.Equal(t, "Earth (C-137)", page.Results[0].Origin.Name)
	assert.True(t, page.Results[0].AppearsIn("1"))
}

func TestClient_FetchCharacters_NotFoundIsEmpty(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(t, 7)
	client := newClient(t, api.baseURL())

	page, err := client.FetchCharacters(context.Background(), catalog.Query{Name: "nobody"}, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.NotNil(t, page.Results)
	assert.Zero(t, page.Info.Count)
	assert.Zero(t, page.Info.Pages)
}

func TestClient_FetchCharacters_ServerError(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(t, 7, failing(1, -1, http.StatusInternalServerError))
	client := newClient(t, api.baseURL())

	_, err := client.FetchCharacters(context.Background(), catalog.Query{}, 1)
	require.Error(t, err)
	assert.True(t, catalog.IsFetchFailure(err))

	var statusErr *catalog.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, int32(1), api.requests.Load(), "retries default to zero")
}

func TestClient_FetchCharacters_BadRequestIsNotRetried(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(t, 7, failing(1, -1, http.StatusBadRequest))
	client := newClient(t, api.baseURL(), catalog.WithRetries(3))

	_, err := client.FetchCharacters(context.Background(), catalog.Query{}, 1)
	require.ErrorIs(t, err, catalog.ErrFetchFailure)
	assert.Equal(t, int32(1), api.requests.Load())
}

func TestClient_FetchCharacters_Retries(t *testing.T) {
	t.Parallel()

	t.Run("recovers within budget", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI(t, 7, failing(1, 2, http.StatusInternalServerError))
		client := newClient(t, api.baseURL(), catalog.WithRetries(2))

		page, err := client.FetchCharacters(context.Background(), catalog.Query{}, 1)
		require.NoError(t, err)
		assert.Len(t, page.Results, perPage)
		assert.Equal(t, int32(3), api.requests.Load())
	})

	t.Run("exhausts budget", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI(t, 7, failing(1, -1, http.StatusInternalServerError))
		client := newClient(t, api.baseURL(), catalog.WithRetries(1))

		_, err := client.FetchCharacters(context.Background(), catalog.Query{}, 1)
		var statusErr *catalog.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, int32(2), api.requests.Load())
	})
}

func TestClient_FetchCharacters_MalformedBody(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"info":`))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	_, err := client.FetchCharacters(context.Background(), catalog.Query{}, 1)
	require.ErrorIs(t, err, catalog.ErrFetchFailure)
}

func TestClient_FetchCharacters_TransportFailure(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client := newClient(t, base)
	_, err := client.FetchCharacters(context.Background(), catalog.Query{}, 1)
	require.ErrorIs(t, err, catalog.ErrFetchFailure)
}

func TestClient_FetchCharacters_ContextCanceled(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(t, 7)
	client := newClient(t, api.baseURL())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchCharacters(ctx, catalog.Query{}, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClient_FetchAllCharacters(t *testing.T) {
	t.Parallel()

	t.Run("complete", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI(t, 8)
		client := newClient(t, api.baseURL())

		var updates int
		result := client.FetchAllCharacters(context.Background(), catalog.Query{}, func(p *crawl.Progress) {
			updates++
		})
		require.NoError(t, result.Err)
		assert.True(t, result.Complete)
		assert.Len(t, result.Items, 8)
		assert.Equal(t, 3, result.PagesFetched)
		assert.Equal(t, 3, result.PagesTotal)
		assert.Equal(t, 3, updates)
		for i, c := range result.Items {
			assert.Equal(t, i+1, c.ID, "server order preserved")
		}
	})

	t.Run("partial on mid-crawl failure", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI(t, 8, failing(2, -1, http.StatusInternalServerError))
		client := newClient(t, api.baseURL())

		result := client.FetchAllCharacters(context.Background(), catalog.Query{}, nil)
		assert.False(t, result.Complete)
		assert.True(t, result.Partial())
		assert.Len(t, result.Items, perPage)
		assert.True(t, catalog.IsFetchFailure(result.Err))
		assert.Equal(t, 1, result.PagesFetched)
		assert.Equal(t, 3, result.PagesTotal)
	})

	t.Run("not found is empty and complete", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI(t, 8)
		client := newClient(t, api.baseURL())

		result := client.FetchAllCharacters(context.Background(), catalog.Query{Name: "nobody"}, nil)
		require.NoError(t, result.Err)
		assert.True(t, result.Complete)
		assert.Empty(t, result.Items)
	})

	t.Run("not found behind a next link is a page failure", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI(t, 8, failing(2, -1, http.StatusNotFound))
		client := newClient(t, api.baseURL())

		result := client.FetchAllCharacters(context.Background(), catalog.Query{}, nil)
		assert.False(t, result.Complete, "a vanished page does not look like the end of the listing")
		assert.Len(t, result.Items, perPage)
		assert.Equal(t, 1, result.PagesFetched)
		assert.Equal(t, 3, result.PagesTotal)

		var statusErr *catalog.StatusError
		require.ErrorAs(t, result.Err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.Code)
	})
}

func TestClient_FetchLocations(t *testing.T) {
	t.Parallel()

	t.Run("accumulates every page", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI(t, 10)
		client := newClient(t, api.baseURL())

		result := client.FetchLocations(context.Background())
		require.NoError(t, result.Err)
		assert.True(t, result.Complete)
		require.Len(t, result.Items, 10)
		assert.Equal(t, "location 10", result.Items[9].Name)
	})

	t.Run("retries a flaky page", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI(t, 10, failing(2, 2, http.StatusInternalServerError))
		client := newClient(t, api.baseURL(), catalog.WithLookupRetries(2))

		result := client.FetchLocations(context.Background())
		require.NoError(t, result.Err)
		assert.True(t, result.Complete)
		assert.Len(t, result.Items, 10)
		assert.Equal(t, int32(2), api.failures.Load())
	})

	t.Run("fails open after retries", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI(t, 10, failing(2, -1, http.StatusInternalServerError))
		client := newClient(t, api.baseURL(), catalog.WithLookupRetries(1))

		result := client.FetchLocations(context.Background())
		assert.False(t, result.Complete)
		assert.Len(t, result.Items, perPage)
		assert.True(t, catalog.IsFetchFailure(result.Err))
		assert.Equal(t, int32(2), api.failures.Load())
	})
}

func TestClient_FetchEpisodes(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(t, 4)
	client := newClient(t, api.baseURL())

	result := client.FetchEpisodes(context.Background())
	require.NoError(t, result.Err)
	assert.True(t, result.Complete)
	require.Len(t, result.Items, 4)
	assert.Equal(t, 4, result.Items[3].ID)
}

func TestStatusError(t *testing.T) {
	t.Parallel()
	err := error(&catalog.StatusError{Code: http.StatusBadGateway, URL: "https://example.test/api/character"})
	assert.True(t, errors.Is(err, catalog.ErrFetchFailure))
	assert.Contains(t, err.Error(), "502 Bad Gateway")
}

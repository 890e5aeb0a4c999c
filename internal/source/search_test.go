package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSearchClientJSON(t *testing.T) {
	var gotAuth, gotQuery, gotFreshness string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		gotFreshness = r.URL.Query().Get("freshness")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"url":"https://x.com/u/status/42","title":"need help finding a task manager","description":"snippet"},
			{"url":"","title":"no url, dropped"},
			{"url":"https://reddit.com/r/x/1","title":"second"}
		]}`))
	}))
	defer srv.Close()

	c := NewSearchClient(srv.URL, "test-key", "day", 5*time.Second)
	posts, err := c.Search(context.Background(), `"need help" task manager`, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, `"need help" task manager`, gotQuery)
	require.Equal(t, "day", gotFreshness)
	require.Equal(t, "https://x.com/u/status/42", posts[0].URL)
	require.Equal(t, "snippet", posts[0].Content)
}

func TestSearchClientHTMLResults(t *testing.T) {
	page := `<html><body>
		<a class="result__a" href="https://duckduckgo.com/l/?uddg=https%3A%2F%2Fx.com%2Fu%2Fstatus%2F42&rut=abc">need help with tasks</a>
		<a class="result__snippet" href="#">drowning in sticky notes</a>
		<a class="result__a" href="https://reddit.com/r/productivity/1">any recommendations</a>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	c := NewSearchClient(srv.URL, "", "", 5*time.Second)
	posts, err := c.Search(context.Background(), "tasks", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	require.Equal(t, "https://x.com/u/status/42", posts[0].URL, "redirect should be unwrapped")
	require.Equal(t, "need help with tasks", posts[0].Title)
	require.Equal(t, "drowning in sticky notes", posts[0].Content)
	require.Equal(t, "https://reddit.com/r/productivity/1", posts[1].URL)
}

func TestSearchClientErrorsYieldZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewSearchClient(srv.URL, "k", "", 5*time.Second)
	posts, err := c.Search(context.Background(), "anything", 10)
	require.NoError(t, err, "non-2xx must not surface as an error")
	require.Empty(t, posts)
}

func TestSearchClientUnreachable(t *testing.T) {
	c := NewSearchClient("http://127.0.0.1:1", "k", "", 500*time.Millisecond)
	posts, err := c.Search(context.Background(), "anything", 10)
	require.NoError(t, err, "transport failure must not surface as an error")
	require.Empty(t, posts)
}

func TestSearchClientLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"url":"https://a.example/1","title":"a"},
			{"url":"https://a.example/2","title":"b"},
			{"url":"https://a.example/3","title":"c"}
		]}`))
	}))
	defer srv.Close()

	c := NewSearchClient(srv.URL, "", "", 5*time.Second)
	posts, err := c.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
}

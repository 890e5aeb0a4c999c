package discovery

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"prospect/internal/types"
)

func TestFilterNewBatchSelfDedup(t *testing.T) {
	posts := []types.RawPost{
		{URL: "https://a.example/1", Title: "first"},
		{URL: "https://a.example/2", Title: "second"},
		{URL: "https://a.example/1", Title: "duplicate of first"},
	}

	got := filterNew(posts, nil)
	want := []types.RawPost{
		{URL: "https://a.example/1", Title: "first"},
		{URL: "https://a.example/2", Title: "second"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filterNew mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterNewDropsKnownURLs(t *testing.T) {
	posts := []types.RawPost{
		{URL: "https://a.example/1"},
		{URL: "https://a.example/2"},
	}
	known := map[string]bool{"https://a.example/1": true}

	got := filterNew(posts, known)
	if len(got) != 1 || got[0].URL != "https://a.example/2" {
		t.Errorf("got %+v", got)
	}
}

func TestFilterNewSkipsEmptyURLs(t *testing.T) {
	got := filterNew([]types.RawPost{{URL: "", Title: "no url"}}, nil)
	if len(got) != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestFilterNewIdempotent(t *testing.T) {
	posts := []types.RawPost{
		{URL: "https://a.example/1"},
		{URL: "https://a.example/2"},
	}
	once := filterNew(posts, nil)
	twice := filterNew(once, nil)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed the batch (-once +twice):\n%s", diff)
	}
}

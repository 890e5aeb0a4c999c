package source

import (
	"context"
	"strings"
	"testing"

	"prospect/internal/types"
)

func TestSampleAdapterDeterministic(t *testing.T) {
	a := NewSampleAdapter()
	query := `"need help" task manager site:twitter.com OR site:x.com`

	first, err := a.Search(context.Background(), query, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Search(context.Background(), query, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != 3 {
		t.Fatalf("got %d posts, want 3", len(first))
	}
	for i := range first {
		if first[i].URL != second[i].URL {
			t.Errorf("URLs differ across runs: %q vs %q", first[i].URL, second[i].URL)
		}
	}
}

func TestSampleAdapterTopic(t *testing.T) {
	a := NewSampleAdapter()
	posts, err := a.Search(context.Background(), `"anyone know" task manager site:reddit.com`, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts", len(posts))
	}
	if !strings.Contains(posts[0].Title, "task manager") {
		t.Errorf("title %q should carry the product keywords", posts[0].Title)
	}
	if strings.Contains(posts[0].Title, "site:") {
		t.Errorf("title %q leaked the site filter", posts[0].Title)
	}
}

func TestSampleAdapterMethod(t *testing.T) {
	a := NewSampleAdapter()
	if a.Method() != types.MethodFallbackSample {
		t.Errorf("method = %q", a.Method())
	}
}

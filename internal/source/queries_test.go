package source

import (
	"strings"
	"testing"

	"prospect/internal/types"
)

func TestQueryBuilderDefaults(t *testing.T) {
	b := NewQueryBuilder([]string{"anyone know", "looking for"}, "", 0)
	campaign := &types.Campaign{
		Name:    "TaskFlow",
		Product: "lightweight task manager for freelancers",
	}

	queries := b.Build(campaign)
	if len(queries) != 2 {
		t.Fatalf("got %d queries, want 2", len(queries))
	}
	// No channels configured: everything scopes to the default twitter channel.
	for _, q := range queries {
		if !strings.Contains(q, "site:twitter.com OR site:x.com") {
			t.Errorf("query %q missing default channel filter", q)
		}
	}
	if !strings.Contains(queries[0], `"anyone know"`) {
		t.Errorf("query %q missing quoted phrase", queries[0])
	}
	if !strings.Contains(queries[0], "lightweight task manager for") {
		t.Errorf("query %q missing product keywords", queries[0])
	}
}

func TestQueryBuilderMultiChannel(t *testing.T) {
	phrases := []string{"anyone know", "looking for", "need help", "struggling with"}
	b := NewQueryBuilder(phrases, "twitter", 2)
	campaign := &types.Campaign{
		Name:     "TaskFlow",
		Product:  "task manager",
		Channels: []string{"twitter", "reddit"},
	}

	queries := b.Build(campaign)
	if len(queries) != 4 {
		t.Fatalf("got %d queries, want 2 per channel x 2 channels", len(queries))
	}

	reddit := 0
	for _, q := range queries {
		if strings.Contains(q, "site:reddit.com") {
			reddit++
		}
	}
	if reddit != 2 {
		t.Errorf("got %d reddit-scoped queries, want 2", reddit)
	}
}

func TestQueryBuilderKeywordFallback(t *testing.T) {
	b := NewQueryBuilder([]string{"need help"}, "twitter", 1)
	campaign := &types.Campaign{Name: "TaskFlow", Product: "a to do"}

	queries := b.Build(campaign)
	if len(queries) != 1 {
		t.Fatalf("got %d queries", len(queries))
	}
	// Every product word is too short to be a keyword; campaign name stands in.
	if !strings.Contains(queries[0], "TaskFlow") {
		t.Errorf("query %q should fall back to the campaign name", queries[0])
	}
}

func TestProductKeywords(t *testing.T) {
	got := productKeywords("an amazing lightweight task manager app for busy freelancers")
	want := "amazing lightweight task manager"
	if got != want {
		t.Errorf("productKeywords = %q, want %q", got, want)
	}
}

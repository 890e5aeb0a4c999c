package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"prospect/internal/logging"
	"prospect/internal/types"
)

// sampleTemplates shape the generated posts. Each pairs a title pattern with
// a body that reads like a genuine help-seeking post.
var sampleTemplates = []struct {
	title   string
	content string
}{
	{
		title:   "Anyone know a good option for %s?",
		content: "Been searching all week and the options I found are either overpriced or abandoned. Budget is tight so open to anything that actually works.",
	},
	{
		title:   "Struggling with %s, looking for recommendations",
		content: "Tried two tools already and both fell short. Would love to hear what worked for people in a similar situation.",
	},
	{
		title:   "What should I use for %s these days?",
		content: "Last time I looked into this was a couple years ago. Assuming the landscape changed, what are people actually using now?",
	},
}

// SampleAdapter is the no-credential fallback: it fabricates a small,
// deterministic set of representative posts so the rest of the pipeline can
// run end to end without any external service. Results are clearly labeled
// with the fallback method so downstream consumers never mistake them for
// real discoveries.
type SampleAdapter struct{}

// NewSampleAdapter creates the fallback adapter.
func NewSampleAdapter() *SampleAdapter { return &SampleAdapter{} }

func (a *SampleAdapter) Name() string   { return "fallback-sample" }
func (a *SampleAdapter) Method() string { return types.MethodFallbackSample }

// Search generates sample posts for the query. The same query always yields
// the same posts and URLs, so deduplication behaves identically to a real
// source across repeated runs.
func (a *SampleAdapter) Search(ctx context.Context, query string, limit int) ([]types.RawPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(sampleTemplates) {
		limit = len(sampleTemplates)
	}

	topic := topicFromQuery(query)
	seed := fnv.New32a()
	seed.Write([]byte(query))

	posts := make([]types.RawPost, 0, limit)
	for i := 0; i < limit; i++ {
		tmpl := sampleTemplates[i]
		posts = append(posts, types.RawPost{
			URL:      fmt.Sprintf("https://example.com/sample/%08x/%d", seed.Sum32(), i),
			Title:    fmt.Sprintf(tmpl.title, topic),
			Content:  tmpl.content,
			Platform: "generic",
		})
	}

	logging.SourceDebug("sample adapter generated %d posts for %q", len(posts), query)
	return posts, nil
}

// topicFromQuery strips the quoted help phrase and any site: filter, leaving
// the product keywords the query was built around.
func topicFromQuery(query string) string {
	var kept []string
	for _, field := range strings.Fields(query) {
		if strings.HasPrefix(field, `"`) || strings.HasSuffix(field, `"`) {
			continue
		}
		if strings.HasPrefix(field, "site:") || field == "OR" {
			continue
		}
		kept = append(kept, field)
	}
	if len(kept) == 0 {
		return "this"
	}
	return strings.Join(kept, " ")
}

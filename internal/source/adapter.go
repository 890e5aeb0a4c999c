// Package source implements the pipeline's source adapters: strategies that
// fetch raw candidate posts from external platforms. Two interchangeable
// strategies exist (browser-driven crawl, hosted search API) plus an explicit
// fallback sample adapter used when no search credential is configured.
package source

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"prospect/internal/types"
)

// Adapter fetches raw candidate posts for one search query.
// Adapters recover from their own failures: a broken query or target yields
// zero results, never an error that aborts the calling run.
type Adapter interface {
	Name() string
	// Method is the discovery method label reported in run results.
	Method() string
	Search(ctx context.Context, query string, limit int) ([]types.RawPost, error)
}

// Target describes one community listing page for the crawl strategy.
type Target struct {
	Platform     string // platform tag, e.g. "reddit"
	URL          string // listing or search-results page
	ItemSelector string // CSS selector for post entries
	TitleAttr    string // optional attribute holding the title, else text
}

// DelayPolicy paces crawl actions. The crawler draws a delay between scroll
// and navigation steps so request timing is not trivially mechanical.
// Injectable so tests can disable pacing entirely.
type DelayPolicy interface {
	Wait(ctx context.Context)
}

// JitterDelay sleeps a uniformly-random duration from [Min, Max].
type JitterDelay struct {
	Min time.Duration
	Max time.Duration
}

// Wait sleeps for the drawn duration or until ctx is cancelled.
func (j JitterDelay) Wait(ctx context.Context) {
	d := j.Min
	if j.Max > j.Min {
		d = j.Min + time.Duration(rand.Int63n(int64(j.Max-j.Min)))
	}
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// NopDelay never waits. Used in tests.
type NopDelay struct{}

func (NopDelay) Wait(context.Context) {}

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// Prefilter is the cheap syntactic gate applied on the crawl path before the
// expensive intent classifier: a title qualifies if it contains any
// help-seeking phrase or any whole-word token of the product description.
type Prefilter struct {
	phrases       []string
	productTokens map[string]bool
}

// NewPrefilter builds a pre-filter from the campaign's help phrases and
// product description.
func NewPrefilter(helpPhrases []string, product string) *Prefilter {
	tokens := make(map[string]bool)
	for _, tok := range wordPattern.FindAllString(strings.ToLower(product), -1) {
		if len(tok) > 2 {
			tokens[tok] = true
		}
	}
	lowered := make([]string, 0, len(helpPhrases))
	for _, p := range helpPhrases {
		lowered = append(lowered, strings.ToLower(p))
	}
	return &Prefilter{phrases: lowered, productTokens: tokens}
}

// Match reports whether a title passes the gate.
func (f *Prefilter) Match(title string) bool {
	lower := strings.ToLower(title)
	for _, p := range f.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, tok := range wordPattern.FindAllString(lower, -1) {
		if f.productTokens[tok] {
			return true
		}
	}
	return false
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"prospect/internal/browser"
	"prospect/internal/logging"
	"prospect/internal/types"
)

// Crawler is the browser-driven source strategy: it loads listing pages for
// configured community targets, scrolls with paced jitter delays, and
// extracts candidate posts from the DOM. One target's breakage never aborts
// the others.
type Crawler struct {
	sessions      *browser.SessionManager
	targets       []Target
	delay         DelayPolicy
	prefilter     *Prefilter
	scrollSteps   int
	maxItems      int
	screenshotDir string
	fetchFullPost bool
}

// CrawlerOptions configures a Crawler.
type CrawlerOptions struct {
	Targets       []Target
	Delay         DelayPolicy
	Prefilter     *Prefilter
	ScrollSteps   int
	MaxItems      int // maxItemsPerPlatform
	ScreenshotDir string
	FetchFullPost bool
}

// NewCrawler creates a browser-driven crawler.
func NewCrawler(sessions *browser.SessionManager, o CrawlerOptions) *Crawler {
	delay := o.Delay
	if delay == nil {
		delay = NopDelay{}
	}
	scrollSteps := o.ScrollSteps
	if scrollSteps <= 0 {
		scrollSteps = 4
	}
	maxItems := o.MaxItems
	if maxItems <= 0 {
		maxItems = 20
	}
	return &Crawler{
		sessions:      sessions,
		targets:       o.Targets,
		delay:         delay,
		prefilter:     o.Prefilter,
		scrollSteps:   scrollSteps,
		maxItems:      maxItems,
		screenshotDir: o.ScreenshotDir,
		fetchFullPost: o.FetchFullPost,
	}
}

func (c *Crawler) Name() string   { return "browser-crawl" }
func (c *Crawler) Method() string { return types.MethodCrawl }

// Search crawls every configured target and aggregates passing posts. The
// query itself is not sent to the target site; targets are pre-scoped listing
// pages and the pre-filter does the syntactic narrowing.
func (c *Crawler) Search(ctx context.Context, query string, limit int) ([]types.RawPost, error) {
	if limit <= 0 || limit > c.maxItems*len(c.targets) {
		limit = c.maxItems * len(c.targets)
	}

	var posts []types.RawPost
	for _, target := range c.targets {
		if ctx.Err() != nil {
			break
		}
		found, err := c.Crawl(ctx, target)
		if err != nil {
			logging.SourceWarn("crawl target %s failed: %v", target.URL, err)
			continue
		}
		posts = append(posts, found...)
		if len(posts) >= limit {
			posts = posts[:limit]
			break
		}
		c.delay.Wait(ctx)
	}
	return posts, nil
}

// Crawl extracts candidate posts from one target listing page.
func (c *Crawler) Crawl(ctx context.Context, target Target) ([]types.RawPost, error) {
	timer := logging.StartTimer(logging.CategorySource, "crawl "+target.Platform)
	defer timer.Stop()

	session, err := c.sessions.CreateSession(ctx, target.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target.URL, err)
	}
	defer c.sessions.CloseSession(session.ID)

	page, ok := c.sessions.Page(session.ID)
	if !ok {
		return nil, fmt.Errorf("no page for session %s", session.ID)
	}

	_ = page.WaitStable(2 * time.Second)

	// Paced scrolling to load enough entries without mechanical timing.
	for i := 0; i < c.scrollSteps; i++ {
		c.delay.Wait(ctx)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := page.Mouse.Scroll(0, 1200, 5); err != nil {
			logging.SourceDebug("scroll step %d failed on %s: %v", i, target.URL, err)
			break
		}
	}

	elements, err := page.Elements(target.ItemSelector)
	if err != nil {
		c.captureDiagnostic(session.ID, target)
		return nil, fmt.Errorf("selector %q on %s: %w", target.ItemSelector, target.URL, err)
	}
	if len(elements) == 0 {
		c.captureDiagnostic(session.ID, target)
		logging.SourceWarn("selector %q matched nothing on %s", target.ItemSelector, target.URL)
		return nil, nil
	}

	base, _ := url.Parse(target.URL)

	var posts []types.RawPost
	for _, el := range elements {
		if len(posts) >= c.maxItems {
			break
		}

		title := ""
		if target.TitleAttr != "" {
			if v, err := el.Attribute(target.TitleAttr); err == nil && v != nil {
				title = *v
			}
		}
		if title == "" {
			if t, err := el.Text(); err == nil {
				title = strings.TrimSpace(t)
			}
		}
		if title == "" {
			continue
		}
		title = truncate(title, 300)

		if c.prefilter != nil && !c.prefilter.Match(title) {
			continue
		}

		href := c.extractHref(el, base)
		if href == "" {
			continue
		}

		posts = append(posts, types.RawPost{
			URL:        href,
			Title:      title,
			Platform:   target.Platform,
			Engagement: extractEngagement(el),
		})
	}

	if c.fetchFullPost {
		c.fillBodies(ctx, posts)
	}

	logging.Source("crawled %s: %d candidates from %d entries", target.URL, len(posts), len(elements))
	return posts, nil
}

func (c *Crawler) extractHref(el *rod.Element, base *url.URL) string {
	var raw string
	if v, err := el.Attribute("href"); err == nil && v != nil {
		raw = *v
	} else if links, err := el.Elements("a"); err == nil && len(links) > 0 {
		if v, err := links.First().Attribute("href"); err == nil && v != nil {
			raw = *v
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		return base.ResolveReference(ref).String()
	}
	return ref.String()
}

// extractEngagement pulls interaction counts from aria labels most listing
// sites annotate vote and comment widgets with. Sites without them yield nil.
func extractEngagement(el *rod.Element) *types.Engagement {
	likes := countFromLabel(el, `[aria-label*="like" i], [aria-label*="upvote" i]`)
	replies := countFromLabel(el, `[aria-label*="repl" i], [aria-label*="comment" i]`)
	shares := countFromLabel(el, `[aria-label*="repost" i], [aria-label*="share" i]`)
	if likes == 0 && replies == 0 && shares == 0 {
		return nil
	}
	return &types.Engagement{Likes: likes, Replies: replies, Shares: shares}
}

func countFromLabel(el *rod.Element, selector string) int {
	children, err := el.Elements(selector)
	if err != nil || len(children) == 0 {
		return 0
	}
	label, err := children.First().Attribute("aria-label")
	if err != nil || label == nil {
		return 0
	}
	for _, field := range strings.Fields(*label) {
		if n, err := strconv.Atoi(strings.ReplaceAll(field, ",", "")); err == nil {
			return n
		}
	}
	return 0
}

// fillBodies visits individual post pages to fetch full body text for the
// first few candidates. Failures leave the snippet-only content in place.
func (c *Crawler) fillBodies(ctx context.Context, posts []types.RawPost) {
	const maxVisits = 5
	for i := range posts {
		if i >= maxVisits || ctx.Err() != nil {
			return
		}
		c.delay.Wait(ctx)

		session, err := c.sessions.CreateSession(ctx, posts[i].URL)
		if err != nil {
			logging.SourceDebug("full-post visit failed for %s: %v", posts[i].URL, err)
			continue
		}
		page, ok := c.sessions.Page(session.ID)
		if ok {
			_ = page.WaitStable(2 * time.Second)
			if content, err := page.Eval(`() => document.body.innerText`); err == nil &&
				content != nil && !content.Value.Nil() {
				posts[i].Content = truncate(strings.TrimSpace(content.Value.String()), 2000)
			}
		}
		c.sessions.CloseSession(session.ID)
	}
}

func (c *Crawler) captureDiagnostic(sessionID string, target Target) {
	if c.screenshotDir == "" {
		return
	}
	path, err := c.sessions.Screenshot(sessionID, c.screenshotDir)
	if err != nil {
		logging.SourceDebug("diagnostic screenshot failed for %s: %v", target.URL, err)
		return
	}
	logging.SourceWarn("diagnostic screenshot for %s saved to %s", target.URL, path)
}

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"prospect/internal/logging"
	"prospect/internal/types"
)

const defaultUserAgent = "prospect/1.0 DiscoveryAgent"

// SearchClient is the hosted search API strategy. It issues a text query with
// a recency filter and maps the results to raw posts. A failing query is
// logged and contributes zero results; it is never fatal to the run.
type SearchClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	recency string
}

// searchResponse is the hosted endpoint's JSON shape.
type searchResponse struct {
	Results []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"results"`
}

// NewSearchClient creates a hosted search client.
func NewSearchClient(baseURL, apiKey, recency string, timeout time.Duration) *SearchClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &SearchClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		recency: recency,
	}
}

func (s *SearchClient) Name() string   { return "search-api" }
func (s *SearchClient) Method() string { return types.MethodAPI }

// Search issues one query against the hosted endpoint. JSON responses are
// decoded directly; HTML responses (engine-style results pages) are parsed
// for result anchors.
func (s *SearchClient) Search(ctx context.Context, query string, limit int) ([]types.RawPost, error) {
	if limit <= 0 {
		limit = 10
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&count=%d", s.baseURL, url.QueryEscape(query), limit)
	if s.recency != "" {
		reqURL += "&freshness=" + url.QueryEscape(s.recency)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logging.SourceWarn("search request failed for %q: %v", query, err)
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		logging.SourceWarn("search body read failed for %q: %v", query, err)
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		logging.SourceWarn("search returned HTTP %d for %q", resp.StatusCode, query)
		return nil, nil
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return parseHTMLResults(body, limit), nil
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		logging.SourceWarn("search response decode failed for %q: %v", query, err)
		return nil, nil
	}

	posts := make([]types.RawPost, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.URL == "" {
			continue
		}
		posts = append(posts, types.RawPost{
			URL:     r.URL,
			Title:   r.Title,
			Content: r.Description,
		})
		if len(posts) >= limit {
			break
		}
	}

	logging.SourceDebug("search %q returned %d results", query, len(posts))
	return posts, nil
}

// parseHTMLResults extracts result links from an engine-style HTML results
// page: anchors carrying a "result__a" class, with "result__snippet" siblings.
func parseHTMLResults(body []byte, limit int) []types.RawPost {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		logging.SourceWarn("search HTML parse failed: %v", err)
		return nil
	}

	var posts []types.RawPost
	var snippets []string

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attr(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				href := cleanRedirect(attr(n, "href"))
				if href != "" && len(posts) < limit {
					posts = append(posts, types.RawPost{
						URL:   href,
						Title: textContent(n),
					})
				}
			case strings.Contains(class, "result__snippet"):
				snippets = append(snippets, textContent(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	for i := range posts {
		if i < len(snippets) {
			posts[i].Content = snippets[i]
		}
	}
	return posts
}

// cleanRedirect unwraps engine redirect URLs (uddg=<actual>) to the target.
func cleanRedirect(raw string) string {
	if !strings.Contains(raw, "uddg=") {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if actual := parsed.Query().Get("uddg"); actual != "" {
		return actual
	}
	return raw
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.TrimSpace(sb.String())
}

// Package platform infers which platform a URL belongs to from its host
// alone, and normalizes Twitter/X status links to a canonical, repliable form.
// Everything here is pure: no I/O, stable across calls.
package platform

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"prospect/internal/types"
)

// Tag is the normalized source-site label derived from a URL.
type Tag string

const (
	TagTwitter    Tag = "twitter"
	TagReddit     Tag = "reddit"
	TagNextdoor   Tag = "nextdoor"
	TagFacebook   Tag = "facebook"
	TagLinkedIn   Tag = "linkedin"
	TagCraigslist Tag = "craigslist"
	TagAmazon     Tag = "amazon"
	TagGeneral    Tag = "general"
)

// hostTags is checked in order; first match wins. twitter.com and x.com both
// map to twitter so query construction and finding labels agree.
var hostTags = []struct {
	substr string
	tag    Tag
}{
	{"twitter.com", TagTwitter},
	{"x.com", TagTwitter},
	{"reddit.com", TagReddit},
	{"nextdoor.com", TagNextdoor},
	{"facebook.com", TagFacebook},
	{"linkedin.com", TagLinkedIn},
	{"craigslist.org", TagCraigslist},
	{"amazon.com", TagAmazon},
}

// Infer maps a URL to its platform tag. Unparseable or unrecognized URLs map
// to TagGeneral.
func Infer(rawURL string) Tag {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		// Fall back to substring matching on the raw string; scraped
		// hrefs are not always absolute URLs.
		return matchHost(strings.ToLower(rawURL))
	}
	return matchHost(strings.ToLower(u.Host))
}

func matchHost(host string) Tag {
	for _, h := range hostTags {
		if strings.Contains(host, h.substr) {
			return h.tag
		}
	}
	return TagGeneral
}

// FindingType returns the finding_type label persisted for a platform tag.
func FindingType(tag Tag) string {
	switch tag {
	case TagAmazon:
		return "amazon_product"
	case TagGeneral:
		return "general_opportunity"
	default:
		return string(tag) + "_opportunity"
	}
}

// SiteFilter returns the search-engine site scope for a channel name, e.g.
// "site:twitter.com OR site:x.com" for twitter. Unknown channels scope to
// nothing (plain web search).
func SiteFilter(channel string) string {
	switch Tag(strings.ToLower(strings.TrimSpace(channel))) {
	case TagTwitter:
		return "site:twitter.com OR site:x.com"
	case TagReddit:
		return "site:reddit.com"
	case TagNextdoor:
		return "site:nextdoor.com"
	case TagFacebook:
		return "site:facebook.com"
	case TagLinkedIn:
		return "site:linkedin.com"
	case TagCraigslist:
		return "site:craigslist.org"
	case TagAmazon:
		return "site:amazon.com"
	default:
		return ""
	}
}

// tweetIDPattern matches the status ID in the accepted URL shapes:
// twitter.com/<user>/status/<id>, x.com/<user>/status/<id>,
// x.com/i/web/status/<id>.
var tweetIDPattern = regexp.MustCompile(`/status(?:es)?/(\d+)`)

// NormalizeTweetURL extracts the numeric tweet ID from a Twitter/X URL and
// rewrites it to the canonical https://x.com/i/web/status/<id> form. A URL on
// a Twitter/X host without a parseable ID returns types.ErrNoTweetID; such
// posts are un-repliable and must not be persisted.
func NormalizeTweetURL(rawURL string) (string, error) {
	if Infer(rawURL) != TagTwitter {
		return "", fmt.Errorf("not a twitter url: %s", rawURL)
	}
	m := tweetIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", types.ErrNoTweetID
	}
	return "https://x.com/i/web/status/" + m[1], nil
}

package platform

import (
	"errors"
	"testing"

	"prospect/internal/types"
)

func TestInfer(t *testing.T) {
	cases := []struct {
		url  string
		want Tag
	}{
		{"https://twitter.com/someuser/status/42", TagTwitter},
		{"https://x.com/i/web/status/42", TagTwitter},
		{"https://www.reddit.com/r/freelance/comments/abc", TagReddit},
		{"https://nextdoor.com/p/12345", TagNextdoor},
		{"https://www.facebook.com/groups/handyman/posts/9", TagFacebook},
		{"https://www.linkedin.com/posts/someone_activity", TagLinkedIn},
		{"https://sfbay.craigslist.org/sby/web/d/post.html", TagCraigslist},
		{"https://www.amazon.com/dp/B000000", TagAmazon},
		{"https://someblog.example.com/post", TagGeneral},
		{"not a url at all", TagGeneral},
		{"", TagGeneral},
	}
	for _, tc := range cases {
		if got := Infer(tc.url); got != tc.want {
			t.Errorf("Infer(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestNormalizeTweetURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://twitter.com/someuser/status/42", "https://x.com/i/web/status/42"},
		{"https://x.com/someuser/status/12345", "https://x.com/i/web/status/12345"},
		{"https://x.com/i/web/status/99", "https://x.com/i/web/status/99"},
		{"https://twitter.com/u/statuses/777", "https://x.com/i/web/status/777"},
	}
	for _, tc := range cases {
		got, err := NormalizeTweetURL(tc.url)
		if err != nil {
			t.Errorf("NormalizeTweetURL(%q) error: %v", tc.url, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeTweetURL(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestNormalizeTweetURLRejects(t *testing.T) {
	// Profile and search URLs have no status ID and cannot be replied to.
	noID := []string{
		"https://twitter.com/someuser",
		"https://x.com/search?q=task+manager",
		"https://twitter.com/someuser/status/notanumber",
	}
	for _, u := range noID {
		if _, err := NormalizeTweetURL(u); !errors.Is(err, types.ErrNoTweetID) {
			t.Errorf("NormalizeTweetURL(%q) err = %v, want ErrNoTweetID", u, err)
		}
	}

	if _, err := NormalizeTweetURL("https://reddit.com/r/x/comments/1"); err == nil {
		t.Error("non-twitter URL should error")
	} else if errors.Is(err, types.ErrNoTweetID) {
		t.Error("non-twitter URL should not report ErrNoTweetID")
	}
}

func TestFindingType(t *testing.T) {
	cases := []struct {
		tag  Tag
		want string
	}{
		{TagTwitter, "twitter_opportunity"},
		{TagReddit, "reddit_opportunity"},
		{TagAmazon, "amazon_product"},
		{TagGeneral, "general_opportunity"},
	}
	for _, tc := range cases {
		if got := FindingType(tc.tag); got != tc.want {
			t.Errorf("FindingType(%v) = %q, want %q", tc.tag, got, tc.want)
		}
	}
}

func TestSiteFilter(t *testing.T) {
	if got := SiteFilter("twitter"); got != "site:twitter.com OR site:x.com" {
		t.Errorf("twitter filter = %q", got)
	}
	if got := SiteFilter("reddit"); got != "site:reddit.com" {
		t.Errorf("reddit filter = %q", got)
	}
	if got := SiteFilter("myforum"); got != "" {
		t.Errorf("unknown channel filter = %q, want empty", got)
	}
}

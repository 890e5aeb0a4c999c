package source

import (
	"fmt"
	"strings"

	"prospect/internal/platform"
	"prospect/internal/types"
)

// QueryBuilder derives channel-scoped search queries from a campaign. Phrase
// templates and limits are injected static configuration, not globals, so
// campaigns with different products can supply different sets.
type QueryBuilder struct {
	helpPhrases    []string
	defaultChannel string
	maxPerChannel  int
}

// NewQueryBuilder creates a query builder.
func NewQueryBuilder(helpPhrases []string, defaultChannel string, maxPerChannel int) *QueryBuilder {
	if defaultChannel == "" {
		defaultChannel = "twitter"
	}
	if maxPerChannel <= 0 {
		maxPerChannel = 3
	}
	return &QueryBuilder{
		helpPhrases:    helpPhrases,
		defaultChannel: defaultChannel,
		maxPerChannel:  maxPerChannel,
	}
}

// Build returns the query list for one discovery run: for every configured
// channel, up to maxPerChannel help-phrase x product combinations with the
// channel's site filter appended. A campaign without channels defaults to a
// single channel.
func (b *QueryBuilder) Build(campaign *types.Campaign) []string {
	channels := campaign.Channels
	if len(channels) == 0 {
		channels = []string{b.defaultChannel}
	}

	keywords := productKeywords(campaign.Product)
	if keywords == "" {
		keywords = campaign.Name
	}

	var queries []string
	for _, channel := range channels {
		filter := platform.SiteFilter(channel)
		count := 0
		for _, phrase := range b.helpPhrases {
			if count >= b.maxPerChannel {
				break
			}
			q := fmt.Sprintf("%q %s", phrase, keywords)
			if filter != "" {
				q = q + " " + filter
			}
			queries = append(queries, q)
			count++
		}
	}
	return queries
}

// productKeywords keeps the leading significant words of the product
// description. Full free-text descriptions make poor search terms; the first
// few content words carry the product identity.
func productKeywords(product string) string {
	words := strings.Fields(product)
	var kept []string
	for _, w := range words {
		if len(kept) >= 4 {
			break
		}
		if len(w) <= 2 {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

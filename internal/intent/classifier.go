// Package intent classifies candidate posts by purchase/help intent using an
// LLM backend. The backend contract is strict JSON against a fixed schema;
// anything that does not validate is treated as a per-item failure and the
// caller decides whether the item is admitted on fallback terms.
package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prospect/internal/types"
)

// ErrUnavailable marks a classifier with no usable backend. Callers route
// admitted-by-default candidates through the fallback path when they see it.
var ErrUnavailable = errors.New("intent classifier unavailable")

// Classifier analyzes one candidate post against a campaign's product
// context. Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, campaign *types.Campaign, post types.RawPost) (*types.IntentAnalysis, error)
}

// Unavailable is the backend used when no LLM credential is configured.
// Every call fails with ErrUnavailable, which downstream maps to the
// default-relevance review path.
type Unavailable struct{}

func (Unavailable) Classify(context.Context, *types.Campaign, types.RawPost) (*types.IntentAnalysis, error) {
	return nil, ErrUnavailable
}

const systemPrompt = `You are an intent analyst for a marketing discovery pipeline. Your ONLY job is to read one social/community post and classify the author's intent relative to a product.

Hard rules:
- This is discovery analysis only. NEVER write outreach copy, replies, DMs, or any content addressed to the post author.
- NEVER fabricate details that are not present in the post. If the post does not state a constraint, do not invent one.
- Respond with a single strict JSON object matching the required schema. No prose, no markdown, no code fences.

Intent categories:
- explicit_help_request: the author directly asks for help, a recommendation, or a solution.
- implicit_pain_struggle: the author describes a problem or frustration without directly asking.
- solution_research_comparison: the author is comparing or evaluating options.
- general_discussion_opinion: on-topic conversation with no actionable need.
- promotional_irrelevant: the post is itself promotion, spam, or unrelated.

Scoring: intent_score is 0.0-1.0 and expresses how actionable this post is for the product. An explicit ask for exactly what the product does scores high; vague topical chatter scores low; promotion scores near zero.

recommended_next_step must be one of: ignore, review, high_priority.`

// BuildUserPrompt renders the per-post classification request.
func BuildUserPrompt(campaign *types.Campaign, post types.RawPost) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Product context:\nName: %s\nProduct: %s\n", campaign.Name, campaign.Product)
	if len(campaign.Goals) > 0 {
		fmt.Fprintf(&sb, "Campaign goals: %s\n", strings.Join(campaign.Goals, "; "))
	}

	fmt.Fprintf(&sb, "\nPost to analyze:\nTitle: %s\nURL: %s\n", post.Title, post.URL)
	if post.Platform != "" {
		fmt.Fprintf(&sb, "Platform: %s\n", post.Platform)
	}
	if post.Content != "" {
		fmt.Fprintf(&sb, "Body:\n%s\n", post.Content)
	}
	if post.Engagement != nil {
		fmt.Fprintf(&sb, "Engagement: %d likes, %d replies, %d shares\n",
			post.Engagement.Likes, post.Engagement.Replies, post.Engagement.Shares)
	}

	sb.WriteString("\nClassify the author's intent. Respond with the JSON object only.")
	return sb.String()
}

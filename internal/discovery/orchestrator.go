// Package discovery composes the pipeline: query building, source adapters,
// platform tagging, deduplication, intent classification, and persistence,
// one run per campaign.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prospect/internal/intent"
	"prospect/internal/logging"
	"prospect/internal/platform"
	"prospect/internal/source"
	"prospect/internal/types"
)

// CampaignProvider supplies campaign context for runs.
type CampaignProvider interface {
	GetCampaign(ctx context.Context, id string) (*types.Campaign, error)
	ListCampaigns(ctx context.Context, activeOnly bool) ([]*types.Campaign, error)
}

// FindingStore is the persistence surface a run needs.
type FindingStore interface {
	ListURLs(ctx context.Context, campaignID string) (map[string]bool, error)
	InsertFindings(ctx context.Context, findings []*types.Finding) (int, error)
	UpsertAgentState(ctx context.Context, state *types.AgentState) error
}

// Options configures an Orchestrator.
type Options struct {
	PerQueryLimit int
}

// Orchestrator runs the discovery pipeline for campaigns.
type Orchestrator struct {
	campaigns     CampaignProvider
	store         FindingStore
	adapter       source.Adapter
	pool          *intent.Pool
	queries       *source.QueryBuilder
	perQueryLimit int
}

// New creates an orchestrator.
func New(campaigns CampaignProvider, store FindingStore, adapter source.Adapter,
	pool *intent.Pool, queries *source.QueryBuilder, opts Options) *Orchestrator {
	limit := opts.PerQueryLimit
	if limit <= 0 {
		limit = 10
	}
	return &Orchestrator{
		campaigns:     campaigns,
		store:         store,
		adapter:       adapter,
		pool:          pool,
		queries:       queries,
		perQueryLimit: limit,
	}
}

// Run executes one discovery run for a campaign. Validation failures return
// a structured failure result alongside the typed error and touch no state.
// Past validation, partial failures accumulate in the result's Errors while
// the run continues.
func (o *Orchestrator) Run(ctx context.Context, campaignID string) (*types.DiscoveryResult, error) {
	result := &types.DiscoveryResult{
		CampaignID: campaignID,
		Method:     o.adapter.Method(),
		Findings:   []types.FindingSummary{},
	}

	if campaignID == "" {
		result.Errors = append(result.Errors, types.ErrCampaignIDRequired.Error())
		return result, types.ErrCampaignIDRequired
	}

	campaign, err := o.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}
	if !campaign.IsActive() {
		result.Errors = append(result.Errors, types.ErrCampaignInactive.Error())
		return result, types.ErrCampaignInactive
	}

	timer := logging.StartTimer(logging.CategoryDiscovery, "run "+campaignID)
	defer timer.Stop()

	now := time.Now().UTC()
	if err := o.store.UpsertAgentState(ctx, &types.AgentState{
		CampaignID: campaignID,
		Phase:      types.PhaseResearch,
		LastRunAt:  &now,
	}); err != nil {
		logging.AgentWarn("research state upsert failed for %s: %v", campaignID, err)
		result.Errors = append(result.Errors, err.Error())
	}

	posts := o.gather(ctx, campaign, result)
	posts = o.tagPlatforms(posts)

	known, err := o.store.ListURLs(ctx, campaignID)
	if err != nil {
		logging.Discovery("known-url load failed for %s, dedup against batch only: %v", campaignID, err)
		result.Errors = append(result.Errors, err.Error())
		known = map[string]bool{}
	}
	fresh := filterNew(posts, known)
	logging.Discovery("campaign %s: %d candidates, %d after dedup", campaignID, len(posts), len(fresh))

	findings := o.classify(ctx, campaign, fresh, result)

	inserted, err := o.store.InsertFindings(ctx, findings)
	if err != nil {
		o.recordError(ctx, campaignID, err)
		result.Errors = append(result.Errors, err.Error())
		return result, fmt.Errorf("persist findings for %s: %w", campaignID, err)
	}
	result.FindingsCount = inserted

	if err := o.store.UpsertAgentState(ctx, &types.AgentState{
		CampaignID:          campaignID,
		Phase:               types.PhasePlanning,
		LastRunAt:           &now,
		OpportunitiesQueued: inserted,
	}); err != nil {
		logging.AgentWarn("planning state upsert failed for %s: %v", campaignID, err)
		result.Errors = append(result.Errors, err.Error())
	}

	result.Success = true
	logging.Discovery("campaign %s: run complete, %d inserted (%d high priority, %d review)",
		campaignID, inserted, result.HighPriorityCount, result.ReviewCount)
	return result, nil
}

// RunBatch runs campaigns sequentially. One campaign's failure never stops
// the rest; each outcome carries its own result or error.
func (o *Orchestrator) RunBatch(ctx context.Context, campaignIDs []string) []types.CampaignOutcome {
	outcomes := make([]types.CampaignOutcome, 0, len(campaignIDs))
	for _, id := range campaignIDs {
		result, err := o.Run(ctx, id)
		outcomes = append(outcomes, types.CampaignOutcome{
			CampaignID: id,
			Result:     result,
			Err:        err,
		})
	}
	return outcomes
}

// RunAll runs every active campaign.
func (o *Orchestrator) RunAll(ctx context.Context) ([]types.CampaignOutcome, error) {
	campaigns, err := o.campaigns.ListCampaigns(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	ids := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}
	return o.RunBatch(ctx, ids), nil
}

// gather runs every built query against the adapter. A failing query is
// logged into the result and skipped.
func (o *Orchestrator) gather(ctx context.Context, campaign *types.Campaign, result *types.DiscoveryResult) []types.RawPost {
	var posts []types.RawPost
	for _, query := range o.queries.Build(campaign) {
		found, err := o.adapter.Search(ctx, query, o.perQueryLimit)
		if err != nil {
			logging.SourceWarn("query %q failed: %v", query, err)
			result.Errors = append(result.Errors, fmt.Sprintf("query %q: %v", query, err))
			continue
		}
		posts = append(posts, found...)
	}
	return posts
}

// tagPlatforms stamps each post with its inferred platform and canonicalizes
// Twitter/X URLs. Twitter-host posts without a parseable status ID are
// dropped; they cannot be replied to.
func (o *Orchestrator) tagPlatforms(posts []types.RawPost) []types.RawPost {
	kept := posts[:0:0]
	for _, p := range posts {
		tag := platform.Infer(p.URL)
		if tag == platform.TagTwitter {
			canonical, err := platform.NormalizeTweetURL(p.URL)
			if err != nil {
				if errors.Is(err, types.ErrNoTweetID) {
					logging.DiscoveryDebug("dropping un-normalizable twitter url %s", p.URL)
				}
				continue
			}
			p.URL = canonical
		}
		p.Platform = string(tag)
		kept = append(kept, p)
	}
	return kept
}

// classify runs the pooled intent classifier over the candidates and applies
// the admission gate. A candidate whose classification failed is admitted on
// conservative fallback terms rather than dropped.
func (o *Orchestrator) classify(ctx context.Context, campaign *types.Campaign,
	posts []types.RawPost, result *types.DiscoveryResult) []*types.Finding {

	outcomes := o.pool.ClassifyAll(ctx, campaign, posts)

	var findings []*types.Finding
	for _, out := range outcomes {
		f := o.buildFinding(campaign.ID, out)
		if f == nil {
			continue
		}
		findings = append(findings, f)

		switch f.RecommendedNextStep {
		case types.StepHighPriority:
			result.HighPriorityCount++
		case types.StepReview:
			result.ReviewCount++
		}
		result.Findings = append(result.Findings, types.FindingSummary{
			Title:               f.Title,
			URL:                 f.SourceURL,
			IntentScore:         f.IntentScore,
			IntentCategory:      f.IntentCategory,
			RecommendedNextStep: f.RecommendedNextStep,
		})
	}
	return findings
}

// buildFinding maps one classification outcome to a persistable finding, or
// nil when the candidate is gated out.
func (o *Orchestrator) buildFinding(campaignID string, out intent.Outcome) *types.Finding {
	tag := platform.Tag(out.Post.Platform)
	base := &types.Finding{
		CampaignID:  campaignID,
		Title:       out.Post.Title,
		Content:     out.Post.Content,
		SourceURL:   out.Post.URL,
		FindingType: platform.FindingType(tag),
	}

	if out.Analysis == nil {
		// Classifier degraded for this post; keep it on conservative terms.
		base.RelevanceScore = types.DefaultRelevance
		base.RecommendedNextStep = types.StepReview
		return base
	}

	if !out.Analysis.Admitted() {
		return nil
	}

	a := out.Analysis
	score := a.IntentScore
	base.RelevanceScore = a.Relevance()
	base.IntentCategory = a.IntentCategory
	base.IntentScore = &score
	base.CoreProblem = a.CoreProblem
	base.UnderlyingMotivation = a.UnderlyingMotivation
	base.Constraints = a.Constraints
	base.EmotionalSignals = a.EmotionalSignals
	base.ConfidenceReasoning = a.ConfidenceReasoning
	base.RecommendedNextStep = a.RecommendedNextStep
	return base
}

func (o *Orchestrator) recordError(ctx context.Context, campaignID string, cause error) {
	now := time.Now().UTC()
	if err := o.store.UpsertAgentState(ctx, &types.AgentState{
		CampaignID: campaignID,
		Phase:      types.PhaseError,
		LastRunAt:  &now,
		ErrorCount: 1,
		LastError:  cause.Error(),
	}); err != nil {
		logging.AgentWarn("error state upsert failed for %s: %v", campaignID, err)
	}
}

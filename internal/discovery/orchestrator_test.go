package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"prospect/internal/intent"
	"prospect/internal/source"
	"prospect/internal/store"
	"prospect/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeAdapter returns the same scripted posts for every query.
type fakeAdapter struct {
	posts []types.RawPost
	err   error
	calls int
}

func (f *fakeAdapter) Name() string   { return "fake" }
func (f *fakeAdapter) Method() string { return types.MethodAPI }
func (f *fakeAdapter) Search(context.Context, string, int) ([]types.RawPost, error) {
	f.calls++
	return f.posts, f.err
}

// fakeClassifier scripts analyses per URL; unscripted URLs fail.
type fakeClassifier struct {
	analyses map[string]*types.IntentAnalysis
}

func (f *fakeClassifier) Classify(_ context.Context, _ *types.Campaign, post types.RawPost) (*types.IntentAnalysis, error) {
	if a, ok := f.analyses[post.URL]; ok {
		return a, nil
	}
	return nil, errors.New("backend timeout")
}

// fakeStore keeps findings in memory with the same uniqueness semantics as
// the SQLite store.
type fakeStore struct {
	mu        sync.Mutex
	findings  map[string]map[string]*types.Finding // campaign -> url -> finding
	states    []*types.AgentState
	insertErr error
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{findings: make(map[string]map[string]*types.Finding)}
}

func (f *fakeStore) ListURLs(_ context.Context, campaignID string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	urls := make(map[string]bool)
	for u := range f.findings[campaignID] {
		urls[u] = true
	}
	return urls, nil
}

func (f *fakeStore) InsertFindings(_ context.Context, findings []*types.Finding) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	inserted := 0
	for _, finding := range findings {
		byURL := f.findings[finding.CampaignID]
		if byURL == nil {
			byURL = make(map[string]*types.Finding)
			f.findings[finding.CampaignID] = byURL
		}
		if _, exists := byURL[finding.SourceURL]; exists {
			continue
		}
		byURL[finding.SourceURL] = finding
		inserted++
	}
	return inserted, nil
}

func (f *fakeStore) UpsertAgentState(_ context.Context, state *types.AgentState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	return nil
}

func (f *fakeStore) lastPhase() types.AgentPhase {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.states) == 0 {
		return ""
	}
	return f.states[len(f.states)-1].Phase
}

func (f *fakeStore) finding(campaignID, url string) *types.Finding {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findings[campaignID][url]
}

var testCampaign = &types.Campaign{
	ID:       "c1",
	Name:     "TaskFlow",
	Product:  "task manager",
	Channels: []string{"twitter"},
	Status:   types.CampaignActive,
}

func newTestOrchestrator(st *fakeStore, adapter source.Adapter, classifier intent.Classifier, campaigns ...*types.Campaign) *Orchestrator {
	if len(campaigns) == 0 {
		campaigns = []*types.Campaign{testCampaign}
	}
	provider := store.NewMemoryCampaigns(campaigns...)
	queries := source.NewQueryBuilder([]string{"need help"}, "twitter", 1)
	pool := intent.NewPool(classifier, 2)
	return New(provider, st, adapter, pool, queries, Options{PerQueryLimit: 10})
}

func TestRunPersistsHighIntentFinding(t *testing.T) {
	st := newFakeStore()
	adapter := &fakeAdapter{posts: []types.RawPost{
		{URL: "https://x.com/u/status/42", Title: "need help finding a task manager"},
	}}
	classifier := &fakeClassifier{analyses: map[string]*types.IntentAnalysis{
		"https://x.com/i/web/status/42": {
			IntentCategory:      types.IntentExplicitHelpRequest,
			IntentScore:         0.82,
			RecommendedNextStep: types.StepHighPriority,
		},
	}}

	result, err := newTestOrchestrator(st, adapter, classifier).Run(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.FindingsCount != 1 || result.HighPriorityCount != 1 {
		t.Fatalf("result = %+v", result)
	}

	f := st.finding("c1", "https://x.com/i/web/status/42")
	if f == nil {
		t.Fatal("finding not persisted under the canonical tweet URL")
	}
	if f.RelevanceScore != 8 {
		t.Errorf("relevance = %d, want 8", f.RelevanceScore)
	}
	if f.FindingType != "twitter_opportunity" {
		t.Errorf("finding type = %q", f.FindingType)
	}
	if st.lastPhase() != types.PhasePlanning {
		t.Errorf("final phase = %q", st.lastPhase())
	}
}

func TestRunGatesLowIntent(t *testing.T) {
	st := newFakeStore()
	adapter := &fakeAdapter{posts: []types.RawPost{
		{URL: "https://x.com/u/status/42", Title: "task managers in general"},
	}}
	classifier := &fakeClassifier{analyses: map[string]*types.IntentAnalysis{
		"https://x.com/i/web/status/42": {
			IntentCategory:      types.IntentGeneralDiscussion,
			IntentScore:         0.30,
			RecommendedNextStep: types.StepIgnore,
		},
	}}

	result, err := newTestOrchestrator(st, adapter, classifier).Run(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FindingsCount != 0 {
		t.Errorf("findings = %d, want 0", result.FindingsCount)
	}
	if st.finding("c1", "https://x.com/i/web/status/42") != nil {
		t.Error("gated finding must not be persisted")
	}
}

func TestRunRejectsUnNormalizableTwitterURL(t *testing.T) {
	st := newFakeStore()
	adapter := &fakeAdapter{posts: []types.RawPost{
		{URL: "https://twitter.com/someuser", Title: "profile link, no status"},
	}}
	// Classifier would admit it if asked; rejection must happen first.
	classifier := &fakeClassifier{analyses: map[string]*types.IntentAnalysis{
		"https://twitter.com/someuser": {
			IntentCategory:      types.IntentExplicitHelpRequest,
			IntentScore:         0.9,
			RecommendedNextStep: types.StepHighPriority,
		},
	}}

	result, err := newTestOrchestrator(st, adapter, classifier).Run(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FindingsCount != 0 {
		t.Errorf("findings = %d, want 0", result.FindingsCount)
	}
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	st := newFakeStore()
	adapter := &fakeAdapter{posts: []types.RawPost{
		{URL: "https://x.com/u/status/42", Title: "need help finding a task manager"},
	}}
	classifier := &fakeClassifier{analyses: map[string]*types.IntentAnalysis{
		"https://x.com/i/web/status/42": {
			IntentCategory:      types.IntentExplicitHelpRequest,
			IntentScore:         0.82,
			RecommendedNextStep: types.StepHighPriority,
		},
	}}
	orch := newTestOrchestrator(st, adapter, classifier)

	first, err := orch.Run(context.Background(), "c1")
	if err != nil || first.FindingsCount != 1 {
		t.Fatalf("first run: %+v, err %v", first, err)
	}
	second, err := orch.Run(context.Background(), "c1")
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if second.FindingsCount != 0 {
		t.Errorf("second run findings = %d, want 0", second.FindingsCount)
	}
	if len(st.findings["c1"]) != 1 {
		t.Errorf("stored findings = %d, want exactly 1", len(st.findings["c1"]))
	}
}

func TestRunFallbackWhenClassifierDegraded(t *testing.T) {
	st := newFakeStore()
	adapter := &fakeAdapter{posts: []types.RawPost{
		{URL: "https://a.example/1", Title: "one"},
		{URL: "https://a.example/2", Title: "two"},
		{URL: "https://a.example/3", Title: "three"},
	}}
	// No scripted analyses: every classification fails.
	classifier := &fakeClassifier{}

	result, err := newTestOrchestrator(st, adapter, classifier).Run(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FindingsCount != 3 {
		t.Fatalf("findings = %d, want all 3 on fallback terms", result.FindingsCount)
	}
	if result.ReviewCount != 3 {
		t.Errorf("review count = %d, want 3", result.ReviewCount)
	}
	for _, url := range []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"} {
		f := st.finding("c1", url)
		if f == nil {
			t.Fatalf("missing fallback finding for %s", url)
		}
		if f.RelevanceScore != types.DefaultRelevance {
			t.Errorf("relevance = %d, want %d", f.RelevanceScore, types.DefaultRelevance)
		}
		if f.RecommendedNextStep != types.StepReview {
			t.Errorf("next step = %q, want review", f.RecommendedNextStep)
		}
		if f.IntentScore != nil {
			t.Error("fallback finding must not fabricate an intent score")
		}
	}
}

func TestRunValidationHasNoSideEffects(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"missing id", "", types.ErrCampaignIDRequired},
		{"not found", "ghost", types.ErrCampaignNotFound},
		{"inactive", "paused", types.ErrCampaignInactive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newFakeStore()
			adapter := &fakeAdapter{}
			orch := newTestOrchestrator(st, adapter, &fakeClassifier{},
				testCampaign,
				&types.Campaign{ID: "paused", Name: "p", Product: "p", Status: types.CampaignPaused},
			)

			result, err := orch.Run(context.Background(), tc.id)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if result.Success {
				t.Error("result should not be successful")
			}
			if len(result.Errors) == 0 {
				t.Error("result should carry the validation error")
			}
			if len(st.states) != 0 {
				t.Error("validation failure must not touch agent state")
			}
			if adapter.calls != 0 {
				t.Error("validation failure must not invoke the adapter")
			}
		})
	}
}

func TestRunQueryFailureIsolation(t *testing.T) {
	st := newFakeStore()
	adapter := &fakeAdapter{err: errors.New("adapter exploded")}

	result, err := newTestOrchestrator(st, adapter, &fakeClassifier{}).Run(context.Background(), "c1")
	if err != nil {
		t.Fatalf("a failing query must not fail the run: %v", err)
	}
	if !result.Success {
		t.Error("run should complete")
	}
	if len(result.Errors) == 0 {
		t.Error("query failure should be reported in Errors")
	}
	if st.lastPhase() != types.PhasePlanning {
		t.Errorf("final phase = %q", st.lastPhase())
	}
}

func TestRunPersistenceFailureSetsErrorPhase(t *testing.T) {
	st := newFakeStore()
	st.insertErr = errors.New("disk full")
	adapter := &fakeAdapter{posts: []types.RawPost{
		{URL: "https://a.example/1", Title: "one"},
	}}

	result, err := newTestOrchestrator(st, adapter, &fakeClassifier{}).Run(context.Background(), "c1")
	if err == nil {
		t.Fatal("persistence failure must surface")
	}
	if result.Success {
		t.Error("result should not be successful")
	}
	if st.lastPhase() != types.PhaseError {
		t.Errorf("final phase = %q, want error", st.lastPhase())
	}
}

func TestRunBatchIsolation(t *testing.T) {
	st := newFakeStore()
	adapter := &fakeAdapter{posts: []types.RawPost{
		{URL: "https://a.example/1", Title: "one"},
		{URL: "https://a.example/2", Title: "two"},
	}}
	classifier := &fakeClassifier{analyses: map[string]*types.IntentAnalysis{
		"https://a.example/1": {IntentCategory: types.IntentExplicitHelpRequest, IntentScore: 0.8, RecommendedNextStep: types.StepHighPriority},
		"https://a.example/2": {IntentCategory: types.IntentImplicitPain, IntentScore: 0.6, RecommendedNextStep: types.StepReview},
	}}
	orch := newTestOrchestrator(st, adapter, classifier,
		&types.Campaign{ID: "y", Name: "Y", Product: "task manager", Status: types.CampaignActive})

	outcomes := orch.RunBatch(context.Background(), []string{"x-missing", "y"})
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes", len(outcomes))
	}

	if !errors.Is(outcomes[0].Err, types.ErrCampaignNotFound) {
		t.Errorf("campaign x err = %v", outcomes[0].Err)
	}
	if outcomes[1].Err != nil {
		t.Errorf("campaign y err = %v", outcomes[1].Err)
	}
	if outcomes[1].Result.FindingsCount != 2 {
		t.Errorf("campaign y findings = %d, want 2", outcomes[1].Result.FindingsCount)
	}
}

func TestRunAllSkipsInactive(t *testing.T) {
	st := newFakeStore()
	adapter := &fakeAdapter{}
	orch := newTestOrchestrator(st, adapter, &fakeClassifier{},
		testCampaign,
		&types.Campaign{ID: "paused", Name: "p", Product: "p", Status: types.CampaignPaused},
	)

	outcomes, err := orch.RunAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].CampaignID != "c1" {
		t.Errorf("outcomes = %+v", outcomes)
	}
}

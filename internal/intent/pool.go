package intent

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"prospect/internal/logging"
	"prospect/internal/types"
)

// Outcome pairs one post with its analysis or per-item error.
type Outcome struct {
	Post     types.RawPost
	Analysis *types.IntentAnalysis
	Err      error
}

// Pool fans classification out across a batch with a bounded number of
// in-flight backend calls. Order of outcomes matches the input order.
type Pool struct {
	classifier Classifier
	sem        *semaphore.Weighted
}

// NewPool wraps a classifier with a concurrency cap.
func NewPool(classifier Classifier, maxConcurrent int) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Pool{
		classifier: classifier,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// ClassifyAll classifies every post. One post's failure never blocks the
// rest; its outcome carries the error instead.
func (p *Pool) ClassifyAll(ctx context.Context, campaign *types.Campaign, posts []types.RawPost) []Outcome {
	outcomes := make([]Outcome, len(posts))

	var wg sync.WaitGroup
	for i, post := range posts {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = Outcome{Post: post, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, post types.RawPost) {
			defer wg.Done()
			defer p.sem.Release(1)

			analysis, err := p.classifier.Classify(ctx, campaign, post)
			if err != nil {
				logging.IntentDebug("classify failed for %s: %v", post.URL, err)
			}
			outcomes[i] = Outcome{Post: post, Analysis: analysis, Err: err}
		}(i, post)
	}
	wg.Wait()

	return outcomes
}

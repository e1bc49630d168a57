package embeddings

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// fullBatchSize is the largest slice submitted to the provider in one call.
	fullBatchSize = 5

	// pairFanout is the concurrency used when a full batch is degraded to
	// single calls. Kept small to bound load on the provider.
	pairFanout = 2

	maxAttempts = 3
)

// BatchResult pairs an embedding with the index of its source text in the
// original input. Skipped texts have no entry, so callers must not assume
// positional correspondence between input and output across a skip.
type BatchResult struct {
	Index  int
	Vector []float32
}

// AdaptiveClient wraps an Embedder with retry, batch-size degradation and
// request throttling. Batches are attempted whole first; on provider failure
// the slice degrades to pairs of concurrent single calls, then to sequential
// single calls with per-item retry. Items that fail at every size are
// skipped and omitted from the output.
type AdaptiveClient struct {
	embedder  Embedder
	limiter   *rate.Limiter
	baseDelay time.Duration
	maxDelay  time.Duration
}

// NewAdaptiveClient creates an AdaptiveClient. submitDelay is the fixed pause
// between successive batch submissions, throttling overall request rate to
// stay under the provider's requests-per-minute ceiling.
func NewAdaptiveClient(embedder Embedder, submitDelay time.Duration) *AdaptiveClient {
	if submitDelay <= 0 {
		submitDelay = 200 * time.Millisecond
	}
	return &AdaptiveClient{
		embedder:  embedder,
		limiter:   rate.NewLimiter(rate.Every(submitDelay), 1),
		baseDelay: 2 * time.Second,
		maxDelay:  10 * time.Second,
	}
}

func (c *AdaptiveClient) Name() string {
	return c.embedder.Name()
}

// Dimensions reports the fixed vector dimension of the underlying model,
// available before any call is made.
func (c *AdaptiveClient) Dimensions() int {
	return c.embedder.Dimensions()
}

// EmbedOne embeds a single text, retrying up to maxAttempts with exponential
// backoff on any provider error. The final failure wraps ErrEmbeddingFailed.
func (c *AdaptiveClient) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	delay := c.baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		vecs, err := c.embedder.Embed(ctx, []string{text})
		if err == nil && len(vecs) == 1 {
			return vecs[0], nil
		}
		if err == nil {
			err = fmt.Errorf("expected 1 embedding, got %d", len(vecs))
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrEmbeddingFailed, maxAttempts, lastErr)
}

// EmbedBatch embeds texts with adaptive batch-size degradation. The result
// list is ordered by source index; texts that failed at every batch size are
// omitted, so the output may be shorter than the input.
func (c *AdaptiveClient) EmbedBatch(ctx context.Context, texts []string) ([]BatchResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([]BatchResult, 0, len(texts))

	for start := 0; start < len(texts); start += fullBatchSize {
		end := start + fullBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return results, err
		}

		group, err := c.embedGroup(ctx, texts[start:end], start)
		if err != nil {
			return results, err
		}
		results = append(results, group...)
	}

	return results, nil
}

// embedGroup embeds one slice of up to fullBatchSize texts, degrading the
// batch size on failure. offset is the slice's position in the original input.
func (c *AdaptiveClient) embedGroup(ctx context.Context, group []string, offset int) ([]BatchResult, error) {
	// Full slice in one provider call.
	vecs, err := c.embedder.Embed(ctx, group)
	if err == nil && len(vecs) == len(group) {
		out := make([]BatchResult, len(group))
		for i, v := range vecs {
			out[i] = BatchResult{Index: offset + i, Vector: v}
		}
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Degrade to pairs of single calls run concurrently.
	vectors := make([][]float32, len(group))
	for i := 0; i < len(group); i += pairFanout {
		j := i + pairFanout
		if j > len(group) {
			j = len(group)
		}

		var wg sync.WaitGroup
		for k := i; k < j; k++ {
			wg.Add(1)
			go func(k int) {
				defer wg.Done()
				if vs, err := c.embedder.Embed(ctx, []string{group[k]}); err == nil && len(vs) == 1 {
					vectors[k] = vs[0]
				}
			}(k)
		}
		wg.Wait()
	}

	// Sequential single calls with per-item retry for whatever is left.
	out := make([]BatchResult, 0, len(group))
	for i, text := range group {
		if vectors[i] == nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			vec, err := c.EmbedOne(ctx, text)
			if err != nil {
				// Item exhausted every batch size: skip it.
				log.Printf("embeddings: skipping text %d: %v", offset+i, err)
				continue
			}
			vectors[i] = vec
		}
		out = append(out, BatchResult{Index: offset + i, Vector: vectors[i]})
	}

	return out, nil
}

package embed

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"insightsuite/internal/logger"
)

// Mode identifies which path produced a batch of vectors.
type Mode string

const (
	// ModeRemote means the external embedding service produced the vectors.
	ModeRemote Mode = "remote"
	// ModeLexical means the local TF-IDF fallback produced them.
	ModeLexical Mode = "lexical"
)

// RemoteEmbedder is the external embedding service contract. The llm
// package's Client satisfies it.
type RemoteEmbedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error)
	EmbeddingModel() string
}

// Result carries the vectors and the provenance of one Embed call.
type Result struct {
	Vectors     [][]float64
	Mode        Mode
	CacheHits   int
	RemoteCalls int
}

// Provider embeds review texts. Cache hits never touch the network;
// misses are batched to the remote service under a requests-per-minute
// budget. Remote failure degrades the whole current call to lexical
// vectors rather than failing it.
type Provider struct {
	remote  RemoteEmbedder
	cache   *Cache
	limiter *rate.Limiter
	opts    Options
}

// Options configures the provider.
type Options struct {
	// BatchSize is the number of texts per remote request.
	BatchSize int
	// RequestsPerMinute is the remote rate budget. Callers block on the
	// budget rather than erroring, up to WaitTimeout.
	RequestsPerMinute int
	// WaitTimeout bounds how long a single batch may wait on the rate
	// budget plus the request itself before the fallback triggers.
	WaitTimeout time.Duration
}

// DefaultOptions returns sensible defaults for the free-tier budgets the
// known embedding services impose.
func DefaultOptions() Options {
	return Options{
		BatchSize:         32,
		RequestsPerMinute: 60,
		WaitTimeout:       2 * time.Minute,
	}
}

// NewProvider creates a provider. remote may be nil, in which case every
// call uses the lexical fallback (and reports ModeLexical).
func NewProvider(remote RemoteEmbedder, cache *Cache, opts Options) *Provider {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.RequestsPerMinute < 1 {
		opts.RequestsPerMinute = 1
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 2 * time.Minute
	}
	return &Provider{
		remote:  remote,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1),
		opts:    opts,
	}
}

// ModelVersion returns the cache namespace for the active model.
func (p *Provider) ModelVersion() string {
	if p.remote == nil {
		return "lexical"
	}
	return p.remote.EmbeddingModel()
}

// Embed returns one vector per input text, in order.
//
// Each text's content hash is checked against the cache first; only
// misses are sent to the remote service. If any remote batch fails, the
// entire call degrades to lexical vectors for every input, so the batch
// stays internally comparable: remote and lexical vectors do not share a
// space and must never be mixed within one dataset.
func (p *Provider) Embed(ctx context.Context, texts []string) (*Result, error) {
	if len(texts) == 0 {
		return &Result{Mode: ModeRemote}, nil
	}
	if p.remote == nil {
		logger.Info("embedding service not configured, using lexical vectors", "texts", len(texts))
		return &Result{Vectors: LexicalVectors(texts), Mode: ModeLexical}, nil
	}

	model := p.remote.EmbeddingModel()
	res := &Result{Vectors: make([][]float64, len(texts)), Mode: ModeRemote}

	var missing []int
	for i, t := range texts {
		vec, found, err := p.cache.Get(model, HashText(t))
		if err != nil {
			return nil, fmt.Errorf("embedding cache read failed: %w", err)
		}
		if found {
			res.Vectors[i] = vec
			res.CacheHits++
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return res, nil
	}
	logger.Info("embedding cache checked",
		"texts", len(texts), "hits", res.CacheHits, "misses", len(missing))

	for start := 0; start < len(missing); start += p.opts.BatchSize {
		end := start + p.opts.BatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		vectors, err := p.embedBatch(ctx, texts, batch)
		if err != nil {
			logger.Warn("embedding service unavailable, falling back to lexical vectors",
				"error", err.Error(), "completed_batches", start/p.opts.BatchSize)
			return &Result{
				Vectors:     LexicalVectors(texts),
				Mode:        ModeLexical,
				CacheHits:   res.CacheHits,
				RemoteCalls: res.RemoteCalls,
			}, nil
		}
		res.RemoteCalls++

		for j, idx := range batch {
			res.Vectors[idx] = vectors[j]
			if err := p.cache.Put(model, HashText(texts[idx]), vectors[j]); err != nil {
				// Storage failures are not a degradation condition.
				return nil, fmt.Errorf("embedding cache write failed: %w", err)
			}
		}
	}
	return res, nil
}

// embedBatch waits on the rate budget then performs one remote request.
func (p *Provider) embedBatch(ctx context.Context, texts []string, batch []int) ([][]float64, error) {
	batchCtx, cancel := context.WithTimeout(ctx, p.opts.WaitTimeout)
	defer cancel()

	if err := p.limiter.Wait(batchCtx); err != nil {
		return nil, fmt.Errorf("rate budget wait expired: %w", err)
	}

	payload := make([]string, len(batch))
	for i, idx := range batch {
		payload[i] = texts[idx]
	}
	vectors, err := p.remote.GenerateEmbeddings(batchCtx, payload)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(payload) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(payload), len(vectors))
	}
	return vectors, nil
}

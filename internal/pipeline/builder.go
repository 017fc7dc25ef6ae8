package pipeline

import (
	"fmt"

	"insightsuite/internal/clustering"
	"insightsuite/internal/embed"
	"insightsuite/internal/llm"
	"insightsuite/internal/personas"
	"insightsuite/internal/sentiment"
	"insightsuite/internal/summarize"
)

// Builder constructs a fully wired Pipeline from concrete components.
type Builder struct {
	cacheDir          string
	llmClient         *llm.Client
	seed              int64
	workers           int
	requestsPerMinute int
}

// NewBuilder creates a builder with default settings.
func NewBuilder() *Builder {
	return &Builder{
		cacheDir:          ".insightsuite-cache",
		seed:              42,
		workers:           4,
		requestsPerMinute: 60,
	}
}

// WithCacheDir sets the embedding cache directory.
func (b *Builder) WithCacheDir(dir string) *Builder {
	b.cacheDir = dir
	return b
}

// WithLLMClient sets the language model client. Without one, embeddings
// use the lexical fallback and summaries and personas are rule-based.
func (b *Builder) WithLLMClient(client *llm.Client) *Builder {
	b.llmClient = client
	return b
}

// WithSeed sets the seed driving quote sampling and the k-means fallback.
func (b *Builder) WithSeed(seed int64) *Builder {
	b.seed = seed
	return b
}

// WithWorkers sets the sentiment scoring concurrency.
func (b *Builder) WithWorkers(n int) *Builder {
	b.workers = n
	return b
}

// WithRequestBudget sets the embedding requests-per-minute budget.
func (b *Builder) WithRequestBudget(rpm int) *Builder {
	b.requestsPerMinute = rpm
	return b
}

// Build constructs the pipeline. An unusable cache directory is fatal here
// rather than mid-run.
func (b *Builder) Build() (*Pipeline, error) {
	cache, err := embed.OpenCache(b.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	var remote embed.RemoteEmbedder
	var textClient summarize.LLMClient
	var personaClient personas.LLMClient
	if b.llmClient != nil {
		remote = b.llmClient
		textClient = b.llmClient
		personaClient = b.llmClient
	}

	embedOpts := embed.DefaultOptions()
	embedOpts.RequestsPerMinute = b.requestsPerMinute

	scorerOpts := sentiment.DefaultOptions()
	scorerOpts.Workers = b.workers

	clusterCfg := clustering.DefaultConfig()
	clusterCfg.Seed = b.seed

	summarizeOpts := summarize.DefaultOptions()
	summarizeOpts.Seed = b.seed

	p := New(
		sentiment.NewScorer(scorerOpts),
		embed.NewProvider(remote, cache, embedOpts),
		clustering.NewEngine(clusterCfg),
		summarize.NewSummarizer(textClient, summarizeOpts),
		personas.NewSynthesizer(personaClient, personas.DefaultOptions()),
	)
	p.cache = cache
	return p, nil
}

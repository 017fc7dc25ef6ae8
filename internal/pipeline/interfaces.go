package pipeline

import (
	"context"

	"insightsuite/internal/clustering"
	"insightsuite/internal/core"
	"insightsuite/internal/embed"
	"insightsuite/internal/personas"
	"insightsuite/internal/summarize"
)

// SentimentScorer assigns a scalar sentiment to each review.
type SentimentScorer interface {
	// ScoreBatch scores all reviews concurrently and returns them with the
	// Sentiment field set.
	ScoreBatch(ctx context.Context, reviews []core.Review) []core.Review

	// Method identifies the scoring approach for the run's method block.
	Method() string
}

// Embedder turns review texts into vectors, reporting whether the remote
// service or the local fallback produced them.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (*embed.Result, error)

	// ModelVersion is the cache namespace of the active embedding model.
	ModelVersion() string
}

// ClusterEngine groups reviews by their embedding vectors.
type ClusterEngine interface {
	Cluster(reviews []core.Review, vectors [][]float64) (*clustering.Result, error)
}

// ClusterSummarizer fills cluster labels, summaries, strengths and
// weaknesses in place.
type ClusterSummarizer interface {
	EnrichClusters(ctx context.Context, reviews []core.Review, clusters []core.Cluster, members map[string][]int) *summarize.Result
	Method() string
}

// PersonaSynthesizer builds user segments from cluster signals.
type PersonaSynthesizer interface {
	Synthesize(ctx context.Context, reviews []core.Review, clusters []core.Cluster) *personas.Result
	Method() string
}

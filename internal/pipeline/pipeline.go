// Package pipeline orchestrates the end-to-end analytics run: load and
// normalize raw reviews, score sentiment, embed, cluster, summarize,
// synthesize personas, and write the project artifact.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"insightsuite/internal/clustering"
	"insightsuite/internal/core"
	"insightsuite/internal/embed"
	"insightsuite/internal/logger"
	"insightsuite/internal/normalize"
)

// Stage names a phase of the run. Stages advance strictly in order; the
// degraded flag is tracked separately and never stops the run.
type Stage string

const (
	StageLoading     Stage = "loading"
	StageScoring     Stage = "scoring"
	StageEmbedding   Stage = "embedding"
	StageClustering  Stage = "clustering"
	StageSummarizing Stage = "summarizing"
	StagePersonas    Stage = "personas"
	StageDone        Stage = "done"
)

// Options configures one dataset run.
type Options struct {
	InputPath   string
	Format      normalize.Format
	ProjectID   string // Generated when empty
	ProjectName string
	OutputDir   string

	// WriteReviews also emits a <project_id>_reviews.json sidecar with the
	// normalized, scored reviews.
	WriteReviews bool
}

// Pipeline wires the five analysis stages together.
type Pipeline struct {
	scorer      SentimentScorer
	embedder    Embedder
	engine      ClusterEngine
	summarizer  ClusterSummarizer
	synthesizer PersonaSynthesizer

	cache *embed.Cache // set by the builder, closed via Close
}

// Close releases resources the builder attached, currently the embedding
// cache handle.
func (p *Pipeline) Close() error {
	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}

// New creates a pipeline from its stage implementations.
func New(scorer SentimentScorer, embedder Embedder, engine ClusterEngine, summarizer ClusterSummarizer, synthesizer PersonaSynthesizer) *Pipeline {
	return &Pipeline{
		scorer:      scorer,
		embedder:    embedder,
		engine:      engine,
		summarizer:  summarizer,
		synthesizer: synthesizer,
	}
}

// RunResult is the outcome of one successful run.
type RunResult struct {
	Artifact     *core.ProjectArtifact
	ArtifactPath string
	ReviewsPath  string // Empty unless WriteReviews was set
	Stats        core.RunStats
}

// Run executes the full pipeline for one dataset. Only two conditions are
// fatal: a dataset that yields zero valid reviews, and an artifact that
// cannot be written. Everything else degrades and the run completes.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*RunResult, error) {
	log := logger.Get()
	start := time.Now()

	projectID := opts.ProjectID
	if projectID == "" {
		projectID = uuid.NewString()
	}
	projectName := opts.ProjectName
	if projectName == "" {
		projectName = strings.TrimSuffix(filepath.Base(opts.InputPath), filepath.Ext(opts.InputPath))
	}

	stats := core.RunStats{
		RunID:          uuid.NewString(),
		ProjectID:      projectID,
		StartTime:      start,
		StageDurations: make(map[string]time.Duration),
	}
	degraded := map[string]bool{}
	stage := func(s Stage, began time.Time) {
		stats.StageDurations[string(s)] = time.Since(began)
		log.Info("stage complete", "stage", string(s), "took", time.Since(began).String())
	}

	// Loading
	began := time.Now()
	adapter, err := normalize.AdapterFor(opts.Format)
	if err != nil {
		return nil, err
	}
	loaded, err := adapter.LoadFile(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", opts.InputPath, err)
	}
	if len(loaded.Reviews) == 0 {
		return nil, fmt.Errorf("no valid reviews in %s (%d rows skipped)", opts.InputPath, loaded.SkippedRows)
	}
	stats.TotalRows = loaded.TotalRows
	stats.SkippedRows = loaded.SkippedRows
	stats.ValidReviews = len(loaded.Reviews)
	stage(StageLoading, began)

	// Scoring
	began = time.Now()
	reviews := p.scorer.ScoreBatch(ctx, loaded.Reviews)
	stage(StageScoring, began)

	// Embedding
	began = time.Now()
	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
	}
	embedded, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	stats.CacheHits = embedded.CacheHits
	stats.RemoteCalls = embedded.RemoteCalls
	if embedded.Mode == embed.ModeLexical {
		degraded["embedding"] = true
	}
	stage(StageEmbedding, began)

	// Clustering
	began = time.Now()
	clustered, err := p.engine.Cluster(reviews, embedded.Vectors)
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %w", err)
	}
	stats.NoiseReviews = len(clustered.Noise)
	if clustered.Strategy == clustering.StrategyKMeans {
		degraded["clustering"] = true
	}
	stage(StageClustering, began)

	// Summarizing
	began = time.Now()
	enriched := p.summarizer.EnrichClusters(ctx, reviews, clustered.Clusters, clustered.Members)
	if enriched.Fallbacks > 0 {
		degraded["summarizing"] = true
	}
	stage(StageSummarizing, began)

	// Personas
	began = time.Now()
	synthesized := p.synthesizer.Synthesize(ctx, reviews, clustered.Clusters)
	if !synthesized.UsedLLM {
		degraded["personas"] = true
	}
	stage(StagePersonas, began)

	for name := range degraded {
		stats.DegradedStages = append(stats.DegradedStages, name)
	}
	sort.Strings(stats.DegradedStages)

	embedMethod := p.embedder.ModelVersion()
	if embedded.Mode == embed.ModeLexical {
		embedMethod = "lexical-tfidf"
	}
	artifact := buildArtifact(artifactInputs{
		ProjectID:   projectID,
		ProjectName: projectName,
		Source:      adapter.SourceName,
		Reviews:     reviews,
		Clusters:    clustered.Clusters,
		Members:     clustered.Members,
		Personas:    synthesized.Personas,
		Method: core.Method{
			Sentiment:  p.scorer.Method(),
			Embedding:  embedMethod,
			Clustering: clustered.Strategy,
			LLM:        p.summarizer.Method(),
		},
		Degraded: len(degraded) > 0,
	})

	if err := validateArtifact(artifact); err != nil {
		return nil, fmt.Errorf("artifact failed validation: %w", err)
	}

	artifactPath := filepath.Join(opts.OutputDir, projectID+".json")
	if err := writeJSON(artifactPath, artifact); err != nil {
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}

	var reviewsPath string
	if opts.WriteReviews {
		reviewsPath = filepath.Join(opts.OutputDir, projectID+"_reviews.json")
		if err := writeJSON(reviewsPath, reviews); err != nil {
			return nil, fmt.Errorf("failed to write reviews sidecar: %w", err)
		}
	}

	stats.EndTime = time.Now()
	stats.StageDurations[string(StageDone)] = stats.EndTime.Sub(start)
	log.Info("run complete",
		"project", projectID,
		"reviews", stats.ValidReviews,
		"clusters", len(artifact.Clusters),
		"personas", len(artifact.Personas),
		"degraded", artifact.Meta.Degraded,
		"took", stats.EndTime.Sub(start).String())

	return &RunResult{
		Artifact:     artifact,
		ArtifactPath: artifactPath,
		ReviewsPath:  reviewsPath,
		Stats:        stats,
	}, nil
}
